package config

import "strings"

// TierThreshold is the per-event token count above which tiered input and
// output prices apply. The first TierThreshold tokens of an event are
// always billed at the base rate.
const TierThreshold = 200_000

// PricingSchedule holds per-million-token prices for a model family.
// TieredInput/TieredOutput of zero mean the family has no tiered pricing.
type PricingSchedule struct {
	InputPerMTok        float64
	OutputPerMTok       float64
	CacheWritePerMTok   float64
	CacheReadPerMTok    float64
	TieredInputPerMTok  float64
	TieredOutputPerMTok float64
}

// schedules are matched by case-insensitive substring in priority order;
// the most specific pattern must come before its prefix (opus-4-5 before
// opus-4).
var schedules = []struct {
	Pattern  string
	Schedule PricingSchedule
}{
	{"opus-4-5", PricingSchedule{
		InputPerMTok: 5.00, OutputPerMTok: 25.00,
		CacheWritePerMTok: 6.25, CacheReadPerMTok: 0.50,
		TieredInputPerMTok: 10.00, TieredOutputPerMTok: 37.50,
	}},
	{"opus-4", PricingSchedule{
		InputPerMTok: 15.00, OutputPerMTok: 75.00,
		CacheWritePerMTok: 18.75, CacheReadPerMTok: 1.50,
	}},
	{"sonnet-4-5", PricingSchedule{
		InputPerMTok: 3.00, OutputPerMTok: 15.00,
		CacheWritePerMTok: 3.75, CacheReadPerMTok: 0.30,
		TieredInputPerMTok: 6.00, TieredOutputPerMTok: 22.50,
	}},
	{"sonnet-4", PricingSchedule{
		InputPerMTok: 3.00, OutputPerMTok: 15.00,
		CacheWritePerMTok: 3.75, CacheReadPerMTok: 0.30,
	}},
	{"haiku-4-5", PricingSchedule{
		InputPerMTok: 1.00, OutputPerMTok: 5.00,
		CacheWritePerMTok: 1.25, CacheReadPerMTok: 0.10,
	}},
	{"3-5-haiku", PricingSchedule{
		InputPerMTok: 0.80, OutputPerMTok: 4.00,
		CacheWritePerMTok: 1.00, CacheReadPerMTok: 0.08,
	}},
}

// defaultSchedule is used when no family matches (non-tiered sonnet-4).
var defaultSchedule = PricingSchedule{
	InputPerMTok: 3.00, OutputPerMTok: 15.00,
	CacheWritePerMTok: 3.75, CacheReadPerMTok: 0.30,
}

// ResolvePricing maps a model identifier to its pricing schedule.
// An empty or unknown identifier resolves to the default schedule.
func ResolvePricing(modelID string) PricingSchedule {
	lower := strings.ToLower(modelID)
	for _, s := range schedules {
		if strings.Contains(lower, s.Pattern) {
			return s.Schedule
		}
	}
	return defaultSchedule
}

// TieredCost bills tokens at the base rate up to TierThreshold and at the
// tiered rate beyond it. With no tiered price, everything bills at base.
func TieredCost(tokens int64, basePerMTok, tieredPerMTok float64) float64 {
	if tieredPerMTok > 0 && tokens > TierThreshold {
		return TierThreshold*basePerMTok/1e6 + float64(tokens-TierThreshold)*tieredPerMTok/1e6
	}
	return float64(tokens) * basePerMTok / 1e6
}

// Cost computes the USD cost of one event's token usage under a schedule.
// Cache write and read tokens always bill at their flat rate.
func Cost(schedule PricingSchedule, input, output, cacheWrite, cacheRead int64) float64 {
	cost := TieredCost(input, schedule.InputPerMTok, schedule.TieredInputPerMTok)
	cost += TieredCost(output, schedule.OutputPerMTok, schedule.TieredOutputPerMTok)
	cost += float64(cacheWrite) * schedule.CacheWritePerMTok / 1e6
	cost += float64(cacheRead) * schedule.CacheReadPerMTok / 1e6
	return cost
}

// CostForModel resolves the model's schedule and prices the usage tuple.
// An empty model identifier produces zero cost (no attributable pricing).
func CostForModel(modelID string, input, output, cacheWrite, cacheRead int64) float64 {
	if modelID == "" {
		return 0
	}
	return Cost(ResolvePricing(modelID), input, output, cacheWrite, cacheRead)
}
