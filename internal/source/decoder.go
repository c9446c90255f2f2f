// Package source decodes Claude Code JSONL session logs and discovers
// them on disk.
package source

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ccpulse/ccpulse/internal/config"
	"github.com/ccpulse/ccpulse/internal/model"
)

// rawRecord maps the JSONL line structure we care about.
type rawRecord struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"requestId"`
	UUID      string      `json:"uuid"`
	Message   *rawMessage `json:"message"`
}

// rawMessage is the assistant's response envelope.
type rawMessage struct {
	ID    string    `json:"id"`
	Model string    `json:"model"`
	Usage *rawUsage `json:"usage"`
}

// rawUsage holds token counts from the API response. Absent fields
// decode to zero.
type rawUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// DecodeLine parses one log line into a usage event. ok is false for
// every record that is not an assistant message carrying a response id
// and a usage object; rejection is silent so a malformed line never
// aborts the rest of the file.
func DecodeLine(line []byte) (model.UsageEvent, bool) {
	var rec rawRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return model.UsageEvent{}, false
	}

	if rec.Type != "assistant" || rec.Message == nil {
		return model.UsageEvent{}, false
	}
	msg := rec.Message
	if msg.ID == "" || msg.Usage == nil {
		return model.UsageEvent{}, false
	}

	ev := model.UsageEvent{
		ID:               rec.UUID,
		SessionID:        rec.SessionID,
		Timestamp:        parseTimestamp(rec.Timestamp),
		Model:            msg.Model,
		InputTokens:      msg.Usage.InputTokens,
		OutputTokens:     msg.Usage.OutputTokens,
		CacheWriteTokens: msg.Usage.CacheCreationInputTokens,
		CacheReadTokens:  msg.Usage.CacheReadInputTokens,
		MessageID:        msg.ID,
		RequestID:        rec.RequestID,
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	ev.Cost = config.CostForModel(ev.Model,
		ev.InputTokens, ev.OutputTokens, ev.CacheWriteTokens, ev.CacheReadTokens)

	return ev, true
}

// parseTimestamp accepts RFC3339 with or without fractional seconds.
// Unparseable timestamps fall back to decode-time now so the token
// accounting is kept rather than dropped.
func parseTimestamp(s string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC()
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC()
	}
	return time.Now().UTC()
}
