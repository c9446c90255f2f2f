package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
    file_path   TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL,
    project     TEXT NOT NULL,
    start_time  TEXT,
    end_time    TEXT,
    mtime_ns    INTEGER NOT NULL,
    size_bytes  INTEGER NOT NULL,
    parsed_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    file_path          TEXT NOT NULL REFERENCES files(file_path) ON DELETE CASCADE,
    seq                INTEGER NOT NULL,
    event_id           TEXT NOT NULL,
    session_id         TEXT,
    ts                 TEXT NOT NULL,
    model              TEXT,
    input_tokens       INTEGER NOT NULL,
    output_tokens      INTEGER NOT NULL,
    cache_write_tokens INTEGER NOT NULL,
    cache_read_tokens  INTEGER NOT NULL,
    cost               REAL NOT NULL,
    message_id         TEXT,
    request_id         TEXT,
    PRIMARY KEY (file_path, seq)
);

CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
`
