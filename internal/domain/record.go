package domain

import "time"

// LogRecord is a single structured error-log entry loaded from the corpus.
// Records are created during ingestion and treated as read-only afterwards.
type LogRecord struct {
	Timestamp  time.Time         `json:"timestamp"`
	Level      string            `json:"level"`
	Service    string            `json:"service"`
	ErrorType  string            `json:"error_type"`
	Message    string            `json:"message"`
	UserID     string            `json:"user_id,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	StackTrace string            `json:"stack_trace,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// EmbeddedRecord pairs a log record with its embedding vector and the exact
// text that was embedded, so cached entries can be audited.
type EmbeddedRecord struct {
	Record LogRecord `json:"record"`
	Vector []float64 `json:"vector"`
	Text   string    `json:"text"`
}
