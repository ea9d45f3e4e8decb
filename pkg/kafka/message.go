package kafka

import (
	"encoding/json"
	"time"
)

// MenuEvent is the payload published for every menu change.
type MenuEvent struct {
	EventType  string          `json:"event_type"` // record.created, record.updated, record.deleted, branch.updated
	RecordType string          `json:"record_type"`
	RecordID   int64           `json:"record_id"`
	Actor      string          `json:"actor,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}
