package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntrySyncMessage asks the worker to mirror one local entry to the remote
// sheet. It carries only the kind and row id; the worker reads the current
// row from the database, so a stale message still syncs the latest state.
type EntrySyncMessage struct {
	Kind      string    `json:"kind"` // "meal" or "expense"
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntrySyncMessage(kind string, id int64) *EntrySyncMessage {
	return &EntrySyncMessage{
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind != "meal" && msg.Kind != "expense" {
		return nil, fmt.Errorf("unknown entry kind %q", msg.Kind)
	}
	return &msg, nil
}
