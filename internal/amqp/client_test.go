package amqp

import (
	"testing"
	"time"
)

func TestNewEntrySyncMessage(t *testing.T) {
	msg := NewEntrySyncMessage("meal", 42)

	if msg.Kind != "meal" {
		t.Errorf("Kind = %q, want %q", msg.Kind, "meal")
	}
	if msg.ID != 42 {
		t.Errorf("ID = %d, want 42", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestEntrySyncMessage_JSON(t *testing.T) {
	msg := &EntrySyncMessage{
		Kind:      "expense",
		ID:        12345,
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := EntrySyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("EntrySyncMessageFromJSON() error = %v", err)
	}
	if parsed.Kind != msg.Kind || parsed.ID != msg.ID {
		t.Errorf("parsed %+v, want %+v", parsed, msg)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestEntrySyncMessage_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{"id": "nope"`},
		{"unknown kind", `{"kind": "payment", "id": 1}`},
		{"missing kind", `{"id": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := EntrySyncMessageFromJSON([]byte(tc.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
