package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entity names carried in a RecordSyncMessage.
const (
	EntityTransaction = "transaction"
	EntityCategory    = "category"
	EntityBudget      = "budget"
	EntitySnapshot    = "snapshot"
)

// Operations carried in a RecordSyncMessage.
const (
	OpPut        = "put"
	OpDelete     = "delete"
	OpReplaceAll = "replace_all"
)

// RecordSyncMessage describes one ledger mutation destined for the
// hosted record store. Record holds the full entity payload for put and
// replace_all operations and is empty for deletes.
type RecordSyncMessage struct {
	Entity    string          `json:"entity"`
	Op        string          `json:"op"`
	ID        string          `json:"id,omitempty"`
	UserID    string          `json:"user_id"`
	Record    json.RawMessage `json:"record,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewRecordSyncMessage builds a message with the current timestamp.
func NewRecordSyncMessage(entity, op, id, userID string, record json.RawMessage) RecordSyncMessage {
	return RecordSyncMessage{
		Entity:    entity,
		Op:        op,
		ID:        id,
		UserID:    userID,
		Record:    record,
		Timestamp: time.Now(),
	}
}

// Validate rejects messages with an unknown entity or operation before
// they are applied to the record store.
func (m RecordSyncMessage) Validate() error {
	switch m.Entity {
	case EntityTransaction, EntityCategory, EntityBudget, EntitySnapshot:
	default:
		return fmt.Errorf("unknown entity %q", m.Entity)
	}
	switch m.Op {
	case OpPut, OpDelete, OpReplaceAll:
	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
	if m.UserID == "" {
		return fmt.Errorf("missing user id")
	}
	if m.Op == OpDelete && m.ID == "" {
		return fmt.Errorf("delete without record id")
	}
	if m.Op != OpDelete && len(m.Record) == 0 {
		return fmt.Errorf("%s without record payload", m.Op)
	}
	return nil
}

// ToJSON converts the message to JSON bytes.
func (m RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordSyncMessageFromJSON decodes a message from JSON bytes.
func RecordSyncMessageFromJSON(data []byte) (RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return RecordSyncMessage{}, fmt.Errorf("unmarshal record sync message: %w", err)
	}
	return msg, nil
}
