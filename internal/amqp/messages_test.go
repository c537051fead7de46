package amqp

import (
	"encoding/json"
	"testing"
)

func TestRecordSyncMessageValidate(t *testing.T) {
	record := json.RawMessage(`{"id":"t1"}`)

	tests := []struct {
		name    string
		msg     RecordSyncMessage
		wantErr bool
	}{
		{
			name: "valid put",
			msg:  NewRecordSyncMessage(EntityTransaction, OpPut, "t1", "user-1", record),
		},
		{
			name: "valid delete",
			msg:  NewRecordSyncMessage(EntityCategory, OpDelete, "c1", "user-1", nil),
		},
		{
			name: "valid snapshot replace",
			msg:  NewRecordSyncMessage(EntitySnapshot, OpReplaceAll, "", "user-1", record),
		},
		{
			name:    "unknown entity",
			msg:     NewRecordSyncMessage("invoice", OpPut, "t1", "user-1", record),
			wantErr: true,
		},
		{
			name:    "unknown op",
			msg:     NewRecordSyncMessage(EntityTransaction, "upsert", "t1", "user-1", record),
			wantErr: true,
		},
		{
			name:    "missing user id",
			msg:     NewRecordSyncMessage(EntityTransaction, OpPut, "t1", "", record),
			wantErr: true,
		},
		{
			name:    "delete without id",
			msg:     NewRecordSyncMessage(EntityTransaction, OpDelete, "", "user-1", nil),
			wantErr: true,
		},
		{
			name:    "put without payload",
			msg:     NewRecordSyncMessage(EntityBudget, OpPut, "b1", "user-1", nil),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordSyncMessageJSONRoundTrip(t *testing.T) {
	msg := NewRecordSyncMessage(EntityTransaction, OpPut, "t1", "user-1", json.RawMessage(`{"id":"t1","description":"Almoço"}`))

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := RecordSyncMessageFromJSON(data)
	if err != nil {
		t.Fatalf("RecordSyncMessageFromJSON() error = %v", err)
	}
	if got.Entity != msg.Entity || got.Op != msg.Op || got.ID != msg.ID || got.UserID != msg.UserID {
		t.Errorf("round trip = %+v, want %+v", got, msg)
	}
	if string(got.Record) != string(msg.Record) {
		t.Errorf("record = %s, want %s", got.Record, msg.Record)
	}
	if !got.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, msg.Timestamp)
	}
}

func TestRecordSyncMessageFromJSON_Malformed(t *testing.T) {
	if _, err := RecordSyncMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("RecordSyncMessageFromJSON() error = nil, want decode failure")
	}
}
