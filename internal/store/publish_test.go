package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
)

type stubPublisher struct {
	published []amqp.RecordSyncMessage
	err       error
}

func (p *stubPublisher) PublishRecordSync(ctx context.Context, msg amqp.RecordSyncMessage) error {
	p.published = append(p.published, msg)
	return p.err
}

func newSyncedFixture(t *testing.T) (*SyncedStore, *LocalStore, *stubPublisher) {
	t.Helper()
	local, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	pub := &stubPublisher{}
	return NewSyncedStore(local, pub, "user-1"), local, pub
}

func TestSyncedStore_PutTransactionPublishes(t *testing.T) {
	synced, local, pub := newSyncedFixture(t)
	ctx := context.Background()

	tx := core.Transaction{ID: "t1", Amount: core.Money{Cents: 5000}, Description: "Almoço", CategoryID: "1", Date: core.NewDate(2025, time.June, 10)}
	if err := synced.PutTransaction(ctx, tx); err != nil {
		t.Fatalf("PutTransaction() error = %v", err)
	}

	snap, _ := local.Load(ctx)
	if len(snap.Transactions) != 1 {
		t.Fatalf("local transactions = %d, want 1", len(snap.Transactions))
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	msg := pub.published[0]
	if msg.Entity != amqp.EntityTransaction || msg.Op != amqp.OpPut || msg.ID != "t1" || msg.UserID != "user-1" {
		t.Errorf("message = %+v, want transaction put for t1 scoped to user-1", msg)
	}
	var decoded core.Transaction
	if err := json.Unmarshal(msg.Record, &decoded); err != nil {
		t.Fatalf("record payload does not decode: %v", err)
	}
	if decoded.Amount.Cents != 5000 {
		t.Errorf("payload amount = %d, want 5000", decoded.Amount.Cents)
	}
}

func TestSyncedStore_DeletePublishesWithoutPayload(t *testing.T) {
	synced, _, pub := newSyncedFixture(t)
	if err := synced.DeleteTransaction(context.Background(), "t1"); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	msg := pub.published[0]
	if msg.Op != amqp.OpDelete || msg.ID != "t1" || len(msg.Record) != 0 {
		t.Errorf("message = %+v, want delete of t1 with empty record", msg)
	}
}

func TestSyncedStore_PublishFailureSurfacedLocalWriteStands(t *testing.T) {
	synced, local, pub := newSyncedFixture(t)
	pub.err = errors.New("broker unavailable")
	ctx := context.Background()

	tx := core.Transaction{ID: "t1", Amount: core.Money{Cents: 100}, Description: "café", CategoryID: "1", Date: core.NewDate(2025, time.June, 10)}
	err := synced.PutTransaction(ctx, tx)
	if err == nil {
		t.Fatal("PutTransaction() error = nil, want publish failure")
	}
	if !strings.Contains(err.Error(), "queue remote write") {
		t.Errorf("error = %q, want it wrapped as a remote-write failure", err)
	}

	snap, _ := local.Load(ctx)
	if len(snap.Transactions) != 1 {
		t.Errorf("local transactions = %d, want 1 despite publish failure", len(snap.Transactions))
	}
}

func TestSyncedStore_ReplaceAllPublishesSnapshot(t *testing.T) {
	synced, _, pub := newSyncedFixture(t)
	snap := core.Snapshot{
		Categories: []core.Category{{ID: "1", Name: "Alimentação", Color: "#ef4444"}},
	}
	if err := synced.ReplaceAll(context.Background(), snap); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	msg := pub.published[0]
	if msg.Entity != amqp.EntitySnapshot || msg.Op != amqp.OpReplaceAll {
		t.Errorf("message = %+v, want snapshot replace_all", msg)
	}
	var decoded core.Snapshot
	if err := json.Unmarshal(msg.Record, &decoded); err != nil {
		t.Fatalf("snapshot payload does not decode: %v", err)
	}
	if len(decoded.Categories) != 1 {
		t.Errorf("payload categories = %d, want 1", len(decoded.Categories))
	}
}
