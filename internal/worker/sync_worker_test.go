package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
)

type stubRecordStore struct {
	putTransactions []core.Transaction
	deletedIDs      []string
	putCategories   []core.Category
	putBudgets      []core.Budget
	replaced        *core.Snapshot
	writeErr        error
}

func (s *stubRecordStore) Load(ctx context.Context) (core.Snapshot, error) {
	return core.Snapshot{}, nil
}

func (s *stubRecordStore) PutTransaction(ctx context.Context, t core.Transaction) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.putTransactions = append(s.putTransactions, t)
	return nil
}

func (s *stubRecordStore) DeleteTransaction(ctx context.Context, id string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

func (s *stubRecordStore) PutCategory(ctx context.Context, c core.Category) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.putCategories = append(s.putCategories, c)
	return nil
}

func (s *stubRecordStore) DeleteCategory(ctx context.Context, id string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

func (s *stubRecordStore) PutBudget(ctx context.Context, b core.Budget) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.putBudgets = append(s.putBudgets, b)
	return nil
}

func (s *stubRecordStore) ReplaceAll(ctx context.Context, snap core.Snapshot) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.replaced = &snap
	return nil
}

func (s *stubRecordStore) Close() error { return nil }

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestHandleRecordSync_AppliesTransactionPut(t *testing.T) {
	records := &stubRecordStore{}
	w := NewSyncWorker(records, "user-1")

	tx := core.Transaction{ID: "t1", Amount: core.Money{Cents: 5000}, Description: "Almoço", CategoryID: "1", Date: core.NewDate(2025, time.June, 10)}
	msg := amqp.NewRecordSyncMessage(amqp.EntityTransaction, amqp.OpPut, "t1", "user-1", mustJSON(t, tx))

	if err := w.HandleRecordSync(context.Background(), msg); err != nil {
		t.Fatalf("HandleRecordSync() error = %v", err)
	}
	if len(records.putTransactions) != 1 || records.putTransactions[0].ID != "t1" {
		t.Errorf("putTransactions = %+v, want one put of t1", records.putTransactions)
	}
	if got := w.Processed(); got != 1 {
		t.Errorf("Processed() = %d, want 1", got)
	}
}

func TestHandleRecordSync_AppliesDelete(t *testing.T) {
	records := &stubRecordStore{}
	w := NewSyncWorker(records, "user-1")

	msg := amqp.NewRecordSyncMessage(amqp.EntityTransaction, amqp.OpDelete, "t1", "user-1", nil)
	if err := w.HandleRecordSync(context.Background(), msg); err != nil {
		t.Fatalf("HandleRecordSync() error = %v", err)
	}
	if len(records.deletedIDs) != 1 || records.deletedIDs[0] != "t1" {
		t.Errorf("deletedIDs = %v, want [t1]", records.deletedIDs)
	}
}

func TestHandleRecordSync_DropsForeignUser(t *testing.T) {
	records := &stubRecordStore{}
	w := NewSyncWorker(records, "user-1")

	msg := amqp.NewRecordSyncMessage(amqp.EntityTransaction, amqp.OpDelete, "t1", "someone-else", nil)
	if err := w.HandleRecordSync(context.Background(), msg); err != nil {
		t.Fatalf("HandleRecordSync() error = %v, want nil for foreign user", err)
	}
	if len(records.deletedIDs) != 0 {
		t.Errorf("deletedIDs = %v, want none applied", records.deletedIDs)
	}
	if got := w.Processed(); got != 0 {
		t.Errorf("Processed() = %d, want 0 for a dropped message", got)
	}
}

func TestHandleRecordSync_MalformedRecordIsPermanent(t *testing.T) {
	w := NewSyncWorker(&stubRecordStore{}, "user-1")

	msg := amqp.NewRecordSyncMessage(amqp.EntityTransaction, amqp.OpPut, "t1", "user-1", json.RawMessage("{not json"))
	err := w.HandleRecordSync(context.Background(), msg)
	if err == nil {
		t.Fatal("HandleRecordSync() error = nil, want decode failure")
	}
	var perm *PermanentError
	if !errors.As(err, &perm) {
		t.Fatalf("error = %v, want *PermanentError", err)
	}
	if !perm.Permanent() {
		t.Error("Permanent() = false, want true")
	}
}

func TestHandleRecordSync_BudgetDeleteIsPermanent(t *testing.T) {
	w := NewSyncWorker(&stubRecordStore{}, "user-1")

	msg := amqp.NewRecordSyncMessage(amqp.EntityBudget, amqp.OpDelete, "b1", "user-1", nil)
	err := w.HandleRecordSync(context.Background(), msg)
	var perm *PermanentError
	if !errors.As(err, &perm) {
		t.Fatalf("error = %v, want *PermanentError for budget delete", err)
	}
}

func TestHandleRecordSync_StoreFailureIsTransient(t *testing.T) {
	records := &stubRecordStore{writeErr: errors.New("disk full")}
	w := NewSyncWorker(records, "user-1")

	tx := core.Transaction{ID: "t1", Amount: core.Money{Cents: 100}, Description: "café", CategoryID: "1", Date: core.NewDate(2025, time.June, 10)}
	msg := amqp.NewRecordSyncMessage(amqp.EntityTransaction, amqp.OpPut, "t1", "user-1", mustJSON(t, tx))

	err := w.HandleRecordSync(context.Background(), msg)
	if err == nil {
		t.Fatal("HandleRecordSync() error = nil, want store failure")
	}
	var perm *PermanentError
	if errors.As(err, &perm) {
		t.Errorf("error = %v, want a transient (non-permanent) failure", err)
	}
	if got := w.Processed(); got != 0 {
		t.Errorf("Processed() = %d, want 0 after a failed apply", got)
	}
}

func TestHandleRecordSync_SnapshotReplacesAll(t *testing.T) {
	records := &stubRecordStore{}
	w := NewSyncWorker(records, "user-1")

	snap := core.Snapshot{Categories: []core.Category{{ID: "1", Name: "Alimentação", Color: "#ef4444"}}}
	msg := amqp.NewRecordSyncMessage(amqp.EntitySnapshot, amqp.OpReplaceAll, "", "user-1", mustJSON(t, snap))

	if err := w.HandleRecordSync(context.Background(), msg); err != nil {
		t.Fatalf("HandleRecordSync() error = %v", err)
	}
	if records.replaced == nil || len(records.replaced.Categories) != 1 {
		t.Errorf("replaced = %+v, want the snapshot applied", records.replaced)
	}
}

func TestHandleRecordSync_UnknownEntityIsPermanent(t *testing.T) {
	w := NewSyncWorker(&stubRecordStore{}, "user-1")

	msg := amqp.NewRecordSyncMessage("invoice", amqp.OpPut, "x", "user-1", json.RawMessage(`{}`))
	err := w.HandleRecordSync(context.Background(), msg)
	var perm *PermanentError
	if !errors.As(err, &perm) {
		t.Fatalf("error = %v, want *PermanentError for unknown entity", err)
	}
}

func TestHandleRecordSyncIsAConsumerHandler(t *testing.T) {
	w := NewSyncWorker(&stubRecordStore{}, "user-1")

	// The method must stay assignable to the consumer's handler type so
	// the worker binary can pass it to ConsumeRecordSync directly.
	var h amqp.RecordSyncHandler = w.HandleRecordSync

	msg := amqp.NewRecordSyncMessage(amqp.EntityTransaction, amqp.OpDelete, "tx-1", "user-1", nil)
	if err := h(context.Background(), msg); err != nil {
		t.Fatalf("handler error = %v", err)
	}
}
