// Package worker replays queued ledger mutations against the hosted
// record store.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/store"
)

// SyncWorker applies record sync messages to the record store. The
// message's user scope must match the store's: a worker instance serves
// exactly one user's queue.
type SyncWorker struct {
	records   store.Store
	userID    string
	processed atomic.Int64
}

func NewSyncWorker(records store.Store, userID string) *SyncWorker {
	return &SyncWorker{records: records, userID: userID}
}

// Processed returns the number of messages applied since startup.
func (w *SyncWorker) Processed() int64 {
	return w.processed.Load()
}

// HandleRecordSync processes one mutation message. A decode failure is
// permanent (the caller should drop the message); a store failure is
// transient (the caller should requeue).
func (w *SyncWorker) HandleRecordSync(ctx context.Context, msg amqp.RecordSyncMessage) error {
	if msg.UserID != w.userID {
		slog.WarnContext(ctx, "Dropping message for foreign user",
			"message_user", msg.UserID, "worker_user", w.userID)
		return nil
	}

	slog.InfoContext(ctx, "Applying record sync message",
		"entity", msg.Entity, "op", msg.Op, "id", msg.ID)

	var err error
	switch msg.Entity {
	case amqp.EntityTransaction:
		err = w.applyTransaction(ctx, msg)
	case amqp.EntityCategory:
		err = w.applyCategory(ctx, msg)
	case amqp.EntityBudget:
		err = w.applyBudget(ctx, msg)
	case amqp.EntitySnapshot:
		err = w.applySnapshot(ctx, msg)
	default:
		err = &PermanentError{Err: fmt.Errorf("unknown entity %q", msg.Entity)}
	}
	if err == nil {
		w.processed.Add(1)
	}
	return err
}

func (w *SyncWorker) applyTransaction(ctx context.Context, msg amqp.RecordSyncMessage) error {
	switch msg.Op {
	case amqp.OpPut:
		var t core.Transaction
		if err := json.Unmarshal(msg.Record, &t); err != nil {
			return &PermanentError{Err: fmt.Errorf("decode transaction: %w", err)}
		}
		if err := w.records.PutTransaction(ctx, t); err != nil {
			return fmt.Errorf("put transaction %s: %w", t.ID, err)
		}
		return nil
	case amqp.OpDelete:
		if err := w.records.DeleteTransaction(ctx, msg.ID); err != nil {
			return fmt.Errorf("delete transaction %s: %w", msg.ID, err)
		}
		return nil
	default:
		return &PermanentError{Err: fmt.Errorf("unsupported transaction op %q", msg.Op)}
	}
}

func (w *SyncWorker) applyCategory(ctx context.Context, msg amqp.RecordSyncMessage) error {
	switch msg.Op {
	case amqp.OpPut:
		var c core.Category
		if err := json.Unmarshal(msg.Record, &c); err != nil {
			return &PermanentError{Err: fmt.Errorf("decode category: %w", err)}
		}
		if err := w.records.PutCategory(ctx, c); err != nil {
			return fmt.Errorf("put category %s: %w", c.ID, err)
		}
		return nil
	case amqp.OpDelete:
		if err := w.records.DeleteCategory(ctx, msg.ID); err != nil {
			return fmt.Errorf("delete category %s: %w", msg.ID, err)
		}
		return nil
	default:
		return &PermanentError{Err: fmt.Errorf("unsupported category op %q", msg.Op)}
	}
}

func (w *SyncWorker) applyBudget(ctx context.Context, msg amqp.RecordSyncMessage) error {
	if msg.Op != amqp.OpPut {
		// Budgets have no delete: absence already means "no limit".
		return &PermanentError{Err: fmt.Errorf("unsupported budget op %q", msg.Op)}
	}
	var b core.Budget
	if err := json.Unmarshal(msg.Record, &b); err != nil {
		return &PermanentError{Err: fmt.Errorf("decode budget: %w", err)}
	}
	if err := w.records.PutBudget(ctx, b); err != nil {
		return fmt.Errorf("put budget %s: %w", b.ID, err)
	}
	return nil
}

func (w *SyncWorker) applySnapshot(ctx context.Context, msg amqp.RecordSyncMessage) error {
	if msg.Op != amqp.OpReplaceAll {
		return &PermanentError{Err: fmt.Errorf("unsupported snapshot op %q", msg.Op)}
	}
	var snap core.Snapshot
	if err := json.Unmarshal(msg.Record, &snap); err != nil {
		return &PermanentError{Err: fmt.Errorf("decode snapshot: %w", err)}
	}
	if err := w.records.ReplaceAll(ctx, snap); err != nil {
		return fmt.Errorf("replace all: %w", err)
	}
	return nil
}

// PermanentError marks a message that will never apply cleanly, so the
// consumer drops it instead of requeueing.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string   { return e.Err.Error() }
func (e *PermanentError) Unwrap() error   { return e.Err }
func (e *PermanentError) Permanent() bool { return true }
