// Package store persists the ledger for the active session behind two
// interchangeable backends: a document store of per-bucket JSON files for
// guest sessions, and a record-oriented SQLite store scoped by user id
// for registered sessions.
package store

import (
	"context"

	"gastos/internal/core"
)

// Store durably persists ledger state. Load never hard-fails on absent
// data; it returns empty collections instead. Mutating calls may fail
// (storage or connectivity) and that failure must be surfaced to the
// caller without rolling back the in-memory ledger.
type Store interface {
	// Load reconstructs the full snapshot. Missing buckets come back
	// empty, never as an error.
	Load(ctx context.Context) (core.Snapshot, error)

	// PutTransaction creates or replaces the record with the same id.
	PutTransaction(ctx context.Context, t core.Transaction) error
	// DeleteTransaction removes the record; deleting an absent id is a
	// no-op.
	DeleteTransaction(ctx context.Context, id string) error

	PutCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id string) error

	// PutBudget upserts on the (category, month) pair. Budgets have no
	// delete operation: absence is the "no limit" state.
	PutBudget(ctx context.Context, b core.Budget) error

	// ReplaceAll overwrites every collection with the given snapshot.
	// Used by the import path.
	ReplaceAll(ctx context.Context, snap core.Snapshot) error

	Close() error
}
