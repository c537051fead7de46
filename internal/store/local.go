package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gastos/internal/core"
)

// Bucket file names inside the data directory. Each logical collection
// lives in its own document so a mutation rewrites only the bucket that
// changed.
const (
	transactionsFile = "transactions.json"
	categoriesFile   = "categories.json"
	budgetsFile      = "budgets.json"
)

// LocalStore keeps the ledger in three JSON bucket files under a data
// directory. It is the guest-session backend.
type LocalStore struct {
	mu  sync.Mutex
	dir string

	// in-memory mirror of the bucket contents, so a single-record
	// mutation can rewrite its whole bucket
	transactions []core.Transaction
	categories   []core.Category
	budgets      []core.Budget
	loaded       bool
}

// NewLocalStore creates the data directory if needed and returns a store
// rooted there.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Load reads the three buckets. A missing or unreadable bucket yields an
// empty collection, never an error.
func (s *LocalStore) Load(ctx context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = nil
	s.categories = nil
	s.budgets = nil
	s.loaded = false
	s.ensureLoadedLocked(ctx)

	return s.snapshotLocked(), nil
}

// ensureLoadedLocked fills the in-memory mirror from disk on first use.
// A mutation on a store that was never loaded must not rewrite a bucket
// from an empty mirror and wipe whatever is already on disk.
func (s *LocalStore) ensureLoadedLocked(ctx context.Context) {
	if s.loaded {
		return
	}
	readBucket(ctx, filepath.Join(s.dir, transactionsFile), &s.transactions)
	readBucket(ctx, filepath.Join(s.dir, categoriesFile), &s.categories)
	readBucket(ctx, filepath.Join(s.dir, budgetsFile), &s.budgets)
	s.loaded = true
}

func (s *LocalStore) PutTransaction(ctx context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	replaced := false
	for i, existing := range s.transactions {
		if existing.ID == t.ID {
			s.transactions[i] = t.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		s.transactions = append(s.transactions, t.Clone())
	}
	return s.writeBucket(transactionsFile, s.transactions)
}

func (s *LocalStore) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	kept := s.transactions[:0]
	for _, t := range s.transactions {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.transactions = kept
	return s.writeBucket(transactionsFile, s.transactions)
}

func (s *LocalStore) PutCategory(ctx context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	replaced := false
	for i, existing := range s.categories {
		if existing.ID == c.ID {
			s.categories[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		s.categories = append(s.categories, c)
	}
	return s.writeBucket(categoriesFile, s.categories)
}

func (s *LocalStore) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.categories = kept
	return s.writeBucket(categoriesFile, s.categories)
}

func (s *LocalStore) PutBudget(ctx context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	replaced := false
	for i, existing := range s.budgets {
		if existing.CategoryID == b.CategoryID && existing.Month == b.Month {
			s.budgets[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		s.budgets = append(s.budgets, b)
	}
	return s.writeBucket(budgetsFile, s.budgets)
}

func (s *LocalStore) ReplaceAll(ctx context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := snap.Clone()
	s.transactions = clone.Transactions
	s.categories = clone.Categories
	s.budgets = clone.Budgets
	s.loaded = true

	if err := s.writeBucket(transactionsFile, s.transactions); err != nil {
		return err
	}
	if err := s.writeBucket(categoriesFile, s.categories); err != nil {
		return err
	}
	return s.writeBucket(budgetsFile, s.budgets)
}

func (s *LocalStore) Close() error { return nil }

func (s *LocalStore) snapshotLocked() core.Snapshot {
	return core.Snapshot{
		Transactions: s.transactions,
		Categories:   s.categories,
		Budgets:      s.budgets,
	}.Clone()
}

// writeBucket rewrites one bucket document atomically (temp file, then
// rename).
func (s *LocalStore) writeBucket(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bucket %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("write bucket %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write bucket %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write bucket %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write bucket %s: %w", name, err)
	}
	return nil
}

func readBucket[T any](ctx context.Context, path string, out *[]T) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.WarnContext(ctx, "Unreadable bucket, starting empty", "path", path, "error", err)
		}
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.WarnContext(ctx, "Corrupt bucket, starting empty", "path", path, "error", err)
		*out = nil
	}
}
