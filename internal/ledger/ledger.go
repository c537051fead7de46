// Package ledger holds the authoritative in-memory state of the active
// session: categories, transactions and budgets. Every mutation is
// applied in memory first and then written through to the session's
// store; a failed write is surfaced to the caller but never rolls the
// in-memory state back.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gastos/internal/core"
	"gastos/internal/store"
)

// Ledger is the single source of truth for the session's collections.
// It is constructed once at session start and injected into consumers.
type Ledger struct {
	mu    sync.Mutex
	store store.Store

	transactions []core.Transaction
	categories   []core.Category
	budgets      []core.Budget

	// seams for tests
	now   func() time.Time
	newID func() string
}

// New loads the persisted snapshot from the store. With seedDefaults
// set, an empty category bucket gets the default set so the first
// session is not empty.
func New(ctx context.Context, st store.Store, seedDefaults bool) (*Ledger, error) {
	l := &Ledger{
		store: st,
		now:   time.Now,
		newID: uuid.NewString,
	}

	snap, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	l.transactions = snap.Transactions
	l.categories = snap.Categories
	l.budgets = snap.Budgets

	if seedDefaults && len(l.categories) == 0 {
		l.categories = core.DefaultCategories()
		for _, c := range l.categories {
			if err := st.PutCategory(ctx, c); err != nil {
				// Seeding is best-effort: the in-memory defaults keep the
				// session usable and the next successful write converges.
				slog.WarnContext(ctx, "Failed to persist seeded category",
					"id", c.ID, "name", c.Name, "error", err)
				break
			}
		}
		slog.InfoContext(ctx, "Seeded default categories", "count", len(l.categories))
	}

	return l, nil
}

// Snapshot returns a deep copy of the three collections for readers such
// as the aggregation engine.
func (l *Ledger) Snapshot() core.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.Snapshot{
		Transactions: l.transactions,
		Categories:   l.categories,
		Budgets:      l.budgets,
	}.Clone()
}

// AddTransaction validates the draft, assigns an id and creation
// timestamp and appends the record. The returned error reports a failed
// persistence write; the record is in memory either way.
func (l *Ledger) AddTransaction(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	t := core.Transaction{
		ID:            l.newID(),
		Amount:        draft.Amount,
		Description:   draft.Description,
		CategoryID:    draft.CategoryID,
		Subcategory:   draft.Subcategory,
		PaymentMethod: draft.PaymentMethod,
		Tags:          append([]string(nil), draft.Tags...),
		Date:          draft.Date,
		CreatedAt:     l.now().UTC(),
	}
	l.transactions = append(l.transactions, t)
	l.mu.Unlock()

	if err := l.store.PutTransaction(ctx, t); err != nil {
		return t.Clone(), fmt.Errorf("save transaction: %w", err)
	}
	return t.Clone(), nil
}

// UpdateTransaction merges the non-nil patch fields into the record with
// the given id. ID and CreatedAt are never altered.
func (l *Ledger) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	l.mu.Lock()
	idx := -1
	for i, t := range l.transactions {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}

	t := &l.transactions[idx]
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		t.CategoryID = *patch.CategoryID
	}
	if patch.Subcategory != nil {
		t.Subcategory = *patch.Subcategory
	}
	if patch.PaymentMethod != nil {
		t.PaymentMethod = *patch.PaymentMethod
	}
	if patch.Tags != nil {
		t.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	updated := t.Clone()
	l.mu.Unlock()

	if err := l.store.PutTransaction(ctx, updated); err != nil {
		return updated, fmt.Errorf("save transaction: %w", err)
	}
	return updated, nil
}

// DeleteTransaction removes the record with the given id. Deleting an
// absent id is a no-op, so the operation is idempotent.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	l.mu.Lock()
	found := false
	kept := l.transactions[:0]
	for _, t := range l.transactions {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	l.transactions = kept
	l.mu.Unlock()

	if !found {
		slog.DebugContext(ctx, "Delete of unknown transaction ignored", "id", id)
		return nil
	}
	if err := l.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// Transaction looks up a record by id.
func (l *Ledger) Transaction(id string) (core.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.transactions {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return core.Transaction{}, false
}

// AddCategory validates the draft, assigns an id and appends the
// category.
func (l *Ledger) AddCategory(ctx context.Context, draft core.CategoryDraft) (core.Category, error) {
	if err := draft.Validate(); err != nil {
		return core.Category{}, err
	}

	l.mu.Lock()
	c := core.Category{
		ID:    l.newID(),
		Name:  draft.Name,
		Color: draft.Color,
	}
	l.categories = append(l.categories, c)
	l.mu.Unlock()

	if err := l.store.PutCategory(ctx, c); err != nil {
		return c, fmt.Errorf("save category: %w", err)
	}
	return c, nil
}

// UpdateCategory merges the non-nil patch fields into the category with
// the given id.
func (l *Ledger) UpdateCategory(ctx context.Context, id string, patch core.CategoryPatch) (core.Category, error) {
	l.mu.Lock()
	idx := -1
	for i, c := range l.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}

	c := &l.categories[idx]
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	updated := *c
	l.mu.Unlock()

	if err := l.store.PutCategory(ctx, updated); err != nil {
		return updated, fmt.Errorf("save category: %w", err)
	}
	return updated, nil
}

// DeleteCategory removes the category. Transactions and budgets that
// reference it keep their category_id; readers tolerate the missing
// lookup.
func (l *Ledger) DeleteCategory(ctx context.Context, id string) error {
	l.mu.Lock()
	found := false
	kept := l.categories[:0]
	for _, c := range l.categories {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	l.categories = kept
	l.mu.Unlock()

	if !found {
		slog.DebugContext(ctx, "Delete of unknown category ignored", "id", id)
		return nil
	}
	if err := l.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// Category looks up a category by id.
func (l *Ledger) Category(id string) (core.Category, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.categories {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

// SetBudget is an idempotent upsert keyed by (category, month): an
// existing budget for the pair has its amount replaced in place,
// otherwise a new one is created.
func (l *Ledger) SetBudget(ctx context.Context, categoryID string, amount core.Money, month core.Month) (core.Budget, error) {
	if categoryID == "" {
		return core.Budget{}, core.ErrEmptyCategory
	}
	if amount.Cents <= 0 {
		return core.Budget{}, core.ErrInvalidAmount
	}
	if err := month.Validate(); err != nil {
		return core.Budget{}, err
	}

	l.mu.Lock()
	var b core.Budget
	updated := false
	for i, existing := range l.budgets {
		if existing.CategoryID == categoryID && existing.Month == month {
			l.budgets[i].Amount = amount
			b = l.budgets[i]
			updated = true
			break
		}
	}
	if !updated {
		b = core.Budget{
			ID:         l.newID(),
			CategoryID: categoryID,
			Amount:     amount,
			Month:      month,
		}
		l.budgets = append(l.budgets, b)
	}
	l.mu.Unlock()

	if err := l.store.PutBudget(ctx, b); err != nil {
		return b, fmt.Errorf("save budget: %w", err)
	}
	return b, nil
}

// Budget looks up the budget in effect for a category and month.
func (l *Ledger) Budget(categoryID string, month core.Month) (core.Budget, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.budgets {
		if b.CategoryID == categoryID && b.Month == month {
			return b, true
		}
	}
	return core.Budget{}, false
}

// ReplaceCollections wholesale-replaces the collections whose pointer is
// non-nil and triggers one full persistence write. A nil pointer leaves
// that collection untouched. This is the import path; it never merges.
func (l *Ledger) ReplaceCollections(ctx context.Context, transactions *[]core.Transaction, categories *[]core.Category, budgets *[]core.Budget) error {
	l.mu.Lock()
	if transactions != nil {
		l.transactions = append([]core.Transaction(nil), (*transactions)...)
	}
	if categories != nil {
		l.categories = append([]core.Category(nil), (*categories)...)
	}
	if budgets != nil {
		l.budgets = append([]core.Budget(nil), (*budgets)...)
	}
	snap := core.Snapshot{
		Transactions: l.transactions,
		Categories:   l.categories,
		Budgets:      l.budgets,
	}.Clone()
	l.mu.Unlock()

	if err := l.store.ReplaceAll(ctx, snap); err != nil {
		return fmt.Errorf("save imported ledger: %w", err)
	}
	return nil
}
