// Package impexp converts the full ledger to and from a portable,
// human-inspectable JSON document for backup and transfer.
package impexp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gastos/internal/core"
	"gastos/internal/ledger"
)

// Document is the export format: the three collections verbatim plus an
// export timestamp. A nil collection means the document does not carry
// it; on import that collection is left untouched rather than cleared.
type Document struct {
	Transactions []core.Transaction `json:"transactions,omitempty"`
	Categories   []core.Category    `json:"categories,omitempty"`
	Budgets      []core.Budget      `json:"budgets,omitempty"`
	ExportedAt   time.Time          `json:"exportedAt"`
}

// Export builds a document from the snapshot. Pure read; the ledger is
// untouched.
func Export(snap core.Snapshot, now time.Time) Document {
	return Document{
		Transactions: snap.Transactions,
		Categories:   snap.Categories,
		Budgets:      snap.Budgets,
		ExportedAt:   now.UTC(),
	}
}

// MarshalIndent renders the document for download.
func (d Document) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export document: %w", err)
	}
	return data, nil
}

// FileName returns the dated download name, e.g. "gastos-2025-06-15.json".
func FileName(now time.Time) string {
	return "gastos-" + now.UTC().Format(core.DateFormat) + ".json"
}

// Parse validates a document structurally. Any malformed entity rejects
// the whole document: a rejected import must not partially apply.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse import document: %w", err)
	}
	for i, t := range doc.Transactions {
		if t.ID == "" {
			return Document{}, fmt.Errorf("transaction %d: missing id", i)
		}
		if err := t.Date.Validate(); err != nil {
			return Document{}, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
	}
	for i, c := range doc.Categories {
		if c.ID == "" {
			return Document{}, fmt.Errorf("category %d: missing id", i)
		}
		if c.Name == "" {
			return Document{}, fmt.Errorf("category %s: %w", c.ID, core.ErrEmptyName)
		}
	}
	for i, b := range doc.Budgets {
		if b.ID == "" {
			return Document{}, fmt.Errorf("budget %d: missing id", i)
		}
		if b.CategoryID == "" {
			return Document{}, fmt.Errorf("budget %s: %w", b.ID, core.ErrEmptyCategory)
		}
		if err := b.Month.Validate(); err != nil {
			return Document{}, fmt.Errorf("budget %s: %w", b.ID, err)
		}
	}
	return doc, nil
}

// Apply wholesale-replaces the ledger collections present in the
// document and triggers a full persistence write. Collections absent
// from the document are left untouched. No merging, no deduplication:
// import is a deliberate overwrite.
func Apply(ctx context.Context, l *ledger.Ledger, doc Document) error {
	var (
		transactions *[]core.Transaction
		categories   *[]core.Category
		budgets      *[]core.Budget
	)
	if doc.Transactions != nil {
		transactions = &doc.Transactions
	}
	if doc.Categories != nil {
		categories = &doc.Categories
	}
	if doc.Budgets != nil {
		budgets = &doc.Budgets
	}
	if err := l.ReplaceCollections(ctx, transactions, categories, budgets); err != nil {
		return fmt.Errorf("apply import: %w", err)
	}
	return nil
}
