package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrNotFound         = errors.New("not found")
)

type (
	// Category is a user-defined spending bucket. Its id is an opaque
	// unique string; transactions reference it without enforcement, so a
	// lookup by CategoryID may miss after a category is deleted.
	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	// Transaction is a single recorded spend. ID and CreatedAt are
	// assigned once at creation and never altered by updates.
	Transaction struct {
		ID            string    `json:"id"`
		Amount        Money     `json:"amount"`
		Description   string    `json:"description"`
		CategoryID    string    `json:"category_id"`
		Subcategory   string    `json:"subcategory,omitempty"`
		PaymentMethod string    `json:"payment_method"`
		Tags          []string  `json:"tags"`
		Date          Date      `json:"date"`
		CreatedAt     time.Time `json:"created_at"`
	}

	// Budget is a positive monthly ceiling for one category. At most one
	// budget exists per (category, month) pair; absence means "no limit".
	Budget struct {
		ID         string `json:"id"`
		CategoryID string `json:"category_id"`
		Amount     Money  `json:"amount"`
		Month      Month  `json:"month"`
	}

	// Snapshot is a complete point-in-time copy of the ledger's three
	// collections.
	Snapshot struct {
		Transactions []Transaction `json:"transactions"`
		Categories   []Category    `json:"categories"`
		Budgets      []Budget      `json:"budgets"`
	}
)

// CategoryDraft carries the caller-supplied fields of a new category.
type CategoryDraft struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Validate checks the draft's required fields.
func (d CategoryDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// TransactionDraft carries the caller-supplied fields of a new
// transaction. ID and CreatedAt are assigned by the ledger.
type TransactionDraft struct {
	Amount        Money    `json:"amount"`
	Description   string   `json:"description"`
	CategoryID    string   `json:"category_id"`
	Subcategory   string   `json:"subcategory,omitempty"`
	PaymentMethod string   `json:"payment_method"`
	Tags          []string `json:"tags"`
	Date          Date     `json:"date"`
}

// Validate checks the draft's required fields before any mutation is
// attempted.
func (d TransactionDraft) Validate() error {
	if d.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if len(d.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(d.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return d.Date.Validate()
}

// CategoryPatch is a partial category update. Nil fields are left
// untouched.
type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// TransactionPatch is a partial transaction update. Nil fields are left
// untouched; id and created_at are not patchable.
type TransactionPatch struct {
	Amount        *Money    `json:"amount,omitempty"`
	Description   *string   `json:"description,omitempty"`
	CategoryID    *string   `json:"category_id,omitempty"`
	Subcategory   *string   `json:"subcategory,omitempty"`
	PaymentMethod *string   `json:"payment_method,omitempty"`
	Tags          *[]string `json:"tags,omitempty"`
	Date          *Date     `json:"date,omitempty"`
}

// Clone returns a deep copy of the transaction.
func (t Transaction) Clone() Transaction {
	out := t
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	return out
}

// Clone returns a deep copy of the snapshot, safe to hand to readers
// while the ledger keeps mutating.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Transactions: make([]Transaction, len(s.Transactions)),
		Categories:   append([]Category(nil), s.Categories...),
		Budgets:      append([]Budget(nil), s.Budgets...),
	}
	for i, t := range s.Transactions {
		out.Transactions[i] = t.Clone()
	}
	return out
}

// CategoryByID returns the category with the given id, if present.
func (s Snapshot) CategoryByID(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
