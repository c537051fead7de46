package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionDraftValidate(t *testing.T) {
	valid := TransactionDraft{
		Amount:        Money{Cents: 5000},
		Description:   "Mercado",
		CategoryID:    "1",
		PaymentMethod: "card",
		Date:          NewDate(2025, time.June, 15),
	}

	cases := []struct {
		name   string
		mutate func(*TransactionDraft)
		want   error
	}{
		{"valid", func(d *TransactionDraft) {}, nil},
		{"negative amount allowed", func(d *TransactionDraft) { d.Amount = Money{Cents: -100} }, nil},
		{"zero amount", func(d *TransactionDraft) { d.Amount = Money{} }, ErrInvalidAmount},
		{"empty description", func(d *TransactionDraft) { d.Description = "  " }, ErrEmptyDescription},
		{"empty category", func(d *TransactionDraft) { d.CategoryID = "" }, ErrEmptyCategory},
		{"zero date", func(d *TransactionDraft) { d.Date = Date{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := valid
			tc.mutate(&d)
			err := d.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCategoryDraftValidate(t *testing.T) {
	if err := (CategoryDraft{Name: "Pets", Color: "#000000"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (CategoryDraft{Color: "#000000"}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestSnapshotClone(t *testing.T) {
	snap := Snapshot{
		Transactions: []Transaction{{ID: "t1", Tags: []string{"a"}}},
		Categories:   []Category{{ID: "c1", Name: "Casa"}},
		Budgets:      []Budget{{ID: "b1", CategoryID: "c1"}},
	}
	clone := snap.Clone()
	clone.Transactions[0].Tags[0] = "changed"
	clone.Categories[0].Name = "changed"
	if snap.Transactions[0].Tags[0] != "a" {
		t.Fatal("clone shares tag storage with the original")
	}
	if snap.Categories[0].Name != "Casa" {
		t.Fatal("clone shares category storage with the original")
	}
}

func TestDefaultCategories(t *testing.T) {
	defaults := DefaultCategories()
	if len(defaults) != 7 {
		t.Fatalf("expected 7 default categories, got %d", len(defaults))
	}
	seen := map[string]bool{}
	for _, c := range defaults {
		if c.ID == "" || c.Name == "" || c.Color == "" {
			t.Fatalf("incomplete default category: %+v", c)
		}
		if seen[c.ID] {
			t.Fatalf("duplicate default category id %s", c.ID)
		}
		seen[c.ID] = true
	}
}
