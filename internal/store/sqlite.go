package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gastos/internal/core"

	_ "modernc.org/sqlite"
)

// RecordStore is the registered-session backend: per-record tables in
// SQLite, every row scoped by the owning user's identity. Each ledger
// mutation maps 1:1 to one create/update/delete here instead of a full
// snapshot rewrite.
type RecordStore struct {
	db     *sql.DB
	userID string
}

// NewRecordStore opens (creating if needed) the database at dbPath, runs
// migrations and returns a store scoped to the given user id.
func NewRecordStore(dbPath, userID string) (*RecordStore, error) {
	if userID == "" {
		return nil, fmt.Errorf("record store requires a user id")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &RecordStore{db: db, userID: userID}, nil
}

func (s *RecordStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *RecordStore) Load(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount_cents, description, category_id, subcategory, payment_method, tags, tx_date, created_at
		 FROM transactions WHERE user_id = ? ORDER BY tx_date, created_at`, s.userID)
	if err != nil {
		return snap, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t            core.Transaction
			cents        int64
			tags, txDate string
			createdAt    string
		)
		if err := rows.Scan(&t.ID, &cents, &t.Description, &t.CategoryID, &t.Subcategory,
			&t.PaymentMethod, &tags, &txDate, &createdAt); err != nil {
			return snap, fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount = core.Money{Cents: cents}
		if t.Date, err = core.ParseDate(txDate); err != nil {
			return snap, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return snap, fmt.Errorf("transaction %s created_at: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			slog.WarnContext(ctx, "Unreadable tags column, dropping", "id", t.ID, "error", err)
			t.Tags = nil
		}
		snap.Transactions = append(snap.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate transactions: %w", err)
	}

	catRows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color FROM categories WHERE user_id = ? ORDER BY name`, s.userID)
	if err != nil {
		return snap, fmt.Errorf("load categories: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var c core.Category
		if err := catRows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return snap, fmt.Errorf("scan category: %w", err)
		}
		snap.Categories = append(snap.Categories, c)
	}
	if err := catRows.Err(); err != nil {
		return snap, fmt.Errorf("iterate categories: %w", err)
	}

	budRows, err := s.db.QueryContext(ctx,
		`SELECT id, category_id, amount_cents, month FROM budgets WHERE user_id = ? ORDER BY month`, s.userID)
	if err != nil {
		return snap, fmt.Errorf("load budgets: %w", err)
	}
	defer budRows.Close()
	for budRows.Next() {
		var (
			b     core.Budget
			cents int64
			month string
		)
		if err := budRows.Scan(&b.ID, &b.CategoryID, &cents, &month); err != nil {
			return snap, fmt.Errorf("scan budget: %w", err)
		}
		b.Amount = core.Money{Cents: cents}
		if b.Month, err = core.ParseMonth(month); err != nil {
			return snap, fmt.Errorf("budget %s: %w", b.ID, err)
		}
		snap.Budgets = append(snap.Budgets, b)
	}
	if err := budRows.Err(); err != nil {
		return snap, fmt.Errorf("iterate budgets: %w", err)
	}

	return snap, nil
}

func (s *RecordStore) PutTransaction(ctx context.Context, t core.Transaction) error {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, amount_cents, description, category_id, subcategory, payment_method, tags, tx_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, id) DO UPDATE SET
		   amount_cents = excluded.amount_cents,
		   description = excluded.description,
		   category_id = excluded.category_id,
		   subcategory = excluded.subcategory,
		   payment_method = excluded.payment_method,
		   tags = excluded.tags,
		   tx_date = excluded.tx_date`,
		t.ID, s.userID, t.Amount.Cents, t.Description, t.CategoryID, t.Subcategory,
		t.PaymentMethod, string(encoded), t.Date.String(), t.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put transaction: %w", err)
	}
	return nil
}

func (s *RecordStore) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`, s.userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *RecordStore) PutCategory(ctx context.Context, c core.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, color) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, id) DO UPDATE SET name = excluded.name, color = excluded.color`,
		c.ID, s.userID, c.Name, c.Color)
	if err != nil {
		return fmt.Errorf("put category: %w", err)
	}
	return nil
}

func (s *RecordStore) DeleteCategory(ctx context.Context, id string) error {
	// Dependent transactions and budgets keep their category_id; orphaned
	// references are tolerated by the readers.
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND id = ?`, s.userID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *RecordStore) PutBudget(ctx context.Context, b core.Budget) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, category_id, amount_cents, month) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, category_id, month) DO UPDATE SET amount_cents = excluded.amount_cents`,
		b.ID, s.userID, b.CategoryID, b.Amount.Cents, b.Month.String())
	if err != nil {
		return fmt.Errorf("put budget: %w", err)
	}
	return nil
}

func (s *RecordStore) ReplaceAll(ctx context.Context, snap core.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "categories", "budgets"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ?`, s.userID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for _, t := range snap.Transactions {
		tags := t.Tags
		if tags == nil {
			tags = []string{}
		}
		encoded, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, user_id, amount_cents, description, category_id, subcategory, payment_method, tags, tx_date, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, s.userID, t.Amount.Cents, t.Description, t.CategoryID, t.Subcategory,
			t.PaymentMethod, string(encoded), t.Date.String(), t.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	for _, c := range snap.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, user_id, name, color) VALUES (?, ?, ?, ?)`,
			c.ID, s.userID, c.Name, c.Color); err != nil {
			return fmt.Errorf("insert category %s: %w", c.ID, err)
		}
	}
	for _, b := range snap.Budgets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, user_id, category_id, amount_cents, month) VALUES (?, ?, ?, ?, ?)`,
			b.ID, s.userID, b.CategoryID, b.Amount.Cents, b.Month.String()); err != nil {
			return fmt.Errorf("insert budget %s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}
