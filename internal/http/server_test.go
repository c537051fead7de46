package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gastos/internal/core"
	"gastos/internal/ledger"
	"gastos/internal/log"
	"gastos/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	st, err := store.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	l, err := ledger.New(context.Background(), st, true)
	if err != nil {
		t.Fatalf("ledger.New() error = %v", err)
	}

	s := NewServer(":0", l, log.NewDiscard(), time.Minute, 60)
	s.now = func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func doJSON(t *testing.T, s *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(w, r)
	return w
}

func TestHandleCreateTransaction(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/transactions",
		`{"amount":"50.00","description":"Almoço","category_id":"1","payment_method":"pix","tags":["trabalho"],"date":"2025-06-10"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp transactionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == "" {
		t.Error("response transaction has empty id")
	}
	if resp.Amount.Cents != 5000 {
		t.Errorf("amount = %d cents, want 5000", resp.Amount.Cents)
	}
	if resp.Warning != "" {
		t.Errorf("unexpected warning %q", resp.Warning)
	}

	list := doJSON(t, s, http.MethodGet, "/api/transactions?month=2025-06", "")
	if list.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", list.Code, http.StatusOK)
	}
	var txs []core.Transaction
	if err := json.Unmarshal(list.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != resp.ID {
		t.Errorf("list = %+v, want the created transaction", txs)
	}
}

func TestHandleCreateTransaction_Invalid(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"unknown field", `{"amount":"1.00","descriptionn":"x"}`, http.StatusBadRequest},
		{"zero amount", `{"amount":"0","description":"x","category_id":"1","date":"2025-06-10"}`, http.StatusUnprocessableEntity},
		{"empty description", `{"amount":"1.00","description":"","category_id":"1","date":"2025-06-10"}`, http.StatusUnprocessableEntity},
		{"missing category", `{"amount":"1.00","description":"x","date":"2025-06-10"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/transactions", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d, body %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHandleUpdateTransaction_NotFound(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPut, "/api/transactions/missing", `{"description":"novo"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandleDeleteTransaction_MissingIsNoOp(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodDelete, "/api/transactions/missing", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestHandleListCategories_Seeded(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/categories", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var cats []core.Category
	if err := json.Unmarshal(w.Body.Bytes(), &cats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cats) != 7 {
		t.Errorf("seeded categories = %d, want 7", len(cats))
	}
}

func TestHandleSetBudgetAndStatuses(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPut, "/api/budgets",
		`{"category_id":"2","amount":"200.00","month":"2025-06"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set budget status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
	}

	create := doJSON(t, s, http.MethodPost, "/api/transactions",
		`{"amount":"250.00","description":"Combustível","category_id":"2","payment_method":"card","date":"2025-06-05"}`)
	if create.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", create.Code, create.Body.String())
	}

	get := doJSON(t, s, http.MethodGet, "/api/budgets?month=2025-06", "")
	if get.Code != http.StatusOK {
		t.Fatalf("statuses status = %d", get.Code)
	}

	var statuses []struct {
		CategoryID string     `json:"category_id"`
		Spent      core.Money `json:"spent"`
		OverBudget bool       `json:"over_budget"`
		Remaining  core.Money `json:"remaining"`
	}
	if err := json.Unmarshal(get.Body.Bytes(), &statuses); err != nil {
		t.Fatalf("decode statuses: %v", err)
	}
	found := false
	for _, st := range statuses {
		if st.CategoryID != "2" {
			continue
		}
		found = true
		if st.Spent.Cents != 25000 {
			t.Errorf("spent = %d cents, want 25000", st.Spent.Cents)
		}
		if !st.OverBudget {
			t.Error("over_budget = false, want true")
		}
		if st.Remaining.Cents != -5000 {
			t.Errorf("remaining = %d cents, want -5000", st.Remaining.Cents)
		}
	}
	if !found {
		t.Fatalf("no status row for category 2 in %s", get.Body.String())
	}
}

func TestHandleDashboard_CacheInvalidatedOnMutation(t *testing.T) {
	s := newTestServer(t)

	first := doJSON(t, s, http.MethodGet, "/api/dashboard?month=2025-06", "")
	if first.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", first.Code)
	}
	var before dashboardResponse
	if err := json.Unmarshal(first.Body.Bytes(), &before); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if before.Overview.Total.Cents != 0 {
		t.Errorf("empty ledger total = %d, want 0", before.Overview.Total.Cents)
	}

	create := doJSON(t, s, http.MethodPost, "/api/transactions",
		`{"amount":"10.00","description":"Café","category_id":"1","payment_method":"cash","date":"2025-06-15"}`)
	if create.Code != http.StatusCreated {
		t.Fatalf("create status = %d", create.Code)
	}

	second := doJSON(t, s, http.MethodGet, "/api/dashboard?month=2025-06", "")
	var after dashboardResponse
	if err := json.Unmarshal(second.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if after.Overview.Total.Cents != 1000 {
		t.Errorf("total after mutation = %d cents, want 1000 (stale cache?)", after.Overview.Total.Cents)
	}
	if len(after.DailySeries) != 30 {
		t.Errorf("daily series length = %d, want 30 for June", len(after.DailySeries))
	}
}

func TestHandleDashboard_InvalidMonth(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/dashboard?month=junho", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleExportImportRoundTrip(t *testing.T) {
	s := newTestServer(t)

	create := doJSON(t, s, http.MethodPost, "/api/transactions",
		`{"amount":"33.50","description":"Mercado","category_id":"6","payment_method":"card","date":"2025-06-02"}`)
	if create.Code != http.StatusCreated {
		t.Fatalf("create status = %d", create.Code)
	}

	export := doJSON(t, s, http.MethodGet, "/api/export", "")
	if export.Code != http.StatusOK {
		t.Fatalf("export status = %d", export.Code)
	}
	disposition := export.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, `filename="gastos-2025-06-15.json"`) {
		t.Errorf("Content-Disposition = %q, want dated filename", disposition)
	}

	// A fresh server imports the exported document and ends up with the
	// same collections.
	other := newTestServer(t)
	imported := doJSON(t, other, http.MethodPost, "/api/import", export.Body.String())
	if imported.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", imported.Code, imported.Body.String())
	}

	list := doJSON(t, other, http.MethodGet, "/api/transactions", "")
	var txs []core.Transaction
	if err := json.Unmarshal(list.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(txs) != 1 || txs[0].Description != "Mercado" {
		t.Errorf("imported transactions = %+v, want the exported one", txs)
	}
}

func TestHandleImport_RejectsMalformedDocument(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/import",
		`{"transactions":[{"id":"","amount":"1.00","description":"x","category_id":"1","date":"2025-06-01"}]}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	list := doJSON(t, s, http.MethodGet, "/api/transactions", "")
	if body := strings.TrimSpace(list.Body.String()); body != "[]" {
		t.Errorf("transactions after rejected import = %s, want []", body)
	}
}

func TestRateLimitOnMutatingMethods(t *testing.T) {
	s := newTestServer(t)

	var lastCode int
	for i := 0; i < 61; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewReader([]byte(`{`)))
		r.RemoteAddr = "203.0.113.9:1234"
		w := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(w, r)
		lastCode = w.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Errorf("61st request status = %d, want %d", lastCode, http.StatusTooManyRequests)
	}

	// Reads are never rate limited.
	r := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	r.RemoteAddr = "203.0.113.9:1234"
	w := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("read after limit status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRateLimitHonorsConfiguredLimit(t *testing.T) {
	st, err := store.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	l, err := ledger.New(context.Background(), st, true)
	if err != nil {
		t.Fatalf("ledger.New() error = %v", err)
	}
	s := NewServer(":0", l, log.NewDiscard(), time.Minute, 2)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	var lastCode int
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewReader([]byte(`{`)))
		r.RemoteAddr = "203.0.113.9:1234"
		w := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(w, r)
		lastCode = w.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Errorf("3rd request status = %d, want %d with a limit of 2", lastCode, http.StatusTooManyRequests)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		w := doJSON(t, s, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, w.Code, http.StatusOK)
		}
	}
}

func TestHandleBudgetStatuses_DefaultsToCurrentMonth(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"category_id":"1","amount":"100.00","month":"2025-06"}`,
		`{"category_id":"2","amount":"300.00","month":"2025-07"}`,
	} {
		if w := doJSON(t, s, http.MethodPut, "/api/budgets", body); w.Code != http.StatusOK {
			t.Fatalf("set budget status = %d, body %s", w.Code, w.Body.String())
		}
	}

	// No month parameter: the server falls back to its clock, which the
	// fixture pins to June 2025.
	get := doJSON(t, s, http.MethodGet, "/api/budgets", "")
	if get.Code != http.StatusOK {
		t.Fatalf("statuses status = %d, body %s", get.Code, get.Body.String())
	}

	var statuses []struct {
		CategoryID string `json:"category_id"`
	}
	if err := json.Unmarshal(get.Body.Bytes(), &statuses); err != nil {
		t.Fatalf("decode statuses: %v", err)
	}
	if len(statuses) != 1 || statuses[0].CategoryID != "1" {
		t.Fatalf("statuses = %s, want only the June budget for category 1", get.Body.String())
	}
}
