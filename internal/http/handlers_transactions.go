package http

import (
	"net/http"

	"gastos/internal/core"
	"gastos/internal/log"
)

// transactionResponse wraps a transaction with an optional persistence
// warning: the in-memory mutation stands even when the store write
// failed, and the caller is told about it instead of being rolled back.
type transactionResponse struct {
	core.Transaction
	Warning string `json:"warning,omitempty"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var draft core.TransactionDraft
	if err := decodeBody(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tx, err := s.ledger.AddTransaction(r.Context(), draft)
	if err != nil && tx.ID == "" {
		writeLedgerError(w, err)
		return
	}
	s.invalidateDashboards()

	resp := transactionResponse{Transaction: tx}
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Transaction saved in memory only", "id", tx.ID, "error", err)
		resp.Warning = err.Error()
	} else {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogTransactionCreated(r.Context(), tx.Description, tx.Amount.Cents, tx.CategoryID)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch core.TransactionPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tx, err := s.ledger.UpdateTransaction(r.Context(), id, patch)
	if err != nil && tx.ID == "" {
		writeLedgerError(w, err)
		return
	}
	s.invalidateDashboards()

	resp := transactionResponse{Transaction: tx}
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Transaction updated in memory only", "id", tx.ID, "error", err)
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeLedgerError(w, err)
		return
	}
	s.invalidateDashboards()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot()

	txs := snap.Transactions
	if monthParam := r.URL.Query().Get("month"); monthParam != "" {
		month, err := core.ParseMonth(monthParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
			return
		}
		filtered := make([]core.Transaction, 0, len(txs))
		for _, tx := range txs {
			if tx.Date.In(month) {
				filtered = append(filtered, tx)
			}
		}
		txs = filtered
	}
	if txs == nil {
		txs = []core.Transaction{}
	}

	writeJSON(w, http.StatusOK, txs)
}
