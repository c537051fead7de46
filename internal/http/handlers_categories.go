package http

import (
	"net/http"

	"gastos/internal/core"
	"gastos/internal/log"
)

type categoryResponse struct {
	core.Category
	Warning string `json:"warning,omitempty"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var draft core.CategoryDraft
	if err := decodeBody(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cat, err := s.ledger.AddCategory(r.Context(), draft)
	if err != nil && cat.ID == "" {
		writeLedgerError(w, err)
		return
	}
	s.invalidateDashboards()

	resp := categoryResponse{Category: cat}
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Category saved in memory only", "id", cat.ID, "error", err)
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch core.CategoryPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cat, err := s.ledger.UpdateCategory(r.Context(), id, patch)
	if err != nil && cat.ID == "" {
		writeLedgerError(w, err)
		return
	}
	s.invalidateDashboards()

	resp := categoryResponse{Category: cat}
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Category updated in memory only", "id", cat.ID, "error", err)
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDeleteCategory removes a category. Transactions and budgets that
// reference it keep their category_id; reports simply stop resolving it.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeLedgerError(w, err)
		return
	}
	s.invalidateDashboards()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot()

	cats := snap.Categories
	if cats == nil {
		cats = []core.Category{}
	}

	writeJSON(w, http.StatusOK, cats)
}
