package http

import (
	"io"
	"net/http"

	"gastos/internal/impexp"
	"gastos/internal/log"
)

// maxImportBytes caps import payloads. A year of heavy use exports to a
// few hundred kilobytes, so 10 MiB leaves plenty of headroom.
const maxImportBytes = 10 << 20

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	doc := impexp.Export(s.ledger.Snapshot(), now)

	data, err := doc.MarshalIndent()
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export encoding failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+impexp.FileName(now)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed reading request body")
		return
	}
	if len(body) > maxImportBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "import document too large")
		return
	}

	doc, err := impexp.Parse(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid document: "+err.Error())
		return
	}

	if err := impexp.Apply(r.Context(), s.ledger, doc); err != nil {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Import persistence failed", err, log.ComponentImpexp, log.OpImport, log.NewFields())
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.invalidateDashboards()

	writeJSON(w, http.StatusOK, map[string]int{
		"transactions": len(doc.Transactions),
		"categories":   len(doc.Categories),
		"budgets":      len(doc.Budgets),
	})
}
