package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/clientpolicy-console/internal/audit"
)

type AuditReader interface {
	FetchLogs(ctx context.Context, realm, policy string, limit int) ([]audit.Event, error)
}

type AuditHandler struct {
	service AuditReader
}

func NewAuditHandler(s AuditReader) *AuditHandler {
	return &AuditHandler{service: s}
}

// GetLogs журнал действий над политиками реалма.
// GET /v1/realms/{realm}/client-policies/audit?policy=...&limit=...
func (h *AuditHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	realm := chi.URLParam(r, "realm")
	policy := r.URL.Query().Get("policy")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.service.FetchLogs(r.Context(), realm, policy, limit)
	if err != nil {
		http.Error(w, "Failed to fetch audit logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
