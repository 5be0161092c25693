package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
)

type PolicyLister interface {
	List(ctx context.Context, realm string, refresh bool) (domain.PolicyCollection, error)
}

type PolicyHandler struct {
	service PolicyLister
}

func NewPolicyHandler(s PolicyLister) *PolicyHandler {
	return &PolicyHandler{service: s}
}

// List список клиентских политик реалма.
// GET /v1/realms/{realm}/client-policies?refresh=true
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	realm := chi.URLParam(r, "realm")
	refresh := r.URL.Query().Get("refresh") == "true"

	policies, err := h.service.List(r.Context(), realm, refresh)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.PolicyDocument{Policies: policies})
}
