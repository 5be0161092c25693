package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/clientpolicy-console/internal/clientpolicy"
	"github.com/xela07ax/clientpolicy-console/internal/console/service"
	"github.com/xela07ax/clientpolicy-console/internal/infra/auth"
	"go.uber.org/zap"
)

// SessionHandler HTTP поверхность мастера "создать клиентскую политику".
// Каждый ответ содержит представление, уведомления и редирект, если он сработал.
type SessionHandler struct {
	sessions *service.SessionManager
	logger   *zap.Logger
}

func NewSessionHandler(sessions *service.SessionManager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger.Named("session-handler")}
}

// ConfirmRequest ответ на диалог подтверждения удаления.
type ConfirmRequest struct {
	Accepted bool `json:"accepted"`
}

// Open POST /v1/realms/{realm}/client-policies/sessions
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	realm := chi.URLParam(r, "realm")
	s, err := h.sessions.Open(r.Context(), realm, actor(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// Get GET .../sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// SetFields PUT .../sessions/{id}/fields
func (h *SessionHandler) SetFields(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var f clientpolicy.Fields
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.respond(w, s, s.Workflow.SetFields(f))
}

// Submit POST .../sessions/{id}/submit. Тело (поля формы) необязательно: без него берутся текущие.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	f := s.Workflow.State().Fields
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	// Обрыв клиента не прерывает запись: иначе сессия и шлюз разойдутся. Срок ограничивает сам шлюз.
	h.respond(w, s, s.Workflow.Submit(context.WithoutCancel(r.Context()), f))
}

// Cancel POST .../sessions/{id}/cancel
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.Workflow.Cancel())
}

// RequestDelete POST .../sessions/{id}/delete
func (h *SessionHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.Workflow.RequestDelete())
}

// ConfirmDelete POST .../sessions/{id}/delete/confirm
func (h *SessionHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.respond(w, s, s.Workflow.ConfirmDelete(context.WithoutCancel(r.Context()), req.Accepted))
}

// Close DELETE .../sessions/{id}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "id"), chi.URLParam(r, "realm"), actor(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"), chi.URLParam(r, "realm"), actor(r))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s, true
}

// respond при ошибке действия возвращает ошибку вместе со снимком: уведомления не должны теряться.
func (h *SessionHandler) respond(w http.ResponseWriter, s *service.Session, err error) {
	snap := s.Snapshot()
	if err != nil {
		h.logger.Debug("session action rejected", zap.String("session", s.ID), zap.Error(err))
		resp := struct {
			ErrorResponse
			service.Snapshot
		}{Snapshot: snap}
		resp.Error = err.Error()
		if f := validationFields(err); f != nil {
			resp.Fields = f
		}
		writeJSON(w, statusOf(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// actor идентификатор пользователя из токена.
func actor(r *http.Request) string {
	if c, ok := auth.ClaimsFromContext(r.Context()); ok {
		if c.UserID != "" {
			return c.UserID
		}
		return c.Subject
	}
	return ""
}
