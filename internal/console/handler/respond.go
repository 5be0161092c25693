package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/clientpolicy-console/internal/console/service"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
)

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusOf переводит доменные ошибки в HTTP статус.
func statusOf(err error) int {
	var (
		verr *domain.ValidationError
		perr *domain.PersistError
		ferr *domain.FetchError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, domain.ErrUnmounted):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNoCurrentPolicy), errors.Is(err, domain.ErrDuplicateName):
		return http.StatusConflict
	case errors.As(err, &perr), errors.As(err, &ferr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), ErrorResponse{Error: err.Error(), Fields: validationFields(err)})
}

func validationFields(err error) map[string]string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
