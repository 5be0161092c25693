package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidTransition = errors.New("invalid client policy phase transition")
	ErrBusy              = errors.New("client policy workflow has a pending gateway call")
	ErrDuplicateName     = errors.New("client policy name already exists")
	ErrUnmounted         = errors.New("client policy workflow is unmounted")
	ErrNoCurrentPolicy   = errors.New("no created client policy in workflow")
)

// ValidationError локальная ошибка формы: поле -> ключ сообщения. До шлюза дело не доходит.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// FetchError первичная загрузка коллекции не удалась. Кэш остается прежним.
type FetchError struct {
	Realm string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch client policies of realm %q: %v", e.Realm, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// PersistError запись коллекции не удалась. Ни сервер, ни локальный кэш не изменены.
type PersistError struct {
	Realm string
	Op    string // "create" | "delete"
	Cause error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s client policy in realm %q: %v", e.Op, e.Realm, e.Cause)
}

func (e *PersistError) Unwrap() error { return e.Cause }

// GatewayStatusError ответ admin API с неуспешным HTTP статусом.
type GatewayStatusError struct {
	StatusCode int
	Message    string
}

func (e *GatewayStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("admin api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("admin api returned status %d: %s", e.StatusCode, e.Message)
}

// Temporary 5xx и 429 имеет смысл повторять, остальное нет.
func (e *GatewayStatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
