// Package clientpolicy содержит мастер создания/удаления клиентской политики:
// кэш коллекции, черновик формы, конечный автомат и модель представления для рендерера.
package clientpolicy

import (
	"context"

	"github.com/xela07ax/clientpolicy-console/internal/domain"
)

// Gateway хранилище политик реалма. Умеет только отдать и заменить коллекцию целиком.
type Gateway interface {
	ListPolicies(ctx context.Context, realm string) (domain.PolicyCollection, error)
	UpdatePolicies(ctx context.Context, realm string, policies domain.PolicyCollection) error
}

// Severity уровень уведомления.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Alerter поверхность уведомлений. Fire-and-forget, результат не читается.
type Alerter interface {
	AddAlert(message string, severity Severity)
	AddError(messageKey string, err error)
}

// Navigator перенаправление интерфейса.
type Navigator interface {
	Navigate(path string)
}

// Outcome итог действия мастера для журнала.
type Outcome struct {
	Realm  string
	Action string // "create" | "delete"
	Policy string
	Actor  string
	Err    error
}

// Auditor журнал итогов. Вызывается после ответа шлюза.
type Auditor interface {
	Record(o Outcome)
}

type nopAlerter struct{}

func (nopAlerter) AddAlert(string, Severity) {}
func (nopAlerter) AddError(string, error)    {}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

type nopAuditor struct{}

func (nopAuditor) Record(Outcome) {}
