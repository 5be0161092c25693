package service

import (
	"context"
	"fmt"

	"github.com/xela07ax/clientpolicy-console/internal/audit"
)

// AuditLogProvider чтение журнала. Модель та же, что пишет audit.Journal.
type AuditLogProvider interface {
	FetchLogs(ctx context.Context, realm, policy string, limit int) ([]audit.Event, error)
}

type AuditService struct {
	repo AuditLogProvider
}

func NewAuditService(repo AuditLogProvider) *AuditService {
	return &AuditService{repo: repo}
}

// FetchLogs последние события реалма; пустой policy: по всем политикам.
func (s *AuditService) FetchLogs(ctx context.Context, realm, policy string, limit int) ([]audit.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	logs, err := s.repo.FetchLogs(ctx, realm, policy, limit)
	if err != nil {
		return nil, fmt.Errorf("audit_service: failed to fetch logs: %w", err)
	}
	return logs, nil
}
