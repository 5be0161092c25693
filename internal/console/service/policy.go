package service

import (
	"context"

	"github.com/xela07ax/clientpolicy-console/internal/domain"
)

// PolicyCatalog read-only источник списка политик реалма.
type PolicyCatalog interface {
	List(ctx context.Context, realm string) (domain.PolicyCollection, error)
	Refresh(ctx context.Context, realm string) error
}

// PolicyService список клиентских политик для экрана реалма (цель навигации мастера).
type PolicyService struct {
	catalog PolicyCatalog
}

func NewPolicyService(catalog PolicyCatalog) *PolicyService {
	return &PolicyService{catalog: catalog}
}

// List refresh=true принудительно перечитывает реалм в обход кэша.
func (s *PolicyService) List(ctx context.Context, realm string, refresh bool) (domain.PolicyCollection, error) {
	if refresh {
		if err := s.catalog.Refresh(ctx, realm); err != nil {
			return nil, err
		}
	}
	return s.catalog.List(ctx, realm)
}
