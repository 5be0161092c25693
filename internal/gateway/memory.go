package gateway

import (
	"context"
	"sync"

	"github.com/xela07ax/clientpolicy-console/internal/domain"
)

// MemoryStore in-memory хранилище коллекций по реалмам. Для локальной разработки и тестов.
type MemoryStore struct {
	mu     sync.RWMutex
	realms map[string]domain.PolicyCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{realms: make(map[string]domain.PolicyCollection)}
}

// Seed задает начальную коллекцию реалма.
func (s *MemoryStore) Seed(realm string, policies ...domain.ClientPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.realms[realm] = domain.PolicyCollection(policies).Clone()
}

func (s *MemoryStore) ListPolicies(_ context.Context, realm string) (domain.PolicyCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.realms[realm].Clone(), nil
}

func (s *MemoryStore) UpdatePolicies(ctx context.Context, realm string, policies domain.PolicyCollection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := policies.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.realms[realm] = next
	return nil
}
