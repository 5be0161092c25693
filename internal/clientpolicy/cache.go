package clientpolicy

import (
	"context"
	"sync"

	"github.com/xela07ax/clientpolicy-console/internal/domain"
	"go.uber.org/zap"
)

// Cache зеркало последней загруженной коллекции реалма. Основа для read-modify-write.
// Фонового обновления нет: кэш устаревает, пока его явно не перезагрузят.
type Cache struct {
	mu         sync.RWMutex
	collection domain.PolicyCollection
	loaded     bool

	realm  string
	gw     Gateway
	logger *zap.Logger
}

func NewCache(realm string, gw Gateway, logger *zap.Logger) *Cache {
	return &Cache{
		collection: domain.PolicyCollection{},
		realm:      realm,
		gw:         gw,
		logger:     logger.Named("policy-cache"),
	}
}

// Load выполняет полную загрузку коллекции. При ошибке прежнее значение не трогаем.
func (c *Cache) Load(ctx context.Context) error {
	policies, err := c.gw.ListPolicies(ctx, c.realm)
	if err != nil {
		return &domain.FetchError{Realm: c.realm, Cause: err}
	}

	next := policies.Clone()

	c.mu.Lock()
	c.collection = next
	c.loaded = true
	c.mu.Unlock()

	c.logger.Debug("client policies loaded", zap.String("realm", c.realm), zap.Int("count", len(next)))
	return nil
}

// Current копия последней загруженной (или записанной) коллекции.
func (c *Cache) Current() domain.PolicyCollection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collection.Clone()
}

func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Cache) Realm() string { return c.realm }

// commit вызывается строго после успешного ответа шлюза.
func (c *Cache) commit(next domain.PolicyCollection) {
	snapshot := next.Clone()
	c.mu.Lock()
	c.collection = snapshot
	c.mu.Unlock()
}
