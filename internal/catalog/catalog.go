// Package catalog держит в памяти коллекции политик по реалмам для read-only списка консоли.
// Запись идет только через мастер (clientpolicy.Workflow); каталог лишь забывает реалм,
// когда по Redis приходит сигнал об обновлении, и перечитывает его при следующем запросе.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/xela07ax/clientpolicy-console/internal/clientpolicy"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
	"go.uber.org/zap"
)

type entry struct {
	policies domain.PolicyCollection
	loadedAt time.Time
}

// Catalog потокобезопасный кэш "реалм -> коллекция".
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	gw     clientpolicy.Gateway
	logger *zap.Logger
	now    func() time.Time
}

// New ttl <= 0 означает "держать до сигнала инвалидации".
func New(gw clientpolicy.Gateway, ttl time.Duration, logger *zap.Logger) *Catalog {
	return &Catalog{
		entries: make(map[string]entry),
		ttl:     ttl,
		gw:      gw,
		logger:  logger.Named("catalog"),
		now:     time.Now,
	}
}

// List отдает копию коллекции реалма, при промахе читает ее из хранилища.
func (c *Catalog) List(ctx context.Context, realm string) (domain.PolicyCollection, error) {
	c.mu.RLock()
	e, ok := c.entries[realm]
	c.mu.RUnlock()
	if ok && !c.expired(e) {
		return e.policies.Clone(), nil
	}
	// Отдаем то, что прочитали сами: запись в кэше могла уже исчезнуть по сигналу
	return c.load(ctx, realm)
}

// Refresh перечитывает реалм из хранилища. При ошибке прежняя запись не трогается.
func (c *Catalog) Refresh(ctx context.Context, realm string) error {
	_, err := c.load(ctx, realm)
	return err
}

func (c *Catalog) load(ctx context.Context, realm string) (domain.PolicyCollection, error) {
	policies, err := c.gw.ListPolicies(ctx, realm)
	if err != nil {
		return nil, &domain.FetchError{Realm: realm, Cause: err}
	}
	if policies == nil {
		policies = domain.PolicyCollection{}
	}

	c.mu.Lock()
	c.entries[realm] = entry{policies: policies.Clone(), loadedAt: c.now()}
	c.mu.Unlock()

	c.logger.Debug("realm refreshed", zap.String("realm", realm), zap.Int("count", len(policies)))
	return policies.Clone(), nil
}

// Invalidate забывает реалм.
func (c *Catalog) Invalidate(realm string) {
	c.mu.Lock()
	delete(c.entries, realm)
	c.mu.Unlock()
}

// InvalidateAll сбрасывает весь кэш (после переподключения к Redis сигналы могли потеряться).
func (c *Catalog) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	c.logger.Info("catalog reset")
}

// Realms реалмы, лежащие в кэше сейчас.
func (c *Catalog) Realms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for realm := range c.entries {
		out = append(out, realm)
	}
	return out
}

func (c *Catalog) expired(e entry) bool {
	return c.ttl > 0 && c.now().Sub(e.loadedAt) > c.ttl
}
