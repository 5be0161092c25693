package gateway

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
	"github.com/xela07ax/clientpolicy-console/internal/infra"
	"go.uber.org/zap"
)

// Store то же, что clientpolicy.Gateway; продублировано, чтобы не тянуть зависимость на пакет мастера.
type Store interface {
	ListPolicies(ctx context.Context, realm string) (domain.PolicyCollection, error)
	UpdatePolicies(ctx context.Context, realm string, policies domain.PolicyCollection) error
}

// Publisher подмножество redis.Client, нужное для сигналов.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Notifying после успешной замены коллекции шлет имя реалма в Redis.
// Все инстансы консоли, подписанные на канал, сбросят кэш списка.
type Notifying struct {
	next   Store
	pub    Publisher
	logger *zap.Logger
}

func NewNotifying(next Store, pub Publisher, logger *zap.Logger) *Notifying {
	return &Notifying{next: next, pub: pub, logger: logger.Named("policy-notify")}
}

func (n *Notifying) ListPolicies(ctx context.Context, realm string) (domain.PolicyCollection, error) {
	return n.next.ListPolicies(ctx, realm)
}

// UpdatePolicies сигнал best-effort: запись уже прошла, ошибку Redis только логируем.
func (n *Notifying) UpdatePolicies(ctx context.Context, realm string, policies domain.PolicyCollection) error {
	if err := n.next.UpdatePolicies(ctx, realm, policies); err != nil {
		return err
	}

	if err := n.pub.Publish(ctx, infra.RedisChanPolicyUpdate, realm).Err(); err != nil {
		n.logger.Warn("policy update signal delivery failed",
			zap.String("realm", realm),
			zap.String("channel", infra.RedisChanPolicyUpdate),
			zap.Error(err))
	}
	return nil
}
