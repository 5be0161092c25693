package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/clientpolicy-console/internal/infra"
	"go.uber.org/zap"
)

// Listen подписывается на канал обновлений и инвалидирует реалмы из сообщений.
// Блокирует до отмены ctx.
func (c *Catalog) Listen(ctx context.Context, rdb *redis.Client) {
	listenResilient(ctx, rdb, c.logger, infra.RedisChanPolicyUpdate,
		func() error {
			c.InvalidateAll()
			return nil
		},
		c.HandleSignal,
	)
}

// HandleSignal payload: имя реалма.
func (c *Catalog) HandleSignal(payload string) {
	realm := strings.TrimSpace(payload)
	if realm == "" {
		c.logger.Warn("empty update signal")
		return
	}
	c.Invalidate(realm)
	c.logger.Debug("realm invalidated", zap.String("realm", realm))
}

// listenResilient цикл живучей подписки: переподключается и зовет onReconnect после каждой успешной подписки.
func listenResilient(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	channel string,
	onReconnect func() error,
	onMessage func(payload string),
) {
	for {
		pubsub := rdb.Subscribe(ctx, channel)

		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to subscribe", zap.String("chan", channel), zap.Error(err))
			if !sleep(ctx, 5*time.Second) {
				return
			}
			continue
		}

		if err := onReconnect(); err != nil {
			logger.Error("sync failed on reconnect", zap.Error(err))
		}

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop
				}
				onMessage(msg.Payload)
			}
		}

		pubsub.Close()
		if !sleep(ctx, time.Second) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
