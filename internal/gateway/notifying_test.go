package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
	"github.com/xela07ax/clientpolicy-console/internal/infra"
	"go.uber.org/zap"
)

type published struct {
	channel string
	message interface{}
}

type fakePublisher struct {
	sent []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	p.sent = append(p.sent, published{channel: channel, message: message})
	return redis.NewIntResult(1, p.err)
}

type failingStore struct{ err error }

func (s failingStore) ListPolicies(context.Context, string) (domain.PolicyCollection, error) {
	return nil, s.err
}

func (s failingStore) UpdatePolicies(context.Context, string, domain.PolicyCollection) error {
	return s.err
}

func TestNotifying_PublishesRealmAfterUpdate(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifying(NewMemoryStore(), pub, zap.NewNop())

	require.NoError(t, n.UpdatePolicies(context.Background(), "master", nil))

	assert.Equal(t, []published{{channel: infra.RedisChanPolicyUpdate, message: "master"}}, pub.sent)
}

func TestNotifying_NoSignalOnFailedUpdate(t *testing.T) {
	pub := &fakePublisher{}
	cause := errors.New("db down")
	n := NewNotifying(failingStore{err: cause}, pub, zap.NewNop())

	err := n.UpdatePolicies(context.Background(), "master", nil)

	assert.ErrorIs(t, err, cause)
	assert.Empty(t, pub.sent)
}

func TestNotifying_SignalFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("redis down")}
	store := NewMemoryStore()
	n := NewNotifying(store, pub, zap.NewNop())

	require.NoError(t, n.UpdatePolicies(context.Background(), "master", domain.PolicyCollection{domain.NewClientPolicy("a", "")}))

	got, err := n.ListPolicies(context.Background(), "master")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Names())
}
