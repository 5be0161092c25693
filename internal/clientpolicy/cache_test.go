package clientpolicy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
	"go.uber.org/zap"
)

func TestCache_LoadReplacesCollection(t *testing.T) {
	gw := newFakeGateway(domain.NewClientPolicy("a", ""), domain.NewClientPolicy("b", ""))
	c := NewCache("master", gw, zap.NewNop())

	assert.False(t, c.Loaded())
	assert.Empty(t, c.Current())

	require.NoError(t, c.Load(context.Background()))

	assert.True(t, c.Loaded())
	assert.Equal(t, []string{"a", "b"}, c.Current().Names())
}

func TestCache_LoadFailureKeepsPriorValue(t *testing.T) {
	gw := newFakeGateway(domain.NewClientPolicy("a", ""))
	c := NewCache("master", gw, zap.NewNop())
	require.NoError(t, c.Load(context.Background()))

	gw.listErr = errBoom
	err := c.Load(context.Background())

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "master", fetchErr.Realm)
	assert.Equal(t, []string{"a"}, c.Current().Names())
}

func TestCache_CurrentIsACopy(t *testing.T) {
	gw := newFakeGateway(domain.NewClientPolicy("a", ""))
	c := NewCache("master", gw, zap.NewNop())
	require.NoError(t, c.Load(context.Background()))

	got := c.Current()
	got[0].Name = "mutated"

	assert.Equal(t, []string{"a"}, c.Current().Names())
}

func TestCache_NilListIsEmpty(t *testing.T) {
	gw := &fakeGateway{}
	c := NewCache("master", gw, zap.NewNop())

	require.NoError(t, c.Load(context.Background()))

	assert.NotNil(t, c.Current())
	assert.Empty(t, c.Current())
}
