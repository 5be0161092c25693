package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/clientpolicy-console/internal/clientpolicy"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
	"github.com/xela07ax/clientpolicy-console/internal/gateway"
	"go.uber.org/zap"
)

type recordingAuditor struct {
	mu       sync.Mutex
	outcomes []clientpolicy.Outcome
}

func (a *recordingAuditor) Record(o clientpolicy.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes = append(a.outcomes, o)
}

type failingGateway struct{}

func (failingGateway) ListPolicies(context.Context, string) (domain.PolicyCollection, error) {
	return nil, errors.New("down")
}

func (failingGateway) UpdatePolicies(context.Context, string, domain.PolicyCollection) error {
	return errors.New("down")
}

func newManager(t *testing.T, gw clientpolicy.Gateway, auditor clientpolicy.Auditor) *SessionManager {
	t.Helper()
	return NewSessionManager(SessionOptions{
		Gateway: gw,
		Auditor: auditor,
		TTL:     time.Minute,
		Logger:  zap.NewNop(),
	})
}

func TestSessionManager_CreateAndDelete(t *testing.T) {
	store := gateway.NewMemoryStore()
	store.Seed("master", domain.NewClientPolicy("existing", ""))
	auditor := &recordingAuditor{}
	m := newManager(t, store, auditor)

	s, err := m.Open(t.Context(), "master", "alice")
	require.NoError(t, err)

	require.NoError(t, s.Workflow.Submit(t.Context(), clientpolicy.Fields{Name: "p1", Enabled: true}))
	snap := s.Snapshot()
	assert.Equal(t, domain.PhaseCreated, snap.View.Phase)
	require.Len(t, snap.Alerts, 1)
	assert.Equal(t, clientpolicy.MsgCreateSuccess, snap.Alerts[0].Message)
	assert.Empty(t, s.Snapshot().Alerts)

	require.NoError(t, s.Workflow.RequestDelete())
	require.NoError(t, s.Workflow.ConfirmDelete(t.Context(), true))
	snap = s.Snapshot()
	assert.Equal(t, domain.PhaseDeleted, snap.View.Phase)
	assert.Equal(t, "/master/realm-settings/clientPolicies", snap.Redirect)
	assert.Empty(t, s.Snapshot().Redirect)

	stored, err := store.ListPolicies(t.Context(), "master")
	require.NoError(t, err)
	assert.Equal(t, []string{"existing"}, stored.Names())

	require.Len(t, auditor.outcomes, 2)
	assert.Equal(t, "alice", auditor.outcomes[0].Actor)
	assert.Equal(t, "delete", auditor.outcomes[1].Action)
}

func TestSessionManager_MountFailureKeepsSession(t *testing.T) {
	m := newManager(t, failingGateway{}, nil)

	s, err := m.Open(t.Context(), "master", "alice")
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Alerts, 1)
	assert.Equal(t, clientpolicy.MsgLoadError, snap.Alerts[0].Message)
	assert.Equal(t, domain.PhaseDraft, snap.View.Phase)
	assert.Equal(t, 1, m.Len())
}

func TestSessionManager_GetChecksOwnerAndRealm(t *testing.T) {
	m := newManager(t, gateway.NewMemoryStore(), nil)
	s, err := m.Open(t.Context(), "master", "alice")
	require.NoError(t, err)

	_, err = m.Get(s.ID, "master", "bob")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(s.ID, "other", "alice")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get("missing", "master", "alice")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, err := m.Get(s.ID, "master", "alice")
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestSessionManager_CloseUnmounts(t *testing.T) {
	m := newManager(t, gateway.NewMemoryStore(), nil)
	s, err := m.Open(t.Context(), "master", "alice")
	require.NoError(t, err)

	require.NoError(t, m.Close(s.ID, "master", "alice"))

	assert.False(t, s.Workflow.Alive())
	assert.Equal(t, 0, m.Len())
	assert.ErrorIs(t, m.Close(s.ID, "master", "alice"), ErrSessionNotFound)
}

func TestSessionManager_SweepEvictsIdle(t *testing.T) {
	m := newManager(t, gateway.NewMemoryStore(), nil)
	now := time.Now()
	m.now = func() time.Time { return now }

	idle, err := m.Open(t.Context(), "master", "alice")
	require.NoError(t, err)
	now = now.Add(50 * time.Second)
	fresh, err := m.Open(t.Context(), "master", "alice")
	require.NoError(t, err)
	now = now.Add(20 * time.Second)

	assert.Equal(t, 1, m.Sweep())
	assert.False(t, idle.Workflow.Alive())
	assert.True(t, fresh.Workflow.Alive())
	assert.Equal(t, 1, m.Len())
}

func TestSessionManager_SessionsAreIndependent(t *testing.T) {
	store := gateway.NewMemoryStore()
	m := newManager(t, store, nil)
	a, err := m.Open(t.Context(), "master", "alice")
	require.NoError(t, err)
	b, err := m.Open(t.Context(), "master", "alice")
	require.NoError(t, err)

	require.NoError(t, a.Workflow.Submit(t.Context(), clientpolicy.Fields{Name: "p1", Enabled: true}))

	assert.Equal(t, domain.PhaseCreated, a.Snapshot().View.Phase)
	assert.Equal(t, domain.PhaseDraft, b.Snapshot().View.Phase)
}

func TestSessionManager_CloseAll(t *testing.T) {
	m := newManager(t, gateway.NewMemoryStore(), nil)
	s, err := m.Open(t.Context(), "master", "alice")
	require.NoError(t, err)

	m.CloseAll()

	assert.Equal(t, 0, m.Len())
	assert.False(t, s.Workflow.Alive())
}
