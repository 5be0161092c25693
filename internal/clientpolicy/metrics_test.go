package clientpolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
)

func TestMetrics_CountsRealTransitions(t *testing.T) {
	h := created(t, newFakeGateway(), "policy-A")

	assert.Equal(t, 1.0, h.transitions(t, domain.PhaseDraft, domain.PhaseSubmitting))
	assert.Equal(t, 1.0, h.transitions(t, domain.PhaseSubmitting, domain.PhaseCreated))
}

func TestMetrics_ReloadWhileCreatedIsNotATransition(t *testing.T) {
	h := created(t, newFakeGateway(), "policy-A")

	for i := 0; i < 3; i++ {
		require.NoError(t, h.wf.Cancel())
	}

	assert.Equal(t, 0.0, h.transitions(t, domain.PhaseCreated, domain.PhaseCreated))
	assert.Equal(t, 1.0, h.transitions(t, domain.PhaseSubmitting, domain.PhaseCreated))
}
