package clientpolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
)

func TestRender_Draft(t *testing.T) {
	v := Render(State{Realm: "master", Phase: domain.PhaseDraft, Fields: DefaultFields()})

	assert.Equal(t, MsgCreatePolicyTitle, v.Title)
	assert.True(t, v.SaveEnabled)
	assert.Equal(t, MsgCancel, v.CancelLabel)
	assert.False(t, v.DeleteAvailable)
	assert.Nil(t, v.Confirm)
	assert.Empty(t, v.Scaffolds)
	assert.Equal(t, domain.ScopeViewRealm, v.Role)
}

func TestRender_Created(t *testing.T) {
	p := domain.NewClientPolicy("policy-A", "")
	v := Render(State{Realm: "master", Phase: domain.PhaseCreated, Current: &p})

	assert.Equal(t, "policy-A", v.Title)
	assert.False(t, v.SaveEnabled)
	assert.Equal(t, MsgReload, v.CancelLabel)
	assert.True(t, v.DeleteAvailable)
	require.Len(t, v.Scaffolds, 2)

	assert.Equal(t, "conditions", v.Scaffolds[0].Kind)
	assert.Equal(t, MsgEmptyConditions, v.Scaffolds[0].EmptyKey)
	assert.Equal(t, "/master/realm-settings/clientPolicies", v.Scaffolds[0].AddTarget)
	assert.Equal(t, 0, v.Scaffolds[0].ItemsCount)

	assert.Equal(t, "profiles", v.Scaffolds[1].Kind)
	assert.Equal(t, MsgEmptyProfiles, v.Scaffolds[1].EmptyKey)
	assert.Empty(t, v.Scaffolds[1].AddTarget)
}

func TestRender_ConfirmDialog(t *testing.T) {
	p := domain.NewClientPolicy("policy-A", "")
	v := Render(State{Realm: "master", Phase: domain.PhaseCreated, Current: &p, ConfirmPending: true})

	require.NotNil(t, v.Confirm)
	assert.Equal(t, MsgDeleteConfirmTitle, v.Confirm.TitleKey)
	assert.Equal(t, "danger", v.Confirm.Variant)
}

func TestRender_DeletingIsBusy(t *testing.T) {
	p := domain.NewClientPolicy("policy-A", "")
	v := Render(State{Realm: "master", Phase: domain.PhaseDeleting, Current: &p})

	assert.True(t, v.Busy)
	assert.False(t, v.DeleteAvailable)
	assert.Equal(t, "policy-A", v.Title)
}

func TestRender_DeletedIsTerminal(t *testing.T) {
	p := domain.NewClientPolicy("policy-A", "")
	v := Render(State{Realm: "master", Phase: domain.PhaseDeleted, Current: &p, Fields: Fields{Name: "policy-A", Enabled: true}})

	assert.True(t, v.Terminal)
	assert.Equal(t, "policy-A", v.Title)
	assert.NotEqual(t, MsgCreatePolicyTitle, v.Title)
	assert.False(t, v.SaveEnabled)
	assert.False(t, v.DeleteAvailable)
	assert.Empty(t, v.CancelLabel)
	assert.Empty(t, v.Scaffolds)
	assert.Equal(t, "/master/realm-settings/clientPolicies", v.NextPath)
}

func TestRender_OnlyDeletedIsTerminal(t *testing.T) {
	p := domain.NewClientPolicy("policy-A", "")
	for _, phase := range []domain.Phase{domain.PhaseDraft, domain.PhaseSubmitting, domain.PhaseCreated, domain.PhaseDeleting} {
		v := Render(State{Realm: "master", Phase: phase, Current: &p})
		assert.False(t, v.Terminal, phase)
		assert.Empty(t, v.NextPath, phase)
	}
}

func TestClientPoliciesPath(t *testing.T) {
	assert.Equal(t, "/master/realm-settings/clientPolicies", ClientPoliciesPath("master"))
	assert.Equal(t, "/my%20realm/realm-settings/clientPolicies", ClientPoliciesPath("my realm"))
}
