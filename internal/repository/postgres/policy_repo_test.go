package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
)

func TestEncodePolicies_NilIsEmptyArray(t *testing.T) {
	raw, err := encodePolicies(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestDecodePolicies(t *testing.T) {
	got, err := decodePolicies([]byte(`[{"name":"a"},{"name":"b","enabled":false,"profiles":["fapi"]}]`))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.True(t, got[0].Enabled)
	assert.False(t, got[1].Enabled)
	assert.Equal(t, []domain.ProfileReference{"fapi"}, got[1].Profiles)
}

func TestDecodePolicies_EmptyAndNull(t *testing.T) {
	for _, raw := range []string{``, `null`, `[]`} {
		got, err := decodePolicies([]byte(raw))
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestDecodePolicies_Corrupt(t *testing.T) {
	_, err := decodePolicies([]byte(`{"not":"a list"}`))
	assert.Error(t, err)
}

func TestClientPolicyStore_RejectsDuplicatesBeforeWrite(t *testing.T) {
	// db не нужен: проверка происходит до обращения к пулу
	s := NewClientPolicyStore(nil)

	err := s.UpdatePolicies(t.Context(), "master", domain.PolicyCollection{{Name: "a"}, {Name: "a"}})

	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}
