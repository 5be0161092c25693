package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
	"github.com/xela07ax/clientpolicy-console/internal/infra/auth"
	"golang.org/x/crypto/bcrypt"
)

type stubUsers struct {
	user *domain.User
	err  error
}

func (s stubUsers) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.Username != username {
		return nil, nil
	}
	return s.user, nil
}

func newAuthService(t *testing.T, users AuthProvider) *AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewAuthService(users, key, auth.NewBaseValidator(&key.PublicKey), time.Hour)
}

func testUser(t *testing.T) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: string(hash),
		Scopes:       map[string]bool{domain.ScopeManageRealm: true},
	}
}

func TestAuthService_IssuesVerifiableToken(t *testing.T) {
	svc := newAuthService(t, stubUsers{user: testUser(t)})

	resp, err := svc.GenerateToken(t.Context(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.VerifyToken("Bearer " + resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.Subject)
	assert.True(t, claims.Has(domain.ScopeViewRealm))
	assert.True(t, claims.Has(domain.ScopeManageRealm))
}

func TestAuthService_InvalidCredentials(t *testing.T) {
	svc := newAuthService(t, stubUsers{user: testUser(t)})

	_, err := svc.GenerateToken(t.Context(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.GenerateToken(t.Context(), "bob", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RepositoryError(t *testing.T) {
	svc := newAuthService(t, stubUsers{err: errors.New("db down")})

	_, err := svc.GenerateToken(t.Context(), "alice", "secret")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RejectsForeignKey(t *testing.T) {
	issuer := newAuthService(t, stubUsers{user: testUser(t)})
	verifier := newAuthService(t, stubUsers{})

	resp, err := issuer.GenerateToken(t.Context(), "alice", "secret")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(resp.AccessToken)
	assert.Error(t, err)
}
