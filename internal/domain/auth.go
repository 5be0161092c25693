package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Роли консоли, как у формы реалма.
const (
	ScopeViewRealm   = "view-realm"
	ScopeManageRealm = "manage-realm"
)

type CustomClaims struct {
	UserID string          `json:"user_id"`
	Scopes map[string]bool `json:"scopes"` // "view-realm": true, "manage-realm": true
	jwt.RegisteredClaims
}

// Has manage-realm подразумевает view-realm.
func (c *CustomClaims) Has(scope string) bool {
	if c == nil {
		return false
	}
	if c.Scopes[scope] {
		return true
	}
	return scope == ScopeViewRealm && c.Scopes[ScopeManageRealm]
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
}

type User struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"` // Никогда не отправляем на фронт
	Scopes       map[string]bool `json:"scopes"`
	CreatedAt    time.Time       `json:"created_at"`
}
