package service

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
	"github.com/xela07ax/clientpolicy-console/internal/infra/auth"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials единая ошибка логина: не уточняем, что именно неверно.
var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthProvider interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// AuthService выдает токены и сам же их проверяет (встроенный BaseValidator).
type AuthService struct {
	*auth.BaseValidator
	repo       AuthProvider
	privateKey *rsa.PrivateKey
	ttl        time.Duration
	now        func() time.Time
}

func NewAuthService(repo AuthProvider, privateKey *rsa.PrivateKey, validator *auth.BaseValidator, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		BaseValidator: validator,
		repo:          repo,
		privateKey:    privateKey,
		ttl:           ttl,
		now:           time.Now,
	}
}

func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	// 1. Аутентификация (источник правды: Postgres)
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// 2. Проверка пароля
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. Роли реалма берем из прав пользователя в БД
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &domain.CustomClaims{
		UserID: user.ID,
		Scopes: user.Scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.Issuer,
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	// 4. Подпись закрытым ключом (RS256)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
	}, nil
}
