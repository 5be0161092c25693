package postgres

/*
Файл policy_repo.go хранит коллекции клиентских политик по реалмам.
Хранилище повторяет контракт admin API: отдать весь список и заменить весь список.
Частичных записей нет, замена выполняется одним upsert'ом.
*/

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
)

type ClientPolicyStore struct {
	db *DB
}

func NewClientPolicyStore(db *DB) *ClientPolicyStore {
	return &ClientPolicyStore{db: db}
}

// ListPolicies реалм без строки: пустая коллекция.
func (s *ClientPolicyStore) ListPolicies(ctx context.Context, realm string) (domain.PolicyCollection, error) {
	query := `SELECT policies FROM client_policies WHERE realm = $1`

	var raw []byte
	err := s.db.pool.QueryRow(ctx, query, realm).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PolicyCollection{}, nil
		}
		return nil, fmt.Errorf("postgres: failed to load client policies: %w", err)
	}

	return decodePolicies(raw)
}

// UpdatePolicies атомарно заменяет коллекцию. Дубликаты имен отклоняются, как это делает сервер авторизации.
func (s *ClientPolicyStore) UpdatePolicies(ctx context.Context, realm string, policies domain.PolicyCollection) error {
	if dups := policies.DuplicateNames(); len(dups) > 0 {
		return fmt.Errorf("postgres: %w: %v", domain.ErrDuplicateName, dups)
	}

	raw, err := encodePolicies(policies)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO client_policies (realm, policies, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (realm) DO UPDATE
		SET policies = EXCLUDED.policies, updated_at = EXCLUDED.updated_at`

	if _, err := s.db.pool.Exec(ctx, query, realm, raw); err != nil {
		return fmt.Errorf("postgres: failed to replace client policies: %w", err)
	}
	return nil
}

func encodePolicies(policies domain.PolicyCollection) ([]byte, error) {
	if policies == nil {
		policies = domain.PolicyCollection{}
	}
	raw, err := json.Marshal(policies)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode client policies: %w", err)
	}
	return raw, nil
}

func decodePolicies(raw []byte) (domain.PolicyCollection, error) {
	var out domain.PolicyCollection
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("postgres: decode client policies: %w", err)
		}
	}
	if out == nil {
		out = domain.PolicyCollection{}
	}
	return out, nil
}
