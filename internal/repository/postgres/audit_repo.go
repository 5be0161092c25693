package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/clientpolicy-console/internal/audit"
)

type AuditRepo struct {
	db *DB
}

func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

var auditColumns = []string{"id", "realm", "action", "policy", "actor", "status", "error", "timestamp"}

// WriteBatch пишет пачку событий через COPY.
func (r *AuditRepo) WriteBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	_, err := r.db.pool.CopyFrom(ctx,
		pgx.Identifier{"client_policy_audit"},
		auditColumns,
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := events[i]
			return []any{e.ID, e.Realm, e.Action, e.Policy, e.Actor, e.Status, e.Error, e.Timestamp}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to write audit batch: %w", err)
	}
	return nil
}

// FetchLogs последние события реалма, новые первыми. policy = "": без фильтра по политике.
func (r *AuditRepo) FetchLogs(ctx context.Context, realm, policy string, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, realm, action, policy, actor, status, error, timestamp
		FROM client_policy_audit
		WHERE realm = $1 AND ($2::text = '' OR policy = $2)
		ORDER BY timestamp DESC
		LIMIT $3`

	rows, err := r.db.pool.Query(ctx, query, realm, policy, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query audit: %w", err)
	}
	defer rows.Close()

	events := make([]audit.Event, 0)
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(&e.ID, &e.Realm, &e.Action, &e.Policy, &e.Actor, &e.Status, &e.Error, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan audit row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: audit rows: %w", err)
	}
	return events, nil
}
