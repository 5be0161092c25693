package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xela07ax/clientpolicy-console/internal/infra"
)

// Schema таблицы консоли. Коллекция политик реалма хранится одним JSONB документом:
// замена списка: одна строка, одна операция.
const Schema = `
CREATE TABLE IF NOT EXISTS client_policies (
	realm      TEXT PRIMARY KEY,
	policies   JSONB NOT NULL DEFAULT '[]'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS console_users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	scopes        JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS client_policy_audit (
	id        UUID PRIMARY KEY,
	realm     TEXT NOT NULL,
	action    TEXT NOT NULL,
	policy    TEXT NOT NULL,
	actor     TEXT NOT NULL,
	status    TEXT NOT NULL,
	error     TEXT NOT NULL DEFAULT '',
	timestamp TIMESTAMPTZ NOT NULL
);`

// DB пул соединений, общий для всех репозиториев консоли.
type DB struct {
	pool *pgxpool.Pool
}

func NewDB(ctx context.Context, cfg infra.DatabaseConfig) (*DB, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Ping проверяет доступность базы при старте
func (d *DB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate создает таблицы, если их нет.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func (d *DB) Close() {
	d.pool.Close()
}
