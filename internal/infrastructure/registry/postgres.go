package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"app-deployer/internal/application/port/output"
)

var _ output.DeploymentRegistry = (*Postgres)(nil)

const (
	undefinedTable = pq.ErrorCode("42P01")

	schema = `CREATE TABLE IF NOT EXISTS deployments (
	registry_key TEXT PRIMARY KEY,
	repo_name    TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`
)

// Postgres stores deployments in a single deployments table.
type Postgres struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create deployments table: %w", err)
	}
	return nil
}

func (p *Postgres) Lookup(ctx context.Context, key string) (string, bool, error) {
	var name string
	err := p.db.QueryRowContext(ctx, `SELECT repo_name FROM deployments WHERE registry_key = $1`, key).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query deployment %s: %w", key, err)
	}
	return name, true, nil
}

func (p *Postgres) Record(ctx context.Context, key, name string) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO deployments (registry_key, repo_name, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (registry_key) DO UPDATE SET repo_name = EXCLUDED.repo_name, updated_at = EXCLUDED.updated_at`,
		key, name)
	if err != nil {
		return fmt.Errorf("record deployment %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
