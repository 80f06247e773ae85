package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cuemby/edgefunc/pkg/log"
	"github.com/cuemby/edgefunc/pkg/types"
)

// ErrNotFound is returned when a lookup finds no matching row.
var ErrNotFound = errors.New("store: not found")

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and returns a ready-to-use Store.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) ListTenants(ctx context.Context) ([]*types.Tenant, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*types.Tenant
	for rows.Next() {
		var id int64
		t := &types.Tenant{}
		if err := rows.Scan(&id, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		t.ID = fmt.Sprintf("%d", id)
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (p *Postgres) GetTenant(ctx context.Context, id string) (*types.Tenant, error) {
	t := &types.Tenant{ID: id}
	row := p.pool.QueryRow(ctx, `SELECT name, created_at FROM users WHERE id = $1`, id)
	if err := row.Scan(&t.Name, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (p *Postgres) GetTenantByClientID(ctx context.Context, clientID string) (*types.Tenant, error) {
	t := &types.Tenant{}
	var id int64
	row := p.pool.QueryRow(ctx, `SELECT id, name, created_at FROM users WHERE client_id = $1`, clientID)
	if err := row.Scan(&id, &t.Name, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant by client id: %w", err)
	}
	t.ID = fmt.Sprintf("%d", id)
	return t, nil
}

func (p *Postgres) LatestDeploymentKey(ctx context.Context, tenantID string) (string, error) {
	var key *string
	row := p.pool.QueryRow(ctx, `SELECT latest_deployment FROM users WHERE id = $1`, tenantID)
	if err := row.Scan(&key); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get latest deployment: %w", err)
	}
	if key == nil {
		return "", ErrNotFound
	}
	return *key, nil
}

func (p *Postgres) GetNamespace(ctx context.Context, tenantID, name string) (*types.Namespace, error) {
	ns := &types.Namespace{TenantID: tenantID, Name: name}
	var id int64
	row := p.pool.QueryRow(ctx,
		`SELECT id, created_at FROM namespaces WHERE user_id = $1 AND name = $2`,
		tenantID, name)
	if err := row.Scan(&id, &ns.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get namespace: %w", err)
	}
	ns.ID = fmt.Sprintf("%d", id)
	return ns, nil
}

// KVSet upserts a single key under namespaceID inside one transaction.
func (p *Postgres) KVSet(ctx context.Context, namespaceID, key string, value []byte) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("kv set: begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.WithComponent("store").Warn().Err(err).Msg("rollback failed")
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO store (namespace_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace_id, key) DO UPDATE SET value = EXCLUDED.value
	`, namespaceID, key, value)
	if err != nil {
		return fmt.Errorf("kv set: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) KVGet(ctx context.Context, namespaceID, key string) ([]byte, bool, error) {
	var value []byte
	row := p.pool.QueryRow(ctx,
		`SELECT value FROM store WHERE namespace_id = $1 AND key = $2`, namespaceID, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("kv get: %w", err)
	}
	return value, true, nil
}

func (p *Postgres) KVDelete(ctx context.Context, namespaceID, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM store WHERE namespace_id = $1 AND key = $2`, namespaceID, key)
	if err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}

func (p *Postgres) KVClear(ctx context.Context, namespaceID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM store WHERE namespace_id = $1`, namespaceID)
	if err != nil {
		return fmt.Errorf("kv clear: %w", err)
	}
	return nil
}

func (p *Postgres) KVAll(ctx context.Context, namespaceID string) (map[string][]byte, error) {
	rows, err := p.pool.Query(ctx, `SELECT key, value FROM store WHERE namespace_id = $1`, namespaceID)
	if err != nil {
		return nil, fmt.Errorf("kv all: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("kv all: scan: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}
