package dedup

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is embedded so the agent can self-bootstrap its dedup table.
//
//go:embed schema.sql
var schemaSQL string

// PostgresCache stores delivery records in Postgres so every agent instance
// behind a load balancer shares one dedup window.
type PostgresCache struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgresCache creates a connection pool and fails fast if DB is unreachable.
func NewPostgresCache(ctx context.Context, dbURL string, ttl time.Duration) (*PostgresCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, storeError("connect postgres", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storeError("ping postgres", err)
	}

	return &PostgresCache{pool: pool, ttl: ttl}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresCache) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return storeError("apply schema", err)
	}
	return nil
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresCache) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresCache) Close() {
	p.pool.Close()
}

func (p *PostgresCache) Seen(ctx context.Context, requestID string) (bool, error) {
	key := normalizeKey(requestID)
	if key == "" {
		return false, nil
	}

	var seen bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM delivery_records
			WHERE request_id = $1 AND expires_at > now()
		)
	`, key).Scan(&seen)
	if err != nil {
		return false, storeError("lookup delivery record", err)
	}
	return seen, nil
}

func (p *PostgresCache) Record(ctx context.Context, requestID string) error {
	key := normalizeKey(requestID)
	if key == "" {
		return nil
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO delivery_records (request_id, expires_at)
		VALUES ($1, now() + make_interval(secs => $2))
		ON CONFLICT (request_id) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`, key, p.ttl.Seconds())
	if err != nil {
		return storeError("write delivery record", err)
	}
	return nil
}

// Claim inserts the record, or refreshes it when the stored one has expired.
//
// The row-level lock taken by ON CONFLICT serialises concurrent claims: the
// loser sees an unexpired row, the WHERE clause rejects the update and
// RETURNING yields no rows.
func (p *PostgresCache) Claim(ctx context.Context, requestID string) (bool, error) {
	key := normalizeKey(requestID)
	if key == "" {
		return true, nil
	}

	var one int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO delivery_records (request_id, expires_at)
		VALUES ($1, now() + make_interval(secs => $2))
		ON CONFLICT (request_id) DO UPDATE SET expires_at = EXCLUDED.expires_at
		WHERE delivery_records.expires_at <= now()
		RETURNING 1
	`, key, p.ttl.Seconds()).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, storeError("claim delivery record", err)
}

func (p *PostgresCache) PurgeExpired(ctx context.Context) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM delivery_records WHERE expires_at <= now()`)
	if err != nil {
		return 0, storeError("purge delivery records", err)
	}
	return int(tag.RowsAffected()), nil
}

var (
	_ Cache  = (*PostgresCache)(nil)
	_ Purger = (*PostgresCache)(nil)
	_ Pinger = (*PostgresCache)(nil)
)
