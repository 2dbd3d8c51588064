package dedup

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchemaSQL string

// SQLiteCache keeps delivery records in a local SQLite file, so the dedup
// window survives restarts of a single-node deployment.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	Now func() time.Time
}

// NewSQLiteCache opens (or creates) the database at path and applies the schema.
func NewSQLiteCache(ctx context.Context, path string, ttl time.Duration) (*SQLiteCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, storeError("open sqlite", err)
	}
	// One writer keeps the claim upsert serialised.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchemaSQL); err != nil {
		_ = db.Close()
		return nil, storeError("apply schema", err)
	}

	return &SQLiteCache{
		db:  db,
		ttl: ttl,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *SQLiteCache) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

func (s *SQLiteCache) Seen(ctx context.Context, requestID string) (bool, error) {
	key := normalizeKey(requestID)
	if key == "" {
		return false, nil
	}

	var seen bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM delivery_records WHERE request_id = ? AND expires_at > ?)`,
		key, s.now().UnixNano(),
	).Scan(&seen)
	if err != nil {
		return false, storeError("lookup delivery record", err)
	}
	return seen, nil
}

func (s *SQLiteCache) Record(ctx context.Context, requestID string) error {
	key := normalizeKey(requestID)
	if key == "" {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO delivery_records (request_id, expires_at) VALUES (?, ?)
		ON CONFLICT (request_id) DO UPDATE SET expires_at = excluded.expires_at
	`, key, s.now().Add(s.ttl).UnixNano())
	if err != nil {
		return storeError("write delivery record", err)
	}
	return nil
}

func (s *SQLiteCache) Claim(ctx context.Context, requestID string) (bool, error) {
	key := normalizeKey(requestID)
	if key == "" {
		return true, nil
	}
	now := s.now()

	var one int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO delivery_records (request_id, expires_at) VALUES (?, ?)
		ON CONFLICT (request_id) DO UPDATE SET expires_at = excluded.expires_at
		WHERE delivery_records.expires_at <= ?
		RETURNING 1
	`, key, now.Add(s.ttl).UnixNano(), now.UnixNano()).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, storeError("claim delivery record", err)
}

func (s *SQLiteCache) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM delivery_records WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, storeError("purge delivery records", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeError("purge delivery records", err)
	}
	return int(n), nil
}

func (s *SQLiteCache) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var (
	_ Cache  = (*SQLiteCache)(nil)
	_ Purger = (*SQLiteCache)(nil)
	_ Pinger = (*SQLiteCache)(nil)
)
