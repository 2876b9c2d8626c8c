package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ringwatch/ringwatch/pkg/detect"
)

// Schema is the SQL DDL for the verdict log table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS tone_verdicts (
    id          BIGSERIAL PRIMARY KEY,
    session_id  TEXT NOT NULL,
    verdict     TEXT NOT NULL,
    hangup      BOOLEAN NOT NULL DEFAULT FALSE,
    elapsed_ms  BIGINT NOT NULL DEFAULT 0,
    media_codec TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_tone_verdicts_session ON tone_verdicts(session_id);
CREATE INDEX IF NOT EXISTS idx_tone_verdicts_created ON tone_verdicts(created_at);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] using the given connection or
// pool. Call [PostgresStore.Migrate] once before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL, creating the tone_verdicts table and
// indexes if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Save inserts one verdict record.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO tone_verdicts (session_id, verdict, hangup, elapsed_ms, media_codec, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.SessionID, rec.Verdict.String(), rec.Hangup, rec.ElapsedMS, rec.MediaCodec, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("store: insert verdict: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT session_id, verdict, hangup, elapsed_ms, media_codec, created_at
		FROM tone_verdicts
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query verdicts: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var verdict string
		if err := rows.Scan(&rec.SessionID, &verdict, &rec.Hangup, &rec.ElapsedMS, &rec.MediaCodec, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("store: scan verdict row: %w", err)
		}
		// Rows written by older builds may carry names this build does not
		// know; they read back as unknown rather than failing the listing.
		if v, err := detect.ParseVerdict(verdict); err == nil {
			rec.Verdict = v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate verdicts: %w", err)
	}
	return out, nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}
