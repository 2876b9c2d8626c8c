// Package store persists detection outcomes so operators can audit what the
// analyzer decided for past calls. Two backends are provided: an append-only
// JSON-lines file for single-node deployments and a PostgreSQL table.
package store

import (
	"context"
	"time"

	"github.com/ringwatch/ringwatch/pkg/detect"
)

// Record is one finished (or abandoned) detection session.
type Record struct {
	Timestamp  time.Time      `json:"timestamp"`
	SessionID  string         `json:"session_id"`
	Verdict    detect.Verdict `json:"verdict"`
	Hangup     bool           `json:"hangup"`
	ElapsedMS  int64          `json:"elapsed_ms"`
	MediaCodec string         `json:"media_codec,omitempty"`
}

// Store is the verdict audit log. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save appends one record.
	Save(ctx context.Context, rec Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Ping reports whether the backing storage is reachable. Used by the
	// readiness probe.
	Ping(ctx context.Context) error
}
