// Package sqlite provides the SQLite backed segment store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store persists segments in a single SQLite table.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	emitter store.EventEmitter
}

var _ store.SegmentStore = (*Store)(nil)

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and applies the schema.
func Open(path string, logger *slog.Logger, emitter store.EventEmitter) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if emitter == nil {
		emitter = store.NoopEmitter{}
	}
	logger.Info("sqlite segment store opened", "path", path)
	return &Store{db: db, logger: logger, emitter: emitter}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Shutdown implements do.Shutdowner.
func (s *Store) Shutdown() error {
	return s.Close()
}

// Upsert implements store.SegmentStore.
func (s *Store) Upsert(ctx context.Context, episodeID string, mode domain.Mode, seg domain.Segment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO segments (episode_id, mode, start_secs, end_secs, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (episode_id, mode) DO UPDATE SET
			start_secs = excluded.start_secs,
			end_secs   = excluded.end_secs,
			updated_at = excluded.updated_at`,
		episodeID, string(mode), seg.Start(), seg.End(), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert segment %s/%s: %w", episodeID, mode, err)
	}
	s.emitter.Emit(store.SegmentUpdated{Mode: mode, Segment: domain.NewSegment(episodeID, seg.Start(), seg.End())})
	return nil
}

// Get implements store.SegmentStore.
func (s *Store) Get(ctx context.Context, episodeID string, mode domain.Mode) (domain.Segment, bool, error) {
	var start, end float64
	err := s.db.QueryRowContext(ctx,
		`SELECT start_secs, end_secs FROM segments WHERE episode_id = ? AND mode = ?`,
		episodeID, string(mode)).Scan(&start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Segment{}, false, nil
	}
	if err != nil {
		return domain.Segment{}, false, fmt.Errorf("get segment %s/%s: %w", episodeID, mode, err)
	}
	return domain.NewSegment(episodeID, start, end), true, nil
}

// Delete implements store.SegmentStore.
func (s *Store) Delete(ctx context.Context, episodeID string, mode domain.Mode) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM segments WHERE episode_id = ? AND mode = ?`, episodeID, string(mode)); err != nil {
		return fmt.Errorf("delete segment %s/%s: %w", episodeID, mode, err)
	}
	return nil
}

// List returns every stored record for mode ordered by episode id.
func (s *Store) List(ctx context.Context, mode domain.Mode) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT episode_id, start_secs, end_secs, updated_at FROM segments WHERE mode = ? ORDER BY episode_id`,
		string(mode))
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		rec := store.Record{Mode: mode}
		var updated string
		if err := rows.Scan(&rec.EpisodeID, &rec.Start, &rec.End, &updated); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		if rec.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
