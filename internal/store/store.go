// Package store persists detected segments keyed by episode and mode.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/skipper/internal/domain"
)

// SegmentStore is the persistence contract shared by the badger and sqlite
// backends. A missing segment is reported as ok == false, never as an error.
type SegmentStore interface {
	Upsert(ctx context.Context, episodeID string, mode domain.Mode, seg domain.Segment) error
	Get(ctx context.Context, episodeID string, mode domain.Mode) (domain.Segment, bool, error)
	Delete(ctx context.Context, episodeID string, mode domain.Mode) error
	List(ctx context.Context, mode domain.Mode) ([]Record, error)
	Close() error
}

// EventEmitter broadcasts segment changes to connected clients.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// SegmentUpdated is emitted after a segment is stored.
type SegmentUpdated struct {
	Mode    domain.Mode    `json:"mode"`
	Segment domain.Segment `json:"segment"`
}

// Record is the stored form of a segment.
type Record struct {
	EpisodeID string      `json:"episode_id"`
	Mode      domain.Mode `json:"mode"`
	Start     float64     `json:"start"`
	End       float64     `json:"end"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Segment converts the record back into a domain segment.
func (r Record) Segment() domain.Segment {
	return domain.NewSegment(r.EpisodeID, r.Start, r.End)
}

// Store is the badger backed SegmentStore.
type Store struct {
	db      *badger.DB
	logger  *slog.Logger
	emitter EventEmitter
}

var _ SegmentStore = (*Store)(nil)

// New opens (or creates) a badger database at path. emitter may be nil.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	logger.Info("badger segment store opened", "path", path)
	return &Store{db: db, logger: logger, emitter: emitter}, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	s.logger.Info("closing segment store")
	return s.db.Close()
}

// Shutdown implements do.Shutdowner.
func (s *Store) Shutdown() error {
	return s.Close()
}

// Upsert stores seg for episodeID and mode, replacing any previous value.
func (s *Store) Upsert(_ context.Context, episodeID string, mode domain.Mode, seg domain.Segment) error {
	rec := Record{
		EpisodeID: episodeID,
		Mode:      mode,
		Start:     seg.Start(),
		End:       seg.End(),
		UpdatedAt: time.Now().UTC(),
	}
	key := segmentKey(episodeID, mode)
	defer releaseKey(key)

	if err := s.set(key, rec); err != nil {
		return fmt.Errorf("upsert segment %s/%s: %w", episodeID, mode, err)
	}
	s.emitter.Emit(SegmentUpdated{Mode: mode, Segment: rec.Segment()})
	return nil
}

// Get returns the stored segment for episodeID and mode.
func (s *Store) Get(_ context.Context, episodeID string, mode domain.Mode) (domain.Segment, bool, error) {
	key := segmentKey(episodeID, mode)
	defer releaseKey(key)

	var rec Record
	err := s.get(key, &rec)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Segment{}, false, nil
	}
	if err != nil {
		return domain.Segment{}, false, fmt.Errorf("get segment %s/%s: %w", episodeID, mode, err)
	}
	return rec.Segment(), true, nil
}

// Delete removes the segment for episodeID and mode. Deleting a missing
// segment is not an error.
func (s *Store) Delete(_ context.Context, episodeID string, mode domain.Mode) error {
	key := segmentKey(episodeID, mode)
	defer releaseKey(key)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// List returns every stored record for mode.
func (s *Store) List(_ context.Context, mode domain.Mode) ([]Record, error) {
	prefix := modePrefix(mode)
	defer releaseKey(prefix)

	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	return out, nil
}

func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

func (s *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}
