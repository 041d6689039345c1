// Package storage is the relay's durable event log: an embedded,
// ordered key-value file with two tables kept consistent inside a
// single transaction — events keyed by id, and events_by_time keyed by
// (neg_created_at, id) for descending range scans.
package storage

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/willf/bloom"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	apperrors "github.com/nostrforge/relay/internal/errors"
	"github.com/nostrforge/relay/internal/logger"
	"github.com/nostrforge/relay/internal/metrics"
	"github.com/nostrforge/relay/internal/nostr"
)

var (
	bucketEvents       = []byte("events")
	bucketEventsByTime = []byte("events_by_time")
)

// PutResult reports what Put actually did.
type PutResult int

const (
	Added PutResult = iota
	Duplicate
)

// Store is the durable, deduplicated, time-ordered event log.
type Store struct {
	db    *bolt.DB
	bloom *bloom.BloomFilter
	log   *zap.Logger
}

// Open creates or reopens the database file at path, creating both
// buckets if they do not yet exist, and warms the bloom filter from the
// events already on disk.
func Open(path string, syncWrites bool) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout:      time.Second,
		NoSync:       !syncWrites,
		FreelistType: bolt.FreelistMapType,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &Store{
		db:    db,
		bloom: bloom.NewWithEstimates(1_000_000, 0.01),
		log:   logger.New("storage"),
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEvents); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketEventsByTime)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	if err := s.warmBloom(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.log.Info("store opened", zap.String("path", path))
	return s, nil
}

// Close flushes and releases the database file.
func (s *Store) Close() error {
	s.log.Info("store closing")
	return s.db.Close()
}

func (s *Store) warmBloom() error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		return b.ForEach(func(k, _ []byte) error {
			s.bloom.Add(k)
			return nil
		})
	})
}

// Put appends event durably, deduplicating on id. It returns Added the
// first time a given id is seen and Duplicate on every subsequent call
// with the same id; concurrent callers racing on the same id linearize
// on the underlying transaction, so exactly one of them observes Added.
func (s *Store) Put(event nostr.Event) (PutResult, error) {
	idBytes, err := hex.DecodeString(event.ID)
	if err != nil || len(idBytes) != 32 {
		return Duplicate, apperrors.InvalidID()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return Duplicate, apperrors.StoreError("encode", err)
	}

	result := Added
	err = s.db.Update(func(tx *bolt.Tx) error {
		events := tx.Bucket(bucketEvents)
		// The bloom filter can only rule membership OUT; a positive still
		// needs the authoritative bucket check. Testing and adding inside
		// the write transaction serializes both with every other Put.
		if s.bloom.Test(idBytes) && events.Get(idBytes) != nil {
			result = Duplicate
			return nil
		}

		byTime := tx.Bucket(bucketEventsByTime)
		if err := events.Put(idBytes, payload); err != nil {
			return err
		}
		if err := byTime.Put(timeKey(event.CreatedAt, idBytes), idBytes); err != nil {
			return err
		}
		s.bloom.Add(idBytes)
		return nil
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("put").Inc()
		return Duplicate, apperrors.StoreError("put", err)
	}

	if result == Added {
		metrics.EventsStored.Inc()
	} else {
		metrics.DuplicateEvents.Inc()
	}
	return result, nil
}

// timeKey builds the events_by_time key: a big-endian encoding of
// (math.MaxInt64 - createdAt) so ascending byte order walks events from
// newest to oldest, followed by the raw id for uniqueness among events
// sharing a timestamp.
func timeKey(createdAt int64, id []byte) []byte {
	key := make([]byte, 8+len(id))
	binary.BigEndian.PutUint64(key[:8], uint64(int64(^uint64(0)>>1)-createdAt))
	copy(key[8:], id)
	return key
}

// Query returns, for each filter, up to its declared Limit most-recent
// matching events (unlimited if Limit is nil), merged into one
// deduplicated, most-recent-first sequence, by making a single
// descending scan of events_by_time.
func (s *Store) Query(filters []nostr.Filter) ([]nostr.Event, error) {
	start := time.Now()
	defer func() { metrics.QueryDuration.Observe(time.Since(start).Seconds()) }()

	remaining := make([]int, len(filters))
	for i, f := range filters {
		if f.Limit != nil {
			remaining[i] = *f.Limit
		} else {
			remaining[i] = -1 // unbounded
		}
	}

	seen := make(map[string]struct{})
	var results []nostr.Event

	err := s.db.View(func(tx *bolt.Tx) error {
		byTime := tx.Bucket(bucketEventsByTime)
		events := tx.Bucket(bucketEvents)
		c := byTime.Cursor()

		for k, id := c.First(); k != nil; k, id = c.Next() {
			if allExhausted(remaining) {
				break
			}

			raw := events.Get(id)
			if raw == nil {
				continue // primary record removed out from under a stale index entry
			}
			var event nostr.Event
			if err := json.Unmarshal(raw, &event); err != nil {
				continue
			}

			matched := false
			for i, f := range filters {
				if remaining[i] == 0 {
					continue
				}
				if !nostr.Matches(f, event) {
					continue
				}
				matched = true
				if remaining[i] > 0 {
					remaining[i]--
				}
			}
			if !matched {
				continue
			}
			if _, dup := seen[event.ID]; dup {
				continue
			}
			seen[event.ID] = struct{}{}
			results = append(results, event)
		}
		return nil
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("query").Inc()
		return nil, apperrors.StoreError("query", err)
	}

	// The cursor already walks events_by_time newest-first, so results
	// is already in the order the contract requires.
	return results, nil
}

func allExhausted(remaining []int) bool {
	for _, r := range remaining {
		if r != 0 {
			return false
		}
	}
	return true
}

// IterAll streams every stored event to fn in id order, for warm-start
// of in-memory caches. It is not required for correctness.
func (s *Store) IterAll(fn func(nostr.Event) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		return b.ForEach(func(_, v []byte) error {
			var event nostr.Event
			if err := json.Unmarshal(v, &event); err != nil {
				return nil
			}
			return fn(event)
		})
	})
}
