// Package store is the typed façade over the partitioned pebble engine.
//
// Tables keep different overwrite policies: profiles and contacts are last
// write wins, posts are first write wins. Post inserts probe and then stage
// without a lock, so two concurrent inserts of the same id may both stage
// the same record; the second put rewrites identical bytes.
package store

import (
	"sync"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"feedcache/pkg/models"
	"feedcache/pkg/state/logger"
	"feedcache/pkg/store/codec"
	"feedcache/pkg/store/db"
	"feedcache/pkg/store/keys"
)

var (
	ErrOpen     = db.ErrOpen
	ErrNotFound = db.ErrNotFound
	ErrClosed   = db.ErrClosed
	ErrEncode   = codec.ErrEncode
	ErrDecode   = codec.ErrDecode
)

type Options struct {
	Engine db.Options
	// ProfileCacheSize bounds the read-through profile cache; 0 disables it.
	ProfileCacheSize int
	// Registerer receives the store collectors when set.
	Registerer prometheus.Registerer
}

// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db *db.DB

	authors  *db.Partition
	contacts *db.Partition
	profiles *db.Partition
	notes    *db.Partition
	index    *db.Partition

	profileMu    sync.Mutex
	profileCache *lru.Cache[models.PublicKey, models.Profile]

	metrics *metrics
}

// Open opens or creates the store at path.
func Open(path string, opts Options) (*Store, error) {
	engine, err := db.Open(path, opts.Engine)
	if err != nil {
		return nil, err
	}
	s := &Store{db: engine, metrics: newMetrics(engine)}

	for name, dst := range map[string]**db.Partition{
		keys.Author:              &s.authors,
		keys.Contact:             &s.contacts,
		keys.Profile:             &s.profiles,
		keys.TextNote:            &s.notes,
		keys.TextNoteByTimestamp: &s.index,
	} {
		p, err := engine.Partition(name)
		if err != nil {
			_ = engine.Close()
			return nil, errors.Mark(err, ErrOpen)
		}
		*dst = p
	}

	if opts.ProfileCacheSize > 0 {
		s.profileCache, err = lru.New[models.PublicKey, models.Profile](opts.ProfileCacheSize)
		if err != nil {
			_ = engine.Close()
			return nil, errors.Mark(err, ErrOpen)
		}
	}
	if opts.Registerer != nil {
		if err := s.metrics.register(opts.Registerer); err != nil {
			_ = engine.Close()
			return nil, errors.Mark(errors.Wrap(err, "register store metrics"), ErrOpen)
		}
	}
	return s, nil
}

// Flush forces buffered writes to disk. Failures are logged only.
func (s *Store) Flush() {
	if err := s.db.Flush(); err != nil {
		logger.Error("store_flush_failed", "path", s.db.Path(), "error", err)
		return
	}
	logger.Debug("store_flushed", "path", s.db.Path())
}

// Close flushes and releases the engine. Later calls return nil.
func (s *Store) Close() error {
	if !s.db.Ready() {
		return nil
	}
	s.Flush()
	return s.db.Close()
}

func (s *Store) Path() string { return s.db.Path() }

// Collector exposes the store metrics for callers that register them late.
func (s *Store) Collector() prometheus.Collector { return s.metrics }

// put encodes v and commits it as a single-key batch.
func (s *Store) put(p *db.Partition, key []byte, v any) error {
	raw, err := codec.Marshal(v)
	if err != nil {
		return err
	}
	b, err := s.db.NewBatch()
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.Set(p, key, raw); err != nil {
		return err
	}
	return b.Commit()
}

// get reads and decodes key into v.
func (s *Store) get(p *db.Partition, key []byte, v any) error {
	raw, err := p.Get(key)
	if err != nil {
		return err
	}
	return codec.Unmarshal(raw, v)
}
