// Package db binds the fixed partition list onto one pebble instance.
//
// pebble has a single keyspace, so every partition owns the keys starting with
// its one-byte tag. The ordered partition names are pinned under a system key
// the first time a directory is opened; later opens must compile in the same list.
package db

import (
	"io"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"feedcache/pkg/state/logger"
	"feedcache/pkg/store/keys"
)

var (
	ErrOpen     = errors.New("store open failed")
	ErrNotFound = errors.New("not found")
	ErrClosed   = errors.New("store closed")
)

// Options tunes the engine. Zero values fall back to pebble defaults.
type Options struct {
	CacheSize    int64
	MemTableSize uint64
	DisableWAL   bool
	// Sync fsyncs every committed batch.
	Sync     bool
	ReadOnly bool
}

type DB struct {
	mu         sync.RWMutex
	pdb        *pebble.DB
	path       string
	opts       Options
	partitions map[string]*Partition
}

// reader is the read surface shared by *pebble.DB and *pebble.Snapshot.
type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

// Open opens or creates the engine at path and binds keys.Partitions.
// Every failure is marked ErrOpen.
func Open(path string, opts Options) (*DB, error) {
	if path == "" {
		return nil, errors.Mark(errors.New("empty store path"), ErrOpen)
	}

	popts := &pebble.Options{
		DisableWAL:   opts.DisableWAL,
		ReadOnly:     opts.ReadOnly,
		MemTableSize: opts.MemTableSize,
		Logger:       pebbleLogger{},
	}
	if opts.CacheSize > 0 {
		cache := pebble.NewCache(opts.CacheSize)
		defer cache.Unref()
		popts.Cache = cache
	}
	if opts.DisableWAL {
		logger.Warn("pebble_wal_disabled", "path", path, "durability", "writes survive only an explicit flush")
	}

	pdb, err := pebble.Open(path, popts)
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, errors.Mark(errors.Wrapf(err, "open %s", path), ErrOpen)
	}

	d := &DB{pdb: pdb, path: path, opts: opts, partitions: make(map[string]*Partition, len(keys.Partitions))}
	if err := d.pinRegistry(); err != nil {
		_ = pdb.Close()
		logger.Error("partition_registry_mismatch", "path", path, "error", err)
		return nil, errors.Mark(err, ErrOpen)
	}
	for _, name := range keys.Partitions {
		tag, _ := keys.Tag(name)
		d.partitions[name] = &Partition{db: d, name: name, tag: tag}
	}
	logger.Info("store_opened", "path", path, "partitions", len(d.partitions), "read_only", opts.ReadOnly)
	return d, nil
}

// pinRegistry records the partition list on first open and checks it afterwards.
func (d *DB) pinRegistry() error {
	key := keys.GenSystemKey(keys.RegistryKey)
	raw, closer, err := d.pdb.Get(key)
	switch {
	case errors.Is(err, pebble.ErrNotFound):
		if d.opts.ReadOnly {
			return errors.New("partition registry missing in read-only store")
		}
		return d.pdb.Set(key, keys.EncodeRegistry(keys.Partitions), pebble.Sync)
	case err != nil:
		return errors.Wrap(err, "read partition registry")
	}
	defer closer.Close()

	stored := keys.ParseRegistry(raw)
	if !slices.Equal(stored, keys.Partitions) {
		return errors.Newf("partition registry %v does not match %v", stored, keys.Partitions)
	}
	return nil
}

// Partition returns the handle bound to name.
func (d *DB) Partition(name string) (*Partition, error) {
	p, ok := d.partitions[name]
	if !ok {
		return nil, errors.Newf("unknown partition %q", name)
	}
	return p, nil
}

func (d *DB) Path() string { return d.path }

// WriteOpt picks fsync behaviour for a commit.
func (d *DB) WriteOpt(requestSync bool) *pebble.WriteOptions {
	if requestSync && d.opts.Sync && !d.opts.DisableWAL {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Flush forces the memtable to disk.
func (d *DB) Flush() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.pdb == nil {
		return ErrClosed
	}
	if d.opts.ReadOnly {
		return nil
	}
	return d.pdb.Flush()
}

// Metrics returns nil once the engine is closed.
func (d *DB) Metrics() *pebble.Metrics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.pdb == nil {
		return nil
	}
	return d.pdb.Metrics()
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pdb == nil {
		return nil
	}
	err := d.pdb.Close()
	d.pdb = nil
	if err != nil {
		logger.Error("pebble_close_failed", "path", d.path, "error", err)
		return err
	}
	logger.Info("store_closed", "path", d.path)
	return nil
}

// Ready reports whether the engine is open.
func (d *DB) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pdb != nil
}

// acquire returns the live engine under the read lock; callers must release.
func (d *DB) acquire() (*pebble.DB, func(), error) {
	d.mu.RLock()
	if d.pdb == nil {
		d.mu.RUnlock()
		return nil, nil, ErrClosed
	}
	return d.pdb, d.mu.RUnlock, nil
}
