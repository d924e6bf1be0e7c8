package db

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"feedcache/pkg/state/logger"
	"feedcache/pkg/store/keys"
)

// Batch stages puts across partitions and commits them atomically.
type Batch struct {
	db *DB
	b  *pebble.Batch
}

func (d *DB) NewBatch() (*Batch, error) {
	pdb, release, err := d.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return &Batch{db: d, b: pdb.NewBatch()}, nil
}

func (b *Batch) Set(p *Partition, key, value []byte) error {
	if err := b.b.Set(keys.Prefixed(p.tag, key), value, nil); err != nil {
		return errors.Wrapf(err, "stage %s", p.name)
	}
	return nil
}

func (b *Batch) Empty() bool { return b.b.Empty() }

func (b *Batch) Count() int { return int(b.b.Count()) }

// Commit writes the staged puts. An empty batch is a no-op.
func (b *Batch) Commit() error {
	if b.b.Empty() {
		return nil
	}
	pdb, release, err := b.db.acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := pdb.Apply(b.b, b.db.WriteOpt(true)); err != nil {
		logger.Error("pebble_apply_batch_failed", "count", b.b.Count(), "error", err)
		return errors.Wrap(err, "apply batch")
	}
	return nil
}

func (b *Batch) Close() error {
	return b.b.Close()
}
