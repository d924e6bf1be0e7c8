package db

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"feedcache/pkg/store/keys"
	"feedcache/pkg/store/pagination"
)

// Partition is one named key range. Keys passed in and handed out are
// unprefixed; the tag is added and stripped here.
type Partition struct {
	db   *DB
	name string
	tag  byte
}

func (p *Partition) Name() string { return p.name }
func (p *Partition) Tag() byte     { return p.tag }

func (p *Partition) bounds() *pebble.IterOptions {
	return &pebble.IterOptions{
		LowerBound: []byte{p.tag},
		UpperBound: []byte{p.tag + 1},
	}
}

// Get returns a copy of the value under key, or ErrNotFound.
func (p *Partition) Get(key []byte) ([]byte, error) {
	pdb, release, err := p.db.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return p.get(pdb, key)
}

func (p *Partition) get(r reader, key []byte) ([]byte, error) {
	v, closer, err := r.Get(keys.Prefixed(p.tag, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", p.name)
	}
	out := make([]byte, len(v))
	copy(out, v)
	closer.Close()
	return out, nil
}

// Has probes key without copying its value.
func (p *Partition) Has(key []byte) (bool, error) {
	pdb, release, err := p.db.acquire()
	if err != nil {
		return false, err
	}
	defer release()
	_, closer, err := pdb.Get(keys.Prefixed(p.tag, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "probe %s", p.name)
	}
	closer.Close()
	return true, nil
}

// MultiGet reads every key from one consistent snapshot. Missing keys leave
// a nil entry at their position.
func (p *Partition) MultiGet(list [][]byte) ([][]byte, error) {
	pdb, release, err := p.db.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	snap := pdb.NewSnapshot()
	defer snap.Close()

	out := make([][]byte, len(list))
	for i, key := range list {
		v, err := p.get(snap, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ScanFunc receives copies of the unprefixed key and the value. Returning
// false stops the scan.
type ScanFunc func(key, value []byte) bool

// Scan walks the partition in dir. A nil start begins at the matching end
// of the partition; otherwise Forward starts at the first key >= start and
// Backward at the last key <= start.
func (p *Partition) Scan(start []byte, dir pagination.Direction, fn ScanFunc) error {
	pdb, release, err := p.db.acquire()
	if err != nil {
		return err
	}
	defer release()

	iter, err := pdb.NewIter(p.bounds())
	if err != nil {
		return errors.Wrapf(err, "iterate %s", p.name)
	}
	defer iter.Close()

	var valid bool
	switch {
	case dir == pagination.Forward && start == nil:
		valid = iter.First()
	case dir == pagination.Forward:
		valid = iter.SeekGE(keys.Prefixed(p.tag, start))
	case start == nil:
		valid = iter.Last()
	default:
		// keys in a partition share a fixed width, so the last key below
		// start||0x00 is the last key <= start.
		valid = iter.SeekLT(append(keys.Prefixed(p.tag, start), 0x00))
	}

	for ; valid; valid = step(iter, dir) {
		k := iter.Key()
		key := make([]byte, len(k)-1)
		copy(key, k[1:])
		v := iter.Value()
		value := make([]byte, len(v))
		copy(value, v)
		if !fn(key, value) {
			break
		}
	}
	return iter.Error()
}

func step(iter *pebble.Iterator, dir pagination.Direction) bool {
	if dir == pagination.Forward {
		return iter.Next()
	}
	return iter.Prev()
}

// Count walks the partition and returns the number of keys.
func (p *Partition) Count() (int, error) {
	n := 0
	err := p.Scan(nil, pagination.Forward, func(_, _ []byte) bool {
		n++
		return true
	})
	return n, err
}
