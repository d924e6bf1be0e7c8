package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedcache/pkg/store/keys"
	"feedcache/pkg/store/pagination"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "db"), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func partition(t *testing.T, d *DB, name string) *Partition {
	t.Helper()
	p, err := d.Partition(name)
	require.NoError(t, err)
	return p
}

func put(t *testing.T, d *DB, p *Partition, key, value string) {
	t.Helper()
	b, err := d.NewBatch()
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.Set(p, []byte(key), []byte(value)))
	require.NoError(t, b.Commit())
}

func TestOpenBindsEveryPartition(t *testing.T) {
	d := openTest(t)
	for i, name := range keys.Partitions {
		p := partition(t, d, name)
		assert.Equal(t, name, p.Name())
		assert.Equal(t, byte(i+1), p.Tag())
	}
	_, err := d.Partition("missing")
	assert.Error(t, err)
	assert.True(t, d.Ready())
}

func TestOpenRejectsUnusablePath(t *testing.T) {
	_, err := Open("", Options{})
	assert.True(t, errors.Is(err, ErrOpen))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = Open(file, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOpen))
}

func TestOpenRejectsRegistryMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	pdb, err := pebble.Open(path, &pebble.Options{})
	require.NoError(t, err)
	require.NoError(t, pdb.Set(keys.GenSystemKey(keys.RegistryKey), keys.EncodeRegistry([]string{"author", "event"}), pebble.Sync))
	require.NoError(t, pdb.Close())

	_, err = Open(path, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOpen))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	d, err := Open(path, Options{Sync: true})
	require.NoError(t, err)
	put(t, d, partition(t, d, keys.Author), "k", "v")
	require.NoError(t, d.Flush())
	require.NoError(t, d.Close())
	assert.False(t, d.Ready())
	assert.NoError(t, d.Close())

	ro, err := Open(path, Options{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()
	v, err := partition(t, ro, keys.Author).Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestPartitionsAreIsolated(t *testing.T) {
	d := openTest(t)
	authors := partition(t, d, keys.Author)
	profiles := partition(t, d, keys.Profile)

	put(t, d, authors, "same", "a")
	put(t, d, profiles, "same", "p")

	v, err := authors.Get([]byte("same"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)

	n, err := profiles.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = partition(t, d, keys.Contact).Get([]byte("same"))
	assert.True(t, errors.Is(err, ErrNotFound))

	ok, err := authors.Has([]byte("same"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = authors.Has([]byte("other"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScanDirections(t *testing.T) {
	d := openTest(t)
	idx := partition(t, d, keys.TextNoteByTimestamp)
	for _, ts := range []uint64{10, 20, 30, 40} {
		put(t, d, idx, string(keys.GenTimestampKey(ts)), "x")
	}
	// a neighbouring partition must not leak into the range
	put(t, d, partition(t, d, keys.TextNote), string(keys.GenTimestampKey(25)), "y")

	collect := func(start []byte, dir pagination.Direction, limit int) []uint64 {
		var out []uint64
		require.NoError(t, idx.Scan(start, dir, func(k, _ []byte) bool {
			ts, err := keys.ParseTimestampKey(k)
			require.NoError(t, err)
			out = append(out, ts)
			return len(out) < limit
		}))
		return out
	}

	assert.Equal(t, []uint64{10, 20, 30, 40}, collect(nil, pagination.Forward, 10))
	assert.Equal(t, []uint64{40, 30}, collect(nil, pagination.Backward, 2))
	assert.Equal(t, []uint64{20, 30, 40}, collect(keys.GenTimestampKey(20), pagination.Forward, 10))
	assert.Equal(t, []uint64{30, 40}, collect(keys.GenTimestampKey(25), pagination.Forward, 10))
	assert.Equal(t, []uint64{20, 10}, collect(keys.GenTimestampKey(20), pagination.Backward, 10))
	assert.Equal(t, []uint64{20, 10}, collect(keys.GenTimestampKey(25), pagination.Backward, 10))
	assert.Empty(t, collect(keys.GenTimestampKey(5), pagination.Backward, 10))
	assert.Empty(t, collect(keys.GenTimestampKey(41), pagination.Forward, 10))
}

func TestMultiGet(t *testing.T) {
	d := openTest(t)
	p := partition(t, d, keys.TextNote)
	put(t, d, p, "a", "1")
	put(t, d, p, "c", "3")

	got, err := p.MultiGet([][]byte{[]byte("c"), []byte("b"), []byte("a")})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("3"), nil, []byte("1")}, got)
}

func TestBatchIsAtomicAcrossPartitions(t *testing.T) {
	d := openTest(t)
	authors := partition(t, d, keys.Author)
	profiles := partition(t, d, keys.Profile)

	b, err := d.NewBatch()
	require.NoError(t, err)
	assert.True(t, b.Empty())
	require.NoError(t, b.Commit())

	require.NoError(t, b.Set(authors, []byte("k"), nil))
	require.NoError(t, b.Set(profiles, []byte("k"), []byte("p")))
	assert.Equal(t, 2, b.Count())

	ok, err := authors.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok, "staged writes are invisible before commit")

	require.NoError(t, b.Commit())
	require.NoError(t, b.Close())

	ok, err = authors.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClosedEngine(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "db"), Options{})
	require.NoError(t, err)
	p := partition(t, d, keys.Author)
	require.NoError(t, d.Close())

	_, err = p.Get([]byte("k"))
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(d.Flush(), ErrClosed))
	assert.Nil(t, d.Metrics())
	_, err = d.NewBatch()
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestWriteOpt(t *testing.T) {
	d := &DB{opts: Options{Sync: true}}
	assert.Equal(t, pebble.Sync, d.WriteOpt(true))
	assert.Equal(t, pebble.NoSync, d.WriteOpt(false))
	d.opts.DisableWAL = true
	assert.Equal(t, pebble.NoSync, d.WriteOpt(true))
}
