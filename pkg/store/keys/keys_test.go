package keys

import (
	"bytes"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedcache/internal/testutil"
)

func TestTagsFollowPartitionOrder(t *testing.T) {
	expected := []string{"author", "contact", "profile", "chat", "channel", "textnote", "textnotebytimestamp"}
	require.Equal(t, expected, Partitions)

	for i, name := range expected {
		tag, ok := Tag(name)
		require.True(t, ok, name)
		assert.Equal(t, byte(i+1), tag)
		assert.NotEqual(t, SystemTag, tag)
	}
	_, ok := Tag("event")
	assert.False(t, ok)
}

func TestTimestampKeyOrder(t *testing.T) {
	values := []uint64{math.MaxUint64, 0, 256, 1, 255, 1 << 40, 41, 50}
	encoded := make([][]byte, len(values))
	for i, v := range values {
		encoded[i] = GenTimestampKey(v)
		require.Len(t, encoded[i], TimestampLen)
	}
	sort.Slice(encoded, func(i, j int) bool { return bytes.Compare(encoded[i], encoded[j]) < 0 })

	sorted := append([]uint64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i, key := range encoded {
		ts, err := ParseTimestampKey(key)
		require.NoError(t, err)
		assert.Equal(t, sorted[i], ts)
	}

	_, err := ParseTimestampKey([]byte{1, 2})
	assert.Error(t, err)
}

func TestIDPrefix(t *testing.T) {
	id := testutil.EventID(3)
	prefix := GenIDPrefix(id)
	require.Len(t, prefix, IDPrefixLen)
	assert.Equal(t, id[:IDPrefixLen], prefix)
	assert.Equal(t, prefix, GenIDPrefix(testutil.CollidingEventID(id)))
	assert.NoError(t, ValidateIDPrefix(prefix))
	assert.Error(t, ValidateIDPrefix(id[:]))

	prefix[0] ^= 0xff
	assert.NotEqual(t, id[0], prefix[0], "prefix must not alias the id")
}

func TestPublicKeyKey(t *testing.T) {
	pk := testutil.PublicKey(1)
	key := GenPublicKeyKey(pk)
	parsed, err := ParsePublicKeyKey(key)
	require.NoError(t, err)
	assert.Equal(t, pk, parsed)

	_, err = ParsePublicKeyKey(key[:31])
	assert.Error(t, err)
}

func TestPrefixedAndSystemKeys(t *testing.T) {
	assert.Equal(t, []byte{6, 'a', 'b'}, Prefixed(6, []byte("ab")))
	assert.Equal(t, append([]byte{0}, "registry"...), GenSystemKey(RegistryKey))
}

func TestRegistryRoundTrip(t *testing.T) {
	assert.Equal(t, Partitions, ParseRegistry(EncodeRegistry(Partitions)))
	assert.Nil(t, ParseRegistry(nil))
}
