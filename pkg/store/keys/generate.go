package keys

import (
	"encoding/binary"

	"feedcache/pkg/models"
)

// Tag returns the partition tag for name, or false for an unknown name.
func Tag(name string) (byte, bool) {
	for i, p := range Partitions {
		if p == name {
			return byte(i + 1), true
		}
	}
	return 0, false
}

// GenPublicKeyKey is the author/profile/contact key.
func GenPublicKeyKey(pk models.PublicKey) []byte {
	out := make([]byte, PublicKeyLen)
	copy(out, pk[:])
	return out
}

// GenIDPrefix truncates the event id to its storage key.
func GenIDPrefix(id models.EventID) []byte {
	out := make([]byte, IDPrefixLen)
	copy(out, id[:IDPrefixLen])
	return out
}

// GenTimestampKey encodes ts so byte order equals numeric order.
func GenTimestampKey(ts uint64) []byte {
	out := make([]byte, TimestampLen)
	binary.BigEndian.PutUint64(out, ts)
	return out
}

// GenSystemKey builds a key in the untagged system namespace.
func GenSystemKey(name string) []byte {
	out := make([]byte, 1+len(name))
	out[0] = SystemTag
	copy(out[1:], name)
	return out
}

// Prefixed prepends a partition tag to key.
func Prefixed(tag byte, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = tag
	copy(out[1:], key)
	return out
}
