package keys

import (
	"encoding/binary"
	"strings"

	"github.com/cockroachdb/errors"

	"feedcache/pkg/models"
)

func ParsePublicKeyKey(key []byte) (models.PublicKey, error) {
	var pk models.PublicKey
	if len(key) != PublicKeyLen {
		return pk, errors.Newf("invalid public key key length %d", len(key))
	}
	copy(pk[:], key)
	return pk, nil
}

func ParseTimestampKey(key []byte) (uint64, error) {
	if len(key) != TimestampLen {
		return 0, errors.Newf("invalid timestamp key length %d", len(key))
	}
	return binary.BigEndian.Uint64(key), nil
}

// ValidateIDPrefix checks an index value before it is used as a post key.
func ValidateIDPrefix(prefix []byte) error {
	if len(prefix) != IDPrefixLen {
		return errors.Newf("invalid id prefix length %d", len(prefix))
	}
	return nil
}

// EncodeRegistry and ParseRegistry persist the ordered partition list.
func EncodeRegistry(names []string) []byte {
	return []byte(strings.Join(names, "\n"))
}

func ParseRegistry(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	return strings.Split(string(raw), "\n")
}
