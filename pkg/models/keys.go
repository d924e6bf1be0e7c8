package models

import (
	"bytes"
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	PublicKeyLen = 32
	EventIDLen   = 32
)

// PublicKey is a BIP-340 x-only secp256k1 public key, the identity of an author.
type PublicKey [PublicKeyLen]byte

// EventID is the sha256 content identifier of a protocol event.
type EventID [EventIDLen]byte

// ParsePublicKey decodes 64 hex chars and checks the key is a point on the curve.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	b, err := decodeHex32(s)
	if err != nil {
		return pk, errors.Wrapf(err, "public key %q", s)
	}
	copy(pk[:], b)
	if err := pk.Validate(); err != nil {
		return PublicKey{}, err
	}
	return pk, nil
}

// MustParsePublicKey panics on error; for tests and constants.
func MustParsePublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// Validate reports whether the x coordinate lifts to a curve point.
// x-only keys imply even y, which is the 0x02 compressed form.
func (pk PublicKey) Validate() error {
	compressed := make([]byte, 0, 33)
	compressed = append(compressed, secp256k1.PubKeyFormatCompressedEven)
	compressed = append(compressed, pk[:]...)
	if _, err := secp256k1.ParsePubKey(compressed); err != nil {
		return errors.Wrapf(err, "public key %s not on curve", pk)
	}
	return nil
}

func (pk PublicKey) String() string { return hex.EncodeToString(pk[:]) }

// Short renders the key as first8:last8 hex, used when no display name exists.
func (pk PublicKey) Short() string {
	s := pk.String()
	return s[:8] + ":" + s[len(s)-8:]
}

func (pk PublicKey) Compare(other PublicKey) int { return bytes.Compare(pk[:], other[:]) }

func (pk PublicKey) IsZero() bool { return pk == PublicKey{} }

// ParseEventID decodes 64 hex chars.
func ParseEventID(s string) (EventID, error) {
	var id EventID
	b, err := decodeHex32(s)
	if err != nil {
		return id, errors.Wrapf(err, "event id %q", s)
	}
	copy(id[:], b)
	return id, nil
}

func MustParseEventID(s string) EventID {
	id, err := ParseEventID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id EventID) String() string { return hex.EncodeToString(id[:]) }

func decodeHex32(s string) ([]byte, error) {
	if len(s) != 64 {
		return nil, errors.Newf("want 64 hex chars, got %d", len(s))
	}
	return hex.DecodeString(s)
}
