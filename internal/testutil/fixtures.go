// Package testutil builds deterministic fixtures shared by package tests.
package testutil

import (
	"encoding/binary"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/minio/sha256-simd"

	"feedcache/pkg/models"
)

// PrivateKey derives a deterministic secp256k1 key from n (n >= 0).
func PrivateKey(n int) *secp256k1.PrivateKey {
	var scalar [32]byte
	binary.BigEndian.PutUint64(scalar[24:], uint64(n)+1)
	return secp256k1.PrivKeyFromBytes(scalar[:])
}

// PublicKey returns the x-only public key of PrivateKey(n).
func PublicKey(n int) models.PublicKey {
	var pk models.PublicKey
	copy(pk[:], PrivateKey(n).PubKey().SerializeCompressed()[1:])
	return pk
}

// EventID returns a stable id whose 8-byte prefix differs for every n.
func EventID(n int) models.EventID {
	return sha256.Sum256([]byte(fmt.Sprintf("event-%d", n)))
}

// CollidingEventID shares its first 8 bytes with id but differs afterwards.
func CollidingEventID(id models.EventID) models.EventID {
	other := id
	other[31] ^= 0xff
	return other
}

// TextNote builds a note authored by PublicKey(author) at ts.
func TextNote(n int, author int, ts uint64) (models.EventID, models.TextNote) {
	id := EventID(n)
	return id, models.TextNote{
		ID:        id,
		Author:    PublicKey(author),
		Timestamp: ts,
		Content:   fmt.Sprintf("note %d", n),
	}
}
