package ingest

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/minio/sha256-simd"

	"feedcache/pkg/models"
)

const (
	KindMetadata    = 0
	KindTextNote    = 1
	KindContactList = 3
)

// ErrInvalidEvent marks events rejected before they reach the store.
var ErrInvalidEvent = errors.New("invalid event")

// Event is a decoded protocol event as relays deliver it.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Serialize returns the canonical form hashed into the event id:
// [0,<pubkey>,<created_at>,<kind>,<tags>,<content>] with minimal escaping.
func (ev *Event) Serialize() []byte {
	var b strings.Builder
	b.WriteString(`[0,`)
	writeString(&b, ev.PubKey)
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(ev.CreatedAt, 10))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(ev.Kind))
	b.WriteString(`,[`)
	for i, tag := range ev.Tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		for j, v := range tag {
			if j > 0 {
				b.WriteByte(',')
			}
			writeString(&b, v)
		}
		b.WriteByte(']')
	}
	b.WriteString(`],`)
	writeString(&b, ev.Content)
	b.WriteByte(']')
	return []byte(b.String())
}

// writeString quotes s escaping only what the id serialization escapes;
// every other character, including non-ASCII, is written verbatim.
func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
}

// ComputeID hashes the canonical serialization.
func (ev *Event) ComputeID() models.EventID {
	return sha256.Sum256(ev.Serialize())
}

// Validate checks the id against the content and the author key against the
// curve. Signatures are left to the sync layer.
func (ev *Event) Validate() (models.EventID, models.PublicKey, error) {
	id, pk, err := ev.parse()
	if err != nil {
		return id, pk, err
	}
	if computed := ev.ComputeID(); computed != id {
		return id, pk, errors.Mark(errors.Newf("id %s does not match content hash %s", id, computed), ErrInvalidEvent)
	}
	return id, pk, nil
}

// parse decodes id and pubkey without checking the hash.
func (ev *Event) parse() (models.EventID, models.PublicKey, error) {
	pk, err := models.ParsePublicKey(ev.PubKey)
	if err != nil {
		return models.EventID{}, pk, errors.Mark(errors.Wrap(err, "pubkey"), ErrInvalidEvent)
	}
	id, err := models.ParseEventID(ev.ID)
	if err != nil {
		return id, pk, errors.Mark(errors.Wrap(err, "id"), ErrInvalidEvent)
	}
	if ev.CreatedAt < 0 {
		return id, pk, errors.Mark(errors.Newf("negative created_at %d", ev.CreatedAt), ErrInvalidEvent)
	}
	return id, pk, nil
}
