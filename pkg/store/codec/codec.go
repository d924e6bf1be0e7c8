// Package codec turns stored records into bytes and back.
//
// Records are msgpack maps keyed by field name, so a value carries enough of
// its own shape to be rejected cleanly when the record layout changes.
package codec

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

var (
	ErrEncode = errors.New("record encode failed")
	ErrDecode = errors.New("record decode failed")
)

// Marshal encodes v. Failures are marked ErrEncode.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "msgpack encode"), ErrEncode)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into v. It fails with ErrDecode on empty input, a
// nil value, fields the record type does not know, type mismatches and
// bytes left over after the value.
func Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return errors.Mark(errors.New("empty record"), ErrDecode)
	}
	if data[0] == msgpcode.Nil {
		return errors.Mark(errors.New("nil record"), ErrDecode)
	}

	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.DisallowUnknownFields(true)
	if err := dec.Decode(v); err != nil {
		return errors.Mark(errors.Wrap(err, "msgpack decode"), ErrDecode)
	}
	if r.Len() != 0 {
		return errors.Mark(errors.Newf("%d trailing bytes", r.Len()), ErrDecode)
	}
	return nil
}
