package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

const maxLineBytes = 4 << 20

// ReadEvents decodes one JSON event per line from r. Blank lines are
// ignored; a malformed line fails with its line number.
func ReadEvents(r io.Reader) ([]*Event, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxLineBytes)

	var (
		out  []*Event
		line int
	)
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		ev := new(Event)
		if err := json.Unmarshal(raw, ev); err != nil {
			return out, errors.Wrapf(err, "line %d", line)
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return out, errors.Wrap(err, "read events")
	}
	return out, nil
}
