package pagination

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// Direction selects which way a timestamp range read walks the index.
type Direction int

const (
	// Forward walks increasing timestamps starting at the first key >= ts.
	Forward Direction = iota
	// Backward walks decreasing timestamps starting at the first key <= ts.
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "unknown"
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "fwd", "asc":
		return Forward, nil
	case "backward", "back", "desc", "":
		return Backward, nil
	}
	return Backward, errors.Newf("unknown direction %q", s)
}

// ClampLimit bounds limit to MaxLimit. Non-positive limits stay 0, which
// range reads answer with an empty result.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Offset is the number of index entries skipped to reach page. It saturates
// at math.MaxInt rather than wrapping.
func Offset(limit, page int) int {
	l := ClampLimit(limit)
	if page <= 0 || l == 0 {
		return 0
	}
	if page > math.MaxInt/l {
		return math.MaxInt
	}
	return l * page
}
