package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 0, ClampLimit(-5))
	assert.Equal(t, 0, ClampLimit(0))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, DefaultLimit, ClampLimit(DefaultLimit))
	assert.Equal(t, MaxLimit, ClampLimit(MaxLimit+1))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(40, 0))
	assert.Equal(t, 0, Offset(40, -1))
	assert.Equal(t, 80, Offset(40, 2))
	assert.Equal(t, MaxLimit*3, Offset(MaxLimit*2, 3))
	assert.Equal(t, 0, Offset(0, 5))
}

func TestOffsetSaturates(t *testing.T) {
	assert.Equal(t, math.MaxInt, Offset(2, math.MaxInt/2+1))
	assert.Equal(t, math.MaxInt, Offset(MaxLimit, math.MaxInt))
	assert.Equal(t, math.MaxInt-1, Offset(2, math.MaxInt/2))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("Forward")
	require.NoError(t, err)
	assert.Equal(t, Forward, d)

	d, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Backward, d)
	assert.Equal(t, "backward", d.String())

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
