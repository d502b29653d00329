package sliceutil_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryanlong1004/lucida-flow/sliceutil"
)

func TestMap(t *testing.T) {
	t.Parallel()
	out := sliceutil.Map([]int{1, 2, 3}, strconv.Itoa)
	assert.Exactly(t, []string{"1", "2", "3"}, out)
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	s := []int{1, 2, 3, 4}
	assert.Exactly(t, []int{1, 2}, sliceutil.Truncate(s, 2))
	assert.Exactly(t, s, sliceutil.Truncate(s, 0))
	assert.Exactly(t, s, sliceutil.Truncate(s, 10))
}
