package mathutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryanlong1004/lucida-flow/mathutil"
)

func TestClamp(t *testing.T) {
	t.Parallel()
	assert.Exactly(t, 5, mathutil.Clamp(5, 0, 10))
	assert.Exactly(t, 0, mathutil.Clamp(-3, 0, 10))
	assert.Exactly(t, 10, mathutil.Clamp(42, 0, 10))
	assert.Exactly(t, 300.0, mathutil.Clamp(512.0, 0.0, 300.0))
}

func TestMax(t *testing.T) {
	t.Parallel()
	assert.Exactly(t, 4.0, mathutil.Max(2.0, 4.0))
	assert.Exactly(t, 4.0, mathutil.Max(4.0, -2.0))
}
