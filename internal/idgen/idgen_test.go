package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Length(t *testing.T) {
	for _, n := range []int{1, 8, 12, 21} {
		id := New(n)
		assert.Len(t, id, n)
	}
}

func TestNew_AlphabetOnly(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewDefault()
		for _, c := range id {
			assert.True(t, strings.ContainsRune(alphabet, c), "unexpected character %q in %q", c, id)
		}
	}
}

func TestNew_NoObviousCollisions(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := NewDefault()
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestNew_PanicsOnBadLength(t *testing.T) {
	assert.Panics(t, func() { New(0) })
}
