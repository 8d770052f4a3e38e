package random_test

import (
	"testing"

	"github.com/kishanss4/corrupt-watch/internal/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLetters(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		s, err := random.Letters(20)
		require.NoError(t, err)
		assert.Len(t, s, 20)
		assert.False(t, seen[s], "duplicate random string")
		seen[s] = true
	}
}

func TestLettersZeroLength(t *testing.T) {
	s, err := random.Letters(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}
