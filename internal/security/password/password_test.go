package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndMatch(t *testing.T) {
	t.Parallel()

	hash, err := Hash("hunter22")
	require.NoError(t, err)

	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, Matches(hash, "hunter22"))
	assert.False(t, Matches(hash, "hunter23"))
}

func TestHash_IsSalted(t *testing.T) {
	t.Parallel()

	a, err := Hash("same")
	require.NoError(t, err)
	b, err := Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestMatches_EmptyHashNeverMatches(t *testing.T) {
	t.Parallel()

	assert.False(t, Matches("", ""))
	assert.False(t, Matches("", "anything"))
	assert.False(t, Matches("not-bcrypt", "anything"))
}
