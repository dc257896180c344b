package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	tok, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, tok, "missing file is an empty session")

	require.NoError(t, s.Save("tok123"))
	tok, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok123", tok)

	require.NoError(t, s.Clear())
	tok, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	// Clearing twice is fine.
	require.NoError(t, s.Clear())
}
