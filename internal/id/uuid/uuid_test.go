// Package uuid includes tests for the UUID generator wrapper.
package uuid

import (
	"testing"

	goUUID "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGeneratorNewID ensures generated IDs are unique, valid version 7 UUIDs.
func TestGeneratorNewID(t *testing.T) {
	t.Parallel()

	gen := NewUUIDGenerator()
	id1, err := gen.NewID()
	require.NoError(t, err)
	id2, err := gen.NewID()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	parsed, err := goUUID.Parse(id1)
	require.NoError(t, err)
	assert.Equal(t, goUUID.Version(7), parsed.Version())
	_, err = goUUID.Parse(id2)
	require.NoError(t, err)
}
