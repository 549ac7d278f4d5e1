package typestore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/typestore/pkg/types"
	"github.com/mesh-intelligence/typestore/pkg/typestore"
)

func TestOpen(t *testing.T) {
	s, err := typestore.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CreateType("Note")
	require.NoError(t, err)
	_, err = s.CreateProperty("Note", "Text", types.DataTypeString)
	require.NoError(t, err)

	var note *typestore.Entity
	note, err = s.NewEntity("Note")
	require.NoError(t, err)
	require.NoError(t, note.SetString("Text", "hello"))
	require.NoError(t, note.Persist())
	require.NoError(t, s.Commit())
	assert.Equal(t, typestore.StatePersisted, note.State())
}

func TestOpenInvalidConfig(t *testing.T) {
	_, err := typestore.Open(types.Config{})
	assert.ErrorIs(t, err, types.ErrBackendEmpty)
}
