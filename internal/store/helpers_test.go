package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/typestore/pkg/types"
)

// openTestStore opens a session on a fresh SQLite database in dir.
func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dir}, Options{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if !s.closed {
			_ = s.Close()
		}
	})
	return s
}

// defineAddressBook creates the Address and Person types used across the
// tests.
func defineAddressBook(t *testing.T, s *Store) {
	t.Helper()
	for _, name := range []string{"Address", "Person"} {
		_, err := s.CreateType(name)
		require.NoError(t, err)
	}
	props := []struct{ owner, name, dataType string }{
		{"Address", "Street", types.DataTypeString},
		{"Address", "City", types.DataTypeString},
		{"Person", "FirstName", types.DataTypeString},
		{"Person", "LastName", types.DataTypeString},
		{"Person", "HomeAddress", "Address"},
	}
	for _, p := range props {
		_, err := s.CreateProperty(p.owner, p.name, p.dataType)
		require.NoError(t, err)
	}
}

// newAddress persists an Address with the given street and city.
func newAddress(t *testing.T, s *Store, street, city string) *Entity {
	t.Helper()
	e, err := s.NewEntity("Address")
	require.NoError(t, err)
	require.NoError(t, e.SetString("Street", street))
	require.NoError(t, e.SetString("City", city))
	require.NoError(t, e.Persist())
	return e
}

// countObjects returns the number of identity rows.
func countObjects(t *testing.T, s *Store) int {
	t.Helper()
	rows, err := s.gw.Query("SELECT COUNT(*) FROM objects")
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	return n
}
