// Package typestore is the public entry point for opening a typestore
// session. The session and entity types live in an internal package and
// are re-exported here as aliases.
//
// Example:
//
//	s, err := typestore.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".typestore-db",
//	})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
package typestore

import (
	"github.com/mesh-intelligence/typestore/internal/store"
	"github.com/mesh-intelligence/typestore/pkg/types"
)

// Version is the release of this module.
const Version = "0.3.0"

// Session is an open typestore session.
type Session = store.Store

// Entity is one object instance held by a Session.
type Entity = store.Entity

// Options carries optional collaborators such as a logger and a metrics
// registerer.
type Options = store.Options

// Entity lifecycle states.
const (
	StateTransient = store.StateTransient
	StatePersisted = store.StatePersisted
	StateDeleted   = store.StateDeleted
)

// Open opens a session on the backend described by cfg.
func Open(cfg types.Config) (*Session, error) {
	return store.Open(cfg, store.Options{})
}

// OpenWithOptions opens a session with the given collaborators.
func OpenWithOptions(cfg types.Config, opts Options) (*Session, error) {
	return store.Open(cfg, opts)
}
