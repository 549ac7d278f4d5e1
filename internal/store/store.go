// Package store implements typed entity storage over generic attribute
// tables. Types and Properties are themselves entities of the built-in
// Type and Property types; a Store keeps them indexed in a Catalog and
// validates every entity operation against it.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/typestore/internal/gateway"
	"github.com/mesh-intelligence/typestore/pkg/types"
)

// Gateway is the relational client a Store persists through. Every call
// joins one ambient transaction that lasts until Commit or Rollback.
type Gateway interface {
	Exec(query string, args ...any) (int64, error)
	Query(query string, args ...any) (*sql.Rows, error)
	NextID() (int64, error)
	Commit() error
	Rollback() error
	Initialized() (bool, error)
	Reset() error
	Close() error
}

var _ Gateway = (*gateway.Gateway)(nil)

// Options carries optional collaborators for a Store.
type Options struct {
	// Logger receives session events. Nil discards them.
	Logger *slog.Logger
	// Registerer receives the gateway counters when Open builds the gateway.
	Registerer prometheus.Registerer
}

// Store is one session: a gateway, the catalog built from it, and the
// entities handed out through it. A Store is not safe for concurrent use.
type Store struct {
	gw        Gateway
	catalog   *Catalog
	log       *slog.Logger
	id        string
	batchSize int
	closed    bool
}

// Open connects to the backend in cfg and attaches a session to it.
func Open(cfg types.Config, opts Options) (*Store, error) {
	gw, err := gateway.Open(cfg, gateway.Options{Registerer: opts.Registerer})
	if err != nil {
		return nil, err
	}
	s, err := Attach(gw, cfg, opts)
	if err != nil {
		gw.Close()
		return nil, err
	}
	return s, nil
}

// Attach starts a session on an open gateway. The storage is reset to the
// bootstrap rows when cfg.Reset is set or the tables do not exist yet.
// The catalog is then bootstrapped and extended with every stored Type and
// Property.
func Attach(gw Gateway, cfg types.Config, opts Options) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	sessionID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	s := &Store{
		gw:        gw,
		log:       log,
		id:        sessionID.String(),
		batchSize: cfg.GetBatchSize(),
	}

	reset := cfg.Reset
	if !reset {
		ok, err := gw.Initialized()
		if err != nil {
			return nil, err
		}
		reset = !ok
	}
	if reset {
		if err := gw.Reset(); err != nil {
			return nil, err
		}
		s.log.Info("storage reset", "session", s.id, "backend", cfg.Backend)
	}
	if err := s.loadCatalog(); err != nil {
		return nil, err
	}
	s.log.Info("session opened", "session", s.id, "backend", cfg.Backend, "types", len(s.catalog.types))
	return s, nil
}

// loadCatalog rebuilds the catalog from the built-ins and storage.
func (s *Store) loadCatalog() error {
	s.catalog = newCatalog()
	if err := s.catalog.Bootstrap(s); err != nil {
		return err
	}
	if err := s.catalog.LoadUserDefinedTypesAndProperties(s); err != nil {
		return err
	}
	s.log.Info("catalog loaded", "session", s.id, "types", len(s.catalog.types))
	return nil
}

func (s *Store) checkOpen() error {
	if s.closed {
		return types.Errorf(types.ErrClosedSession, "session %s is closed", s.id)
	}
	return nil
}

// ID returns the session id used in log records.
func (s *Store) ID() string { return s.id }

// Catalog returns the session catalog.
func (s *Store) Catalog() *Catalog { return s.catalog }

// Commit makes every change since the last commit or rollback durable.
func (s *Store) Commit() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.gw.Commit()
}

// Rollback discards every change since the last commit or rollback. In
// memory entities are left as they are; re-fetch to observe storage.
func (s *Store) Rollback() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.gw.Rollback()
}

// Reset drops all stored data, recreates the bootstrap rows, and rebuilds
// the catalog. Entities handed out earlier are stale afterwards.
func (s *Store) Reset() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.gw.Reset(); err != nil {
		return err
	}
	s.log.Info("storage reset", "session", s.id)
	return s.loadCatalog()
}

// Close discards uncommitted work and releases the connection.
func (s *Store) Close() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.closed = true
	s.log.Info("session closed", "session", s.id)
	return s.gw.Close()
}

// NewEntity returns a transient entity of the named type.
func (s *Store) NewEntity(typeName string) (*Entity, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	td, err := s.catalog.TypeByName(typeName)
	if err != nil {
		return nil, err
	}
	return newEntity(s, td.ID, td.Name, StateTransient), nil
}

// CreateType persists a new Type called name.
func (s *Store) CreateType(name string) (*Entity, error) {
	e, err := s.NewEntity(types.TypeTypeName)
	if err != nil {
		return nil, err
	}
	if err := e.SetString(types.TypeNameProperty, name); err != nil {
		return nil, err
	}
	if err := e.Persist(); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateProperty persists a new Property called name on the type
// typeName. dataType is DataTypeString or the name of a registered type.
func (s *Store) CreateProperty(typeName, name, dataType string) (*Entity, error) {
	e, err := s.NewEntity(types.PropertyTypeName)
	if err != nil {
		return nil, err
	}
	owner, err := s.catalog.TypeByName(typeName)
	if err != nil {
		return nil, err
	}
	if err := e.SetReference(types.PropertyOwnerProperty, owner.Entity); err != nil {
		return nil, err
	}
	if err := e.SetString(types.PropertyNameProperty, name); err != nil {
		return nil, err
	}
	if err := e.SetString(types.PropertyTypeProperty, dataType); err != nil {
		return nil, err
	}
	if err := e.Persist(); err != nil {
		return nil, err
	}
	return e, nil
}

// Type returns the Type entity registered under name.
func (s *Store) Type(name string) (*Entity, error) {
	td, err := s.catalog.TypeByName(name)
	if err != nil {
		return nil, err
	}
	return td.Entity, nil
}

// TypeNames returns the registered type names, built-ins first.
func (s *Store) TypeNames() []string {
	names := make([]string, 0, len(s.catalog.types))
	for _, td := range s.catalog.types {
		names = append(names, td.Name)
	}
	return names
}

// PropertiesForType describes the properties of the named type in the
// order they were registered.
func (s *Store) PropertiesForType(typeName string) ([]types.PropertyInfo, error) {
	td, err := s.catalog.TypeByName(typeName)
	if err != nil {
		return nil, err
	}
	out := make([]types.PropertyInfo, 0, len(td.properties))
	for _, pd := range td.properties {
		out = append(out, types.PropertyInfo{Name: pd.Name, DataType: pd.DataType})
	}
	return out, nil
}
