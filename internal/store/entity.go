package store

import (
	"github.com/mesh-intelligence/typestore/pkg/types"
)

// State is the lifecycle state of an Entity.
type State int

// Entity lifecycle states. Deleted is terminal.
const (
	StateTransient State = iota
	StatePersisted
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateTransient:
		return "transient"
	case StatePersisted:
		return "persisted"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// reference is the value slot of a reference property. A nil target means
// the id is recorded but not yet fetched; a missing slot means no value.
type reference struct {
	id     int64
	target *Entity
}

// currentID returns the id of the referenced entity. A target set while
// still transient may have been stored since.
func (r *reference) currentID() int64 {
	if r.target != nil {
		return r.target.id
	}
	return r.id
}

// Entity is one object instance of a runtime-defined type. Values are
// validated against the session catalog on every set and get. The type is
// held as an id and name; Type returns the catalog's entity for it.
type Entity struct {
	store    *Store
	id       int64
	typeID   int64
	typeName string // last known; read through TypeName
	state    State

	strings map[int64]string
	refs    map[int64]*reference
	dirty   map[int64]bool
}

func newEntity(s *Store, typeID int64, typeName string, state State) *Entity {
	return &Entity{
		store:    s,
		typeID:   typeID,
		typeName: typeName,
		state:    state,
		strings:  make(map[int64]string),
		refs:     make(map[int64]*reference),
		dirty:    make(map[int64]bool),
	}
}

// ID returns the entity id, or 0 if it has not been stored.
func (e *Entity) ID() int64 { return e.id }

// TypeID returns the id of the entity's type.
func (e *Entity) TypeID() int64 { return e.typeID }

// TypeName returns the current name of the entity's type. A type renamed
// after the entity was built reports its new name; a type no longer in the
// catalog reports the name it had when the entity was built.
func (e *Entity) TypeName() string {
	if td, err := e.store.catalog.TypeByID(e.typeID); err == nil {
		e.typeName = td.Name
	}
	return e.typeName
}

// State returns the lifecycle state.
func (e *Entity) State() State { return e.state }

// Type returns the Type entity describing this entity.
func (e *Entity) Type() (*Entity, error) {
	td, err := e.store.catalog.TypeByID(e.typeID)
	if err != nil {
		return nil, err
	}
	return td.Entity, nil
}

// property looks up a property of this entity's type by name and checks
// its kind.
func (e *Entity) property(name string, kind DataKind) (*PropertyDef, error) {
	pd, err := e.store.catalog.LookupPropertyByName(e.typeID, name)
	if err != nil {
		return nil, err
	}
	if pd.Kind != kind {
		return nil, types.Errorf(types.ErrTypeMismatch, "%s.%s holds %s values, not %s", e.TypeName(), name, pd.Kind, kind)
	}
	return pd, nil
}

// SetString records a string value for a String property and marks it
// modified.
func (e *Entity) SetString(propertyName, value string) error {
	pd, err := e.property(propertyName, KindString)
	if err != nil {
		return err
	}
	e.strings[pd.ID] = value
	e.dirty[pd.ID] = true
	return nil
}

// SetReference records value for a reference property whose data type is
// value's type, and marks it modified. A nil value is a no-op once the
// property is known to exist.
func (e *Entity) SetReference(propertyName string, value *Entity) error {
	pd, err := e.store.catalog.LookupPropertyByName(e.typeID, propertyName)
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	if pd.Kind != KindReference || pd.RefTypeID != value.typeID {
		return types.Errorf(types.ErrTypeMismatch, "%s.%s has data type %s, value is %s",
			e.TypeName(), propertyName, pd.DataType, value.TypeName())
	}
	e.refs[pd.ID] = &reference{id: value.id, target: value}
	e.dirty[pd.ID] = true
	return nil
}

// GetString returns the value of a String property and whether it is set.
func (e *Entity) GetString(propertyName string) (string, bool, error) {
	pd, err := e.property(propertyName, KindString)
	if err != nil {
		return "", false, err
	}
	v, ok := e.strings[pd.ID]
	return v, ok, nil
}

// ReferenceID returns the id recorded for a reference property without
// resolving it.
func (e *Entity) ReferenceID(propertyName string) (int64, bool, error) {
	pd, err := e.property(propertyName, KindReference)
	if err != nil {
		return 0, false, err
	}
	r, ok := e.refs[pd.ID]
	if !ok {
		return 0, false, nil
	}
	return r.currentID(), true, nil
}

// GetReference returns the entity referenced by a reference property, or
// nil if no value is set. The first read of a value known only by id
// fetches it; later reads return the same entity.
func (e *Entity) GetReference(propertyName string) (*Entity, error) {
	pd, err := e.property(propertyName, KindReference)
	if err != nil {
		return nil, err
	}
	r, ok := e.refs[pd.ID]
	if !ok {
		return nil, nil
	}
	if r.target != nil {
		return r.target, nil
	}
	target, err := e.store.resolve(pd, r.id)
	if err != nil {
		return nil, err
	}
	r.target = target
	return target, nil
}

// IsModified reports whether the property was set since the entity was
// built or last persisted.
func (e *Entity) IsModified(propertyName string) (bool, error) {
	pd, err := e.store.catalog.LookupPropertyByName(e.typeID, propertyName)
	if err != nil {
		return false, err
	}
	return e.dirty[pd.ID], nil
}

// Persist stores the entity: an insert for a transient entity, an update
// of the modified properties for a persisted one. A persisted Type or
// Property entity is registered in the catalog right away.
func (e *Entity) Persist() error {
	s := e.store
	if err := s.checkOpen(); err != nil {
		return err
	}
	if e.state == StateDeleted {
		return types.Errorf(types.ErrEntityDeleted, "persist deleted %s %d", e.TypeName(), e.id)
	}
	if types.IsReserved(e.id) {
		return types.Errorf(types.ErrProtectedEntity, "persist built-in %s %d", e.TypeName(), e.id)
	}
	if err := e.checkReferences(); err != nil {
		return err
	}
	if err := e.checkDefinition(); err != nil {
		return err
	}

	if e.state == StateTransient {
		id, err := s.insert(e)
		if err != nil {
			return err
		}
		e.id = id
	} else if err := s.update(e); err != nil {
		return err
	}
	e.state = StatePersisted
	e.dirty = make(map[int64]bool)

	switch e.typeID {
	case types.TypeTypeID:
		return s.catalog.RegisterType(e)
	case types.PropertyTypeID:
		return s.catalog.RegisterProperty(e)
	}
	return nil
}

// Delete removes the entity from storage. Built-in entities and entities
// that were never stored cannot be deleted.
func (e *Entity) Delete() error {
	s := e.store
	if err := s.checkOpen(); err != nil {
		return err
	}
	if e.state == StateDeleted {
		return types.Errorf(types.ErrEntityDeleted, "delete deleted %s %d", e.TypeName(), e.id)
	}
	if e.id < types.FirstUserID {
		return types.Errorf(types.ErrProtectedEntity, "delete %s %d", e.TypeName(), e.id)
	}
	if err := s.delete(e); err != nil {
		return err
	}
	e.state = StateDeleted
	s.catalog.unregister(e)
	return nil
}

// checkReferences fails if any reference value points at an entity that
// has not been stored.
func (e *Entity) checkReferences() error {
	for propertyID, r := range e.refs {
		if r.currentID() == 0 {
			return types.Errorf(types.ErrUnpersistedReference, "%s property %d references a transient %s",
				e.TypeName(), propertyID, r.target.TypeName())
		}
	}
	return nil
}

// checkDefinition validates Type and Property entities against the catalog
// before anything is written.
func (e *Entity) checkDefinition() error {
	switch e.typeID {
	case types.TypeTypeID:
		_, err := e.store.catalog.typeDefinition(e)
		return err
	case types.PropertyTypeID:
		_, _, err := e.store.catalog.propertyDefinition(e)
		return err
	}
	return nil
}
