package store

import (
	"fmt"

	"github.com/mesh-intelligence/typestore/pkg/types"
)

// Bootstrap fills an empty catalog with the built-in Type and Property
// types. The definitions are circular (Type has a Name property owned by
// Type; every Property has an Owner referencing Type), so each step builds
// one entity from raw ids and registers it before the next step, which may
// depend on it, runs.
func (c *Catalog) Bootstrap(s *Store) error {
	typeType, err := c.bootstrapType(s, types.TypeTypeID, types.TypeTypeName)
	if err != nil {
		return err
	}
	propertyType, err := c.bootstrapType(s, types.PropertyTypeID, types.PropertyTypeName)
	if err != nil {
		return err
	}

	steps := []struct {
		owner    *Entity
		id       int64
		name     string
		dataType string
	}{
		{typeType, types.TypeNamePropertyID, types.TypeNameProperty, types.DataTypeString},
		{propertyType, types.PropertyOwnerPropertyID, types.PropertyOwnerProperty, types.TypeTypeName},
		{propertyType, types.PropertyNamePropertyID, types.PropertyNameProperty, types.DataTypeString},
		{propertyType, types.PropertyTypePropertyID, types.PropertyTypeProperty, types.DataTypeString},
	}
	for _, st := range steps {
		if err := c.bootstrapProperty(s, st.owner, st.id, st.name, st.dataType); err != nil {
			return err
		}
	}
	return nil
}

// bootstrapType builds the bare shell of a built-in type: its id, its
// linkage to the Type type, and its name stored under the raw Name
// property id, which need not be registered yet.
func (c *Catalog) bootstrapType(s *Store, id int64, name string) (*Entity, error) {
	e := newEntity(s, types.TypeTypeID, types.TypeTypeName, StatePersisted)
	e.id = id
	e.strings[types.TypeNamePropertyID] = name
	if err := c.RegisterType(e); err != nil {
		return nil, fmt.Errorf("bootstrap type %s: %w", name, err)
	}
	return e, nil
}

// bootstrapProperty attaches one built-in property to an already
// registered owner. The owner is held by id only; the catalog stays the sole
// owner of the built-in entities.
func (c *Catalog) bootstrapProperty(s *Store, owner *Entity, id int64, name, dataType string) error {
	e := newEntity(s, types.PropertyTypeID, types.PropertyTypeName, StatePersisted)
	e.id = id
	e.refs[types.PropertyOwnerPropertyID] = &reference{id: owner.id}
	e.strings[types.PropertyNamePropertyID] = name
	e.strings[types.PropertyTypePropertyID] = dataType
	if err := c.RegisterProperty(e); err != nil {
		return fmt.Errorf("bootstrap property %s: %w", name, err)
	}
	return nil
}

// LoadUserDefinedTypesAndProperties registers every stored Type and then
// every stored Property with an id outside the built-in range. Types go
// first because properties reference them.
func (c *Catalog) LoadUserDefinedTypesAndProperties(s *Store) error {
	typeKey, err := s.NewEntity(types.TypeTypeName)
	if err != nil {
		return err
	}
	typeEntities, err := s.FetchByKey(typeKey)
	if err != nil {
		return fmt.Errorf("load types: %w", err)
	}
	for _, e := range typeEntities {
		if e.id < types.FirstUserID {
			continue
		}
		if err := c.RegisterType(e); err != nil {
			return fmt.Errorf("load type %d: %w", e.id, err)
		}
	}

	propertyKey, err := s.NewEntity(types.PropertyTypeName)
	if err != nil {
		return err
	}
	propertyEntities, err := s.FetchByKey(propertyKey)
	if err != nil {
		return fmt.Errorf("load properties: %w", err)
	}
	for _, e := range propertyEntities {
		if e.id < types.FirstUserID {
			continue
		}
		if err := c.RegisterProperty(e); err != nil {
			return fmt.Errorf("load property %d: %w", e.id, err)
		}
	}
	return nil
}
