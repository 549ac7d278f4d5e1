package store

import (
	"github.com/mesh-intelligence/typestore/pkg/types"
)

// DataKind says how a property's values are stored.
type DataKind int

// Property data kinds. A reference property also records the Type its
// values must belong to.
const (
	KindString DataKind = iota
	KindReference
)

func (k DataKind) String() string {
	if k == KindReference {
		return "reference"
	}
	return "string"
}

// TypeDef is the catalog entry for one registered Type.
type TypeDef struct {
	ID     int64
	Name   string
	Entity *Entity

	properties []*PropertyDef
	byName     map[string]*PropertyDef
	byID       map[int64]*PropertyDef
}

// Properties returns the type's properties in registration order.
func (td *TypeDef) Properties() []*PropertyDef {
	out := make([]*PropertyDef, len(td.properties))
	copy(out, td.properties)
	return out
}

// PropertyDef is the catalog entry for one registered Property. Kind and
// RefTypeID are decided once at registration.
type PropertyDef struct {
	ID        int64
	OwnerID   int64
	Name      string
	DataType  string
	Kind      DataKind
	RefTypeID int64
	Entity    *Entity
}

// Catalog indexes every known Type and Property by name and id. It is
// owned by one session and only changes through bootstrap, registration of
// newly persisted definitions, and removal of deleted ones.
type Catalog struct {
	types  []*TypeDef
	byName map[string]*TypeDef
	byID   map[int64]*TypeDef
}

func newCatalog() *Catalog {
	return &Catalog{
		byName: make(map[string]*TypeDef),
		byID:   make(map[int64]*TypeDef),
	}
}

// Types returns every registered type, built-ins first, in registration
// order.
func (c *Catalog) Types() []*TypeDef {
	out := make([]*TypeDef, len(c.types))
	copy(out, c.types)
	return out
}

// TypeByName returns the type registered under name.
func (c *Catalog) TypeByName(name string) (*TypeDef, error) {
	td, ok := c.byName[name]
	if !ok {
		return nil, types.Errorf(types.ErrUnknownType, "no type named %q", name)
	}
	return td, nil
}

// TypeByID returns the type registered under id.
func (c *Catalog) TypeByID(id int64) (*TypeDef, error) {
	td, ok := c.byID[id]
	if !ok {
		return nil, types.Errorf(types.ErrUnknownType, "no type with id %d", id)
	}
	return td, nil
}

// LookupPropertyByName returns the property called name on the type typeID.
func (c *Catalog) LookupPropertyByName(typeID int64, name string) (*PropertyDef, error) {
	td, err := c.TypeByID(typeID)
	if err != nil {
		return nil, err
	}
	pd, ok := td.byName[name]
	if !ok {
		return nil, types.Errorf(types.ErrUnknownProperty, "type %s has no property %q", td.Name, name)
	}
	return pd, nil
}

// LookupPropertyByID returns the property propertyID on the type typeID.
func (c *Catalog) LookupPropertyByID(typeID, propertyID int64) (*PropertyDef, error) {
	td, err := c.TypeByID(typeID)
	if err != nil {
		return nil, err
	}
	pd, ok := td.byID[propertyID]
	if !ok {
		return nil, types.Errorf(types.ErrUnknownProperty, "type %s has no property with id %d", td.Name, propertyID)
	}
	return pd, nil
}

// ValidateDataType reports whether s is the string marker or the name of a
// registered type.
func (c *Catalog) ValidateDataType(s string) bool {
	if s == types.DataTypeString {
		return true
	}
	_, ok := c.byName[s]
	return ok
}

// typeDefinition checks a Type entity and returns its name. A name already
// used by a different type is a duplicate.
func (c *Catalog) typeDefinition(e *Entity) (string, error) {
	if e.typeID != types.TypeTypeID {
		return "", types.Errorf(types.ErrTypeMismatch, "entity of type %s is not a Type", e.TypeName())
	}
	name, ok := e.strings[types.TypeNamePropertyID]
	if !ok || name == "" {
		return "", types.Errorf(types.ErrInvalidName, "type has no name")
	}
	if td, ok := c.byName[name]; ok && td.ID != e.id {
		return "", types.Errorf(types.ErrDuplicateName, "type %q already exists", name)
	}
	return name, nil
}

// propertyDefinition checks a Property entity and builds its catalog entry
// without registering it. The owner must be registered and the data type
// must validate.
func (c *Catalog) propertyDefinition(e *Entity) (*PropertyDef, *TypeDef, error) {
	if e.typeID != types.PropertyTypeID {
		return nil, nil, types.Errorf(types.ErrTypeMismatch, "entity of type %s is not a Property", e.TypeName())
	}
	ref, ok := e.refs[types.PropertyOwnerPropertyID]
	if !ok {
		return nil, nil, types.Errorf(types.ErrUnknownType, "property has no owner")
	}
	owner, err := c.TypeByID(ref.currentID())
	if err != nil {
		return nil, nil, err
	}
	name, ok := e.strings[types.PropertyNamePropertyID]
	if !ok || name == "" {
		return nil, nil, types.Errorf(types.ErrInvalidName, "property of %s has no name", owner.Name)
	}
	if pd, ok := owner.byName[name]; ok && pd.ID != e.id {
		return nil, nil, types.Errorf(types.ErrDuplicateName, "type %s already has property %q", owner.Name, name)
	}
	dataType, ok := e.strings[types.PropertyTypePropertyID]
	if !ok || !c.ValidateDataType(dataType) {
		return nil, nil, types.Errorf(types.ErrInvalidDataType, "property %s.%s has data type %q", owner.Name, name, dataType)
	}

	pd := &PropertyDef{
		ID:       e.id,
		OwnerID:  owner.ID,
		Name:     name,
		DataType: dataType,
		Kind:     KindString,
		Entity:   e,
	}
	if dataType != types.DataTypeString {
		pd.Kind = KindReference
		pd.RefTypeID = c.byName[dataType].ID
	}
	return pd, owner, nil
}

// RegisterType indexes a stored Type entity. Registering an id again
// replaces its name.
func (c *Catalog) RegisterType(e *Entity) error {
	name, err := c.typeDefinition(e)
	if err != nil {
		return err
	}
	if e.id == 0 {
		return types.Errorf(types.ErrTypeMismatch, "type %q has not been stored", name)
	}
	if td, ok := c.byID[e.id]; ok {
		delete(c.byName, td.Name)
		td.Name = name
		td.Entity = e
		c.byName[name] = td
		return nil
	}
	td := &TypeDef{
		ID:     e.id,
		Name:   name,
		Entity: e,
		byName: make(map[string]*PropertyDef),
		byID:   make(map[int64]*PropertyDef),
	}
	c.types = append(c.types, td)
	c.byName[name] = td
	c.byID[e.id] = td
	return nil
}

// RegisterProperty indexes a stored Property entity under its owner type.
// The owner must already be registered.
func (c *Catalog) RegisterProperty(e *Entity) error {
	pd, owner, err := c.propertyDefinition(e)
	if err != nil {
		return err
	}
	if e.id == 0 {
		return types.Errorf(types.ErrTypeMismatch, "property %q has not been stored", pd.Name)
	}
	if old, ok := owner.byID[e.id]; ok {
		delete(owner.byName, old.Name)
		*old = *pd
		owner.byName[pd.Name] = old
		return nil
	}
	// A re-stored property may have moved to another owner.
	c.removeProperty(e.id)
	owner.properties = append(owner.properties, pd)
	owner.byName[pd.Name] = pd
	owner.byID[pd.ID] = pd
	return nil
}

// unregister removes a deleted Type or Property entity from the catalog.
// Other entities are ignored.
func (c *Catalog) unregister(e *Entity) {
	switch e.typeID {
	case types.TypeTypeID:
		td, ok := c.byID[e.id]
		if !ok {
			return
		}
		delete(c.byID, td.ID)
		delete(c.byName, td.Name)
		for i, t := range c.types {
			if t == td {
				c.types = append(c.types[:i], c.types[i+1:]...)
				break
			}
		}
	case types.PropertyTypeID:
		c.removeProperty(e.id)
	}
}

// removeProperty drops the property id from whichever type holds it.
func (c *Catalog) removeProperty(id int64) {
	for _, td := range c.types {
		pd, ok := td.byID[id]
		if !ok {
			continue
		}
		delete(td.byID, pd.ID)
		delete(td.byName, pd.Name)
		for i, p := range td.properties {
			if p == pd {
				td.properties = append(td.properties[:i], td.properties[i+1:]...)
				break
			}
		}
		return
	}
}
