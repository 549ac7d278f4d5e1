package gateway

import "github.com/mesh-intelligence/typestore/pkg/types"

// Bootstrap rows describing the Type and Property types. Identity rows are
// listed first and in an order where every type_id already exists (id 1
// references itself), so the attribute rows that follow never point at a
// missing object.
var bootstrapObjects = []struct {
	id, typeID int64
}{
	{types.TypeTypeID, types.TypeTypeID},
	{types.PropertyTypeID, types.TypeTypeID},
	{types.TypeNamePropertyID, types.PropertyTypeID},
	{types.PropertyOwnerPropertyID, types.PropertyTypeID},
	{types.PropertyNamePropertyID, types.PropertyTypeID},
	{types.PropertyTypePropertyID, types.PropertyTypeID},
}

var bootstrapStrings = []struct {
	objectID, propertyID int64
	value                string
}{
	{types.TypeTypeID, types.TypeNamePropertyID, types.TypeTypeName},
	{types.PropertyTypeID, types.TypeNamePropertyID, types.PropertyTypeName},

	{types.TypeNamePropertyID, types.PropertyNamePropertyID, types.TypeNameProperty},
	{types.TypeNamePropertyID, types.PropertyTypePropertyID, types.DataTypeString},

	{types.PropertyOwnerPropertyID, types.PropertyNamePropertyID, types.PropertyOwnerProperty},
	{types.PropertyOwnerPropertyID, types.PropertyTypePropertyID, types.TypeTypeName},

	{types.PropertyNamePropertyID, types.PropertyNamePropertyID, types.PropertyNameProperty},
	{types.PropertyNamePropertyID, types.PropertyTypePropertyID, types.DataTypeString},

	{types.PropertyTypePropertyID, types.PropertyNamePropertyID, types.PropertyTypeProperty},
	{types.PropertyTypePropertyID, types.PropertyTypePropertyID, types.DataTypeString},
}

var bootstrapReferences = []struct {
	objectID, propertyID, valueID int64
}{
	{types.TypeNamePropertyID, types.PropertyOwnerPropertyID, types.TypeTypeID},
	{types.PropertyOwnerPropertyID, types.PropertyOwnerPropertyID, types.PropertyTypeID},
	{types.PropertyNamePropertyID, types.PropertyOwnerPropertyID, types.PropertyTypeID},
	{types.PropertyTypePropertyID, types.PropertyOwnerPropertyID, types.PropertyTypeID},
}

const (
	insertBootstrapObject    = `INSERT INTO objects (object_id, type_id) VALUES (?, ?)`
	insertBootstrapString    = `INSERT INTO string_values (object_id, property_id, value) VALUES (?, ?, ?)`
	insertBootstrapReference = `INSERT INTO reference_values (object_id, property_id, value_id) VALUES (?, ?, ?)`
)
