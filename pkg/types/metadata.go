package types

// Built-in Type and Property ids. Ids below FirstUserID are reserved for this
// metadata; id 0 marks an entity that has not been stored yet.
const (
	TypeTypeID     int64 = 1
	PropertyTypeID int64 = 2

	TypeNamePropertyID      int64 = 5
	PropertyOwnerPropertyID int64 = 6
	PropertyNamePropertyID  int64 = 7
	PropertyTypePropertyID  int64 = 8

	// FirstUserID is the first id handed out by the identity generator.
	FirstUserID int64 = 100
)

// Built-in type and property names.
const (
	TypeTypeName     = "Type"
	PropertyTypeName = "Property"

	// TypeNameProperty is the Name property of the Type type.
	TypeNameProperty = "Name"

	// Properties of the Property type.
	PropertyOwnerProperty = "Owner"
	PropertyNameProperty  = "Name"
	PropertyTypeProperty  = "Type"
)

// DataTypeString is the data type marker for string-valued properties. Any
// other data type names a registered Type and makes the property a reference.
const DataTypeString = "String"

// IsReserved reports whether id falls in the built-in metadata range.
func IsReserved(id int64) bool {
	return id > 0 && id < FirstUserID
}

// PropertyInfo describes one property of a type: its name and declared data
// type, either DataTypeString or a type name.
type PropertyInfo struct {
	Name     string `json:"name" yaml:"name"`
	DataType string `json:"type" yaml:"type"`
}
