// Package types defines the public constants, configuration, and error
// taxonomy shared by the typestore session, its entities, and the storage
// gateway.
//
// Types and properties are runtime data: a Type is an entity of the built-in
// type "Type" and a Property is an entity of the built-in type "Property".
// The ids and names of those built-ins are fixed here.
package types
