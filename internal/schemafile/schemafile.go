// Package schemafile reads and writes YAML schema documents and applies
// them to a typestore session.
//
// A document lists types and their properties:
//
//	types:
//	  - name: Address
//	    properties:
//	      - {name: Street, type: String}
//	  - name: Person
//	    properties:
//	      - {name: HomeAddress, type: Address}
package schemafile

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/typestore/internal/store"
	"github.com/mesh-intelligence/typestore/pkg/types"
)

// Document is the top level of a schema file.
type Document struct {
	Types []TypeSpec `yaml:"types" json:"types"`
}

// TypeSpec declares one type and its properties.
type TypeSpec struct {
	Name       string               `yaml:"name" json:"name"`
	Properties []types.PropertyInfo `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// Definer is the part of a session that schema documents are applied to.
type Definer interface {
	TypeNames() []string
	PropertiesForType(typeName string) ([]types.PropertyInfo, error)
	CreateType(name string) (*store.Entity, error)
	CreateProperty(typeName, name, dataType string) (*store.Entity, error)
}

// Result counts the definitions created by Apply.
type Result struct {
	TypesCreated      int `json:"types_created"`
	PropertiesCreated int `json:"properties_created"`
}

// Load reads and parses the schema file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a schema document and checks it for empty and repeated
// names.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	seen := make(map[string]bool, len(d.Types))
	for i, ts := range d.Types {
		if ts.Name == "" {
			return types.Errorf(types.ErrInvalidName, "type %d has no name", i+1)
		}
		if seen[ts.Name] {
			return types.Errorf(types.ErrDuplicateName, "type %q declared twice", ts.Name)
		}
		seen[ts.Name] = true

		props := make(map[string]bool, len(ts.Properties))
		for j, p := range ts.Properties {
			if p.Name == "" {
				return types.Errorf(types.ErrInvalidName, "property %d of %s has no name", j+1, ts.Name)
			}
			if props[p.Name] {
				return types.Errorf(types.ErrDuplicateName, "property %s.%s declared twice", ts.Name, p.Name)
			}
			props[p.Name] = true
		}
	}
	return nil
}

// Marshal encodes doc as YAML.
func Marshal(doc *Document) ([]byte, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// Apply creates every type and property in doc that the session does not
// have yet. Types are created before properties so a property may use any
// type in the document as its data type. A property that exists with a
// different data type fails before anything is created. Apply does not
// commit.
func Apply(s Definer, doc *Document) (Result, error) {
	var res Result

	existing := make(map[string]map[string]string)
	for _, name := range s.TypeNames() {
		props, err := s.PropertiesForType(name)
		if err != nil {
			return res, err
		}
		byName := make(map[string]string, len(props))
		for _, p := range props {
			byName[p.Name] = p.DataType
		}
		existing[name] = byName
	}

	for _, ts := range doc.Types {
		for _, p := range ts.Properties {
			if dataType, ok := existing[ts.Name][p.Name]; ok && dataType != p.DataType {
				return res, types.Errorf(types.ErrTypeMismatch, "property %s.%s is %s, schema declares %s",
					ts.Name, p.Name, dataType, p.DataType)
			}
		}
	}

	for _, ts := range doc.Types {
		if _, ok := existing[ts.Name]; ok {
			continue
		}
		if _, err := s.CreateType(ts.Name); err != nil {
			return res, fmt.Errorf("creating type %s: %w", ts.Name, err)
		}
		existing[ts.Name] = map[string]string{}
		res.TypesCreated++
	}

	for _, ts := range doc.Types {
		for _, p := range ts.Properties {
			if _, ok := existing[ts.Name][p.Name]; ok {
				continue
			}
			if _, err := s.CreateProperty(ts.Name, p.Name, p.DataType); err != nil {
				return res, fmt.Errorf("creating property %s.%s: %w", ts.Name, p.Name, err)
			}
			existing[ts.Name][p.Name] = p.DataType
			res.PropertiesCreated++
		}
	}
	return res, nil
}

// builtinProperties names the properties every session defines on the
// built-in types.
var builtinProperties = map[string][]string{
	types.TypeTypeName:     {types.TypeNameProperty},
	types.PropertyTypeName: {types.PropertyOwnerProperty, types.PropertyNameProperty, types.PropertyTypeProperty},
}

// Export describes every user-defined type of the session. The built-in
// Type and Property types appear only when properties were added to them,
// and then list only those.
func Export(s Definer) (*Document, error) {
	doc := &Document{Types: []TypeSpec{}}
	for _, name := range s.TypeNames() {
		props, err := s.PropertiesForType(name)
		if err != nil {
			return nil, err
		}
		if builtin, ok := builtinProperties[name]; ok {
			props = withoutNames(props, builtin)
			if len(props) == 0 {
				continue
			}
		}
		doc.Types = append(doc.Types, TypeSpec{Name: name, Properties: props})
	}
	return doc, nil
}

func withoutNames(props []types.PropertyInfo, names []string) []types.PropertyInfo {
	out := props[:0:0]
	for _, p := range props {
		if !slices.Contains(names, p.Name) {
			out = append(out, p)
		}
	}
	return out
}
