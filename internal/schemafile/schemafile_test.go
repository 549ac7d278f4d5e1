package schemafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/typestore/internal/store"
	"github.com/mesh-intelligence/typestore/pkg/types"
)

const addressBook = `types:
  - name: Person
    properties:
      - {name: FirstName, type: String}
      - {name: HomeAddress, type: Address}
  - name: Address
    properties:
      - name: Street
        type: String
      - name: City
        type: String
`

func openSession(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		check   func(t *testing.T, doc *Document)
	}{
		{
			name:  "address book",
			input: addressBook,
			check: func(t *testing.T, doc *Document) {
				require.Len(t, doc.Types, 2)
				assert.Equal(t, "Person", doc.Types[0].Name)
				assert.Equal(t, types.PropertyInfo{Name: "HomeAddress", DataType: "Address"}, doc.Types[0].Properties[1])
			},
		},
		{
			name:  "empty document",
			input: "",
			check: func(t *testing.T, doc *Document) {
				assert.Empty(t, doc.Types)
			},
		},
		{
			name:    "type without name",
			input:   "types:\n  - properties: []\n",
			wantErr: types.ErrInvalidName,
		},
		{
			name:    "repeated type",
			input:   "types:\n  - name: A\n  - name: A\n",
			wantErr: types.ErrDuplicateName,
		},
		{
			name:    "repeated property",
			input:   "types:\n  - name: A\n    properties:\n      - {name: X, type: String}\n      - {name: X, type: String}\n",
			wantErr: types.ErrDuplicateName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, doc)
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("types: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(addressBook), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, doc.Types, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyCreatesMissingDefinitions(t *testing.T) {
	s := openSession(t)
	doc, err := Parse([]byte(addressBook))
	require.NoError(t, err)

	res, err := Apply(s, doc)
	require.NoError(t, err)
	assert.Equal(t, Result{TypesCreated: 2, PropertiesCreated: 4}, res)

	props, err := s.PropertiesForType("Person")
	require.NoError(t, err)
	assert.Equal(t, []types.PropertyInfo{
		{Name: "FirstName", DataType: types.DataTypeString},
		{Name: "HomeAddress", DataType: "Address"},
	}, props)

	// Applying the same document again changes nothing.
	res, err = Apply(s, doc)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestApplyExtendsExistingType(t *testing.T) {
	s := openSession(t)
	_, err := s.CreateType("Address")
	require.NoError(t, err)
	_, err = s.CreateProperty("Address", "Street", types.DataTypeString)
	require.NoError(t, err)

	doc, err := Parse([]byte(addressBook))
	require.NoError(t, err)
	res, err := Apply(s, doc)
	require.NoError(t, err)
	assert.Equal(t, Result{TypesCreated: 1, PropertiesCreated: 3}, res)
}

func TestApplyRejectsConflictingDataType(t *testing.T) {
	s := openSession(t)
	_, err := s.CreateType("Address")
	require.NoError(t, err)
	_, err = s.CreateProperty("Address", "City", "Address")
	require.NoError(t, err)

	doc, err := Parse([]byte(addressBook))
	require.NoError(t, err)
	_, err = Apply(s, doc)
	assert.ErrorIs(t, err, types.ErrTypeMismatch)
	assert.NotContains(t, s.TypeNames(), "Person", "nothing is created after a conflict")
}

func TestApplyUnknownDataType(t *testing.T) {
	s := openSession(t)
	doc, err := Parse([]byte("types:\n  - name: A\n    properties:\n      - {name: X, type: Missing}\n"))
	require.NoError(t, err)
	_, err = Apply(s, doc)
	assert.ErrorIs(t, err, types.ErrInvalidDataType)
}

func TestExportRoundTrip(t *testing.T) {
	s := openSession(t)
	doc, err := Parse([]byte(addressBook))
	require.NoError(t, err)
	_, err = Apply(s, doc)
	require.NoError(t, err)

	exported, err := Export(s)
	require.NoError(t, err)
	require.Len(t, exported.Types, 2)
	assert.Equal(t, "Person", exported.Types[0].Name)
	assert.Equal(t, "Address", exported.Types[1].Name)

	data, err := Marshal(exported)
	require.NoError(t, err)

	other := openSession(t)
	reparsed, err := Parse(data)
	require.NoError(t, err)
	_, err = Apply(other, reparsed)
	require.NoError(t, err)
	assert.Equal(t, s.TypeNames(), other.TypeNames())
}

func TestExportEmptyCatalog(t *testing.T) {
	s := openSession(t)
	doc, err := Export(s)
	require.NoError(t, err)
	assert.Empty(t, doc.Types)
}

func TestExportKeepsPropertiesAddedToBuiltins(t *testing.T) {
	s := openSession(t)
	_, err := s.CreateProperty(types.TypeTypeName, "Description", types.DataTypeString)
	require.NoError(t, err)

	exported, err := Export(s)
	require.NoError(t, err)
	require.Len(t, exported.Types, 1)
	assert.Equal(t, TypeSpec{
		Name:       types.TypeTypeName,
		Properties: []types.PropertyInfo{{Name: "Description", DataType: types.DataTypeString}},
	}, exported.Types[0])

	other := openSession(t)
	res, err := Apply(other, exported)
	require.NoError(t, err)
	assert.Equal(t, Result{PropertiesCreated: 1}, res)
	props, err := other.PropertiesForType(types.TypeTypeName)
	require.NoError(t, err)
	assert.Contains(t, props, types.PropertyInfo{Name: "Description", DataType: types.DataTypeString})
}
