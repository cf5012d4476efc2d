package compiler_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/compiler"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/sequence"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/structure"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports/tests"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/schema"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
)

func TestParseDescription_BuiltInKinds(t *testing.T) {
	for _, want := range []*description.Description{sequence.Description(), structure.Description()} {
		t.Run(want.ID, func(t *testing.T) {
			data, err := yaml.Marshal(want)
			require.NoError(t, err)

			got, err := compiler.NewParser().ParseDescription(data)
			require.NoError(t, err)

			wantJSON, err := json.Marshal(want)
			require.NoError(t, err)
			gotJSON, err := json.Marshal(got)
			require.NoError(t, err)
			assert.JSONEq(t, string(wantJSON), string(gotJSON))

			_, err = description.Compile(got, uml.Metamodel())
			assert.NoError(t, err)
		})
	}
}

func TestParseDescription_Params(t *testing.T) {
	doc := `
id: notes
domain_type: Package
nodes:
  - name: Note
    domain_type: Comment
    candidates: {feature: ownedComment}
    palette:
      delete: {name: Delete Note}
      direct_edit:
        name: Edit Note
        params: {label: string, priority: int}
`
	d, err := compiler.NewParser().ParseDescription([]byte(doc))
	require.NoError(t, err)
	require.Len(t, d.Nodes, 1)
	params := d.Nodes[0].Palette.DirectEdit.Params
	assert.Equal(t, map[string]string{"label": "string", "priority": "int"}, params.TypeMap())
}

func TestParseDescription_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		fields int
	}{
		{
			name:   "missing fields",
			doc:    "nodes:\n  - name: A\n",
			fields: 3, // id, domain_type, nodes[0].domain_type
		},
		{
			name:   "bad enum",
			doc:    "id: x\ndomain_type: Package\nnodes:\n  - {name: A, domain_type: Class, kind: bogus}\n",
			fields: 1,
		},
		{name: "unknown key", doc: "id: x\ndomain_type: Package\ncolour: red\n"},
		{name: "not yaml", doc: "id: [x"},
		{name: "empty", doc: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.NewParser().ParseDescription([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidDescription)
			if tt.fields > 0 {
				assert.Len(t, schema.FieldErrors(err), tt.fields)
			}
		})
	}
}

const modelDoc = `
metamodel: uml
root:
  id: m
  type: Model
  attrs: {name: m}
  contents:
    packagedElement:
      - id: a
        type: Class
        attrs: {name: A}
        contents:
          ownedAttribute:
            - {id: a.p, type: Property, attrs: {name: p}}
      - {id: b, type: Class, attrs: {name: B}}
      - id: d
        type: Dependency
        refs:
          client: [a]
          supplier: [b]
`

func TestParseModel(t *testing.T) {
	m, err := compiler.NewParser().ParseModel(uml.Metamodel(), []byte(modelDoc))
	require.NoError(t, err)

	assert.Equal(t, 5, m.Len())
	assert.Equal(t, []model.ID{"a", "b", "d"}, m.Root().Contents(uml.FeaturePackagedElement))
	a, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A", a.Name())
	assert.Equal(t, []model.ID{"a.p"}, a.Contents(uml.FeatureOwnedAttribute))

	d, ok := m.Get("d")
	require.True(t, ok)
	assert.Equal(t, []model.ID{"b"}, d.References(uml.FeatureSupplier))
	assert.Equal(t, []model.Setting{{Owner: "d", Feature: uml.FeatureClient}}, m.Referrers("a"))
}

func TestParseModel_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"other metamodel", "metamodel: sysml\nroot: {id: m, type: Model}\n"},
		{"no root", "metamodel: uml\n"},
		{"missing id", "root: {type: Model}\n"},
		{"unknown feature", "root: {id: m, type: Model, contents: {nope: [{id: a, type: Class}]}}\n"},
		{"unknown attribute", "root: {id: m, type: Model, attrs: {colour: red}}\n"},
		{"dangling reference", "root: {id: m, type: Model, contents: {packagedElement: [{id: d, type: Dependency, refs: {client: [ghost]}}]}}\n"},
		{"duplicate id", "root: {id: m, type: Model, contents: {packagedElement: [{id: a, type: Class}, {id: a, type: Class}]}}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.NewParser().ParseModel(uml.Metamodel(), []byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	for name, d := range map[string]*description.Description{
		"sequence.yaml": sequence.Description(),
		"structure.yml": structure.Description(),
	} {
		data, err := yaml.Marshal(d)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	tests.RunDescriptionLoaderContract(t, compiler.NewDirLoader(dir), sequence.ID, structure.ID)
}

func TestDirLoader_BrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: [x"), 0o644))

	_, err := compiler.NewDirLoader(dir).List(t.Context())
	assert.ErrorIs(t, err, domain.ErrInvalidDescription)
}
