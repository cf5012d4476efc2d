package description_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/dsl"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
)

func testBuilder() *dsl.Builder {
	b := dsl.New("test", uml.Package).CreateTool("New Class", uml.Class, uml.FeaturePackagedElement)
	b.SharedGroup("Shared", uml.Element).
		Child("Comment_SHARED", uml.Comment).Feature(uml.FeatureOwnedComment).
		Deletable("Delete").Editable("Edit")
	class := b.Node("Class", uml.Class).Feature(uml.FeaturePackagedElement).
		Filter("self.name != 'hidden'").
		Deletable("Delete").Editable("Edit").
		Reuse("Comment_SHARED").
		EdgeTool(&description.EdgeTool{Name: "Depends", DomainType: uml.Dependency, Feature: uml.FeaturePackagedElement, Targets: []string{"Class"}, Edge: "Dep"})
	class.Child("Attribute", uml.Property).Feature(uml.FeatureOwnedAttribute).Deletable("Delete").Editable("Edit")
	class.Border("Port", uml.Port).Feature(uml.FeatureOwnedAttribute).Deletable("Delete").Editable("Edit")
	b.Node("Package", uml.Package).Feature(uml.FeaturePackagedElement).
		Deletable("Delete").Editable("Edit").Reuse("Comment_SHARED")
	b.DomainEdge("Dep", uml.Dependency).From("Class").To("Class").
		Paths(uml.FeatureClient, uml.FeatureSupplier).
		Deletable("Delete").Editable("Edit").
		Reconnect("Move target", domain.EndTarget, uml.FeatureSupplier, "Class")
	return b
}

func TestCompile_Lookups(t *testing.T) {
	r, err := testBuilder().Compile(uml.Metamodel())
	require.NoError(t, err)

	names := func(ns []*description.NodeDescription) []string {
		out := make([]string, len(ns))
		for i, n := range ns {
			out[i] = n.Name
		}
		return out
	}
	assert.Equal(t, []string{"Class", "Package"}, names(r.Roots()))
	assert.Equal(t, []string{"Attribute", "Comment_SHARED", "Port"}, names(r.Containers("Class")))
	assert.Equal(t, names(r.Roots()), names(r.Containers("")))
	assert.Nil(t, r.Containers("Ghost"))

	shared, ok := r.Node("Comment_SHARED")
	require.True(t, ok)
	assert.Equal(t, uml.Comment, shared.DomainType)
	assert.True(t, r.IsShared("Comment_SHARED"))
	assert.False(t, r.IsShared("Attribute"))
	assert.Equal(t, "Shared", r.Parent("Comment_SHARED").Name)
	assert.Equal(t, "Class", r.Parent("Attribute").Name)
	assert.Nil(t, r.Parent("Class"))

	e, ok := r.Edge("Dep")
	require.True(t, ok)
	assert.True(t, e.DomainBased)
	assert.Len(t, r.Edges(), 1)
}

func TestCompile_Tools(t *testing.T) {
	r, err := testBuilder().Compile(uml.Metamodel())
	require.NoError(t, err)

	nt, err := r.NodeTool("", "New Class")
	require.NoError(t, err)
	assert.Equal(t, description.Append, nt.Position)
	_, err = r.NodeTool("Class", "New Class")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)

	et, err := r.EdgeTool("Class", "Depends")
	require.NoError(t, err)
	assert.Equal(t, "Dep", et.Edge)
	_, err = r.EdgeTool("Package", "Depends")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)

	rt, err := r.ReconnectTool("Dep", domain.EndTarget)
	require.NoError(t, err)
	assert.Equal(t, uml.FeatureSupplier, rt.Path)
	_, err = r.ReconnectTool("Dep", domain.EndSource)
	assert.ErrorIs(t, err, domain.ErrToolNotFound)

	_, err = r.DeleteTool("Class")
	assert.NoError(t, err)
	_, err = r.DeleteTool("Shared")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
	de, err := r.DirectEditTool("Dep")
	require.NoError(t, err)
	assert.Equal(t, "Edit", de.Name)
	_, err = r.DirectEditTool("Ghost")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *dsl.Builder)
		want  string
	}{
		{
			name:  "unknown domain type",
			build: func(b *dsl.Builder) { b.Node("A", "Widget") },
			want:  `unknown domain type "Widget"`,
		},
		{
			name:  "filter does not compile",
			build: func(b *dsl.Builder) { b.Node("A", uml.Class).Filter("self.name ==") },
			want:  "node A",
		},
		{
			name: "reuse outside shared group",
			build: func(b *dsl.Builder) {
				b.Node("A", uml.Class).Child("P", uml.Property)
				b.Node("B", uml.Class).Reuse("P")
			},
			want: `reuses "P"`,
		},
		{
			name: "duplicate node",
			build: func(b *dsl.Builder) {
				b.Node("A", uml.Class)
				b.Node("A", uml.Class)
			},
			want: `duplicate node description "A"`,
		},
		{
			name:  "edge with unknown end",
			build: func(b *dsl.Builder) { b.Link("L").From("Ghost") },
			want:  `unknown node description "Ghost"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := dsl.New("broken", uml.Package)
			tt.build(b)
			_, err := b.Compile(uml.Metamodel())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidDescription)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompile_WithoutMetamodel(t *testing.T) {
	b := dsl.New("loose", "Anything")
	b.Node("A", "Widget")
	_, err := b.Compile(nil)
	assert.NoError(t, err)
}

func TestRegistry_Match(t *testing.T) {
	r, err := testBuilder().Compile(uml.Metamodel())
	require.NoError(t, err)

	ok, err := r.Match("", nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Match("self.name != 'hidden'", map[string]any{"name": "visible"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Match("self.name != 'hidden'", map[string]any{"name": "hidden"}, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Match("container.type == 'Package'", map[string]any{}, map[string]any{"type": "Package"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.Match("self.name", map[string]any{"name": "x"}, nil)
	assert.ErrorContains(t, err, "want bool")
}

func TestActivation(t *testing.T) {
	m, err := model.New(uml.Metamodel(), "root", uml.Model, map[string]any{uml.FeatureName: "root"})
	require.NoError(t, err)
	id, err := model.NewModifier(m).Create("root", uml.FeaturePackagedElement, uml.Class, -1, map[string]any{uml.FeatureName: "A"})
	require.NoError(t, err)

	act := description.Activation(m, id)
	assert.Equal(t, string(id), act["id"])
	assert.Equal(t, uml.Class, act["type"])
	assert.Equal(t, "A", act["name"])
	assert.Equal(t, "root", act["parent"])
	assert.Empty(t, description.Activation(m, "missing"))
}
