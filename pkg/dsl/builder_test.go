package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/dsl"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
)

func TestBuilder_Nodes(t *testing.T) {
	b := dsl.New("d", uml.Package).Version("1.2").Label("Demo")
	group := b.SharedGroup("Shared", uml.Element)
	class := b.Node("Class", uml.Class).Feature(uml.FeaturePackagedElement).
		Filter("self.name != ''").LabelAttribute(uml.FeatureName).
		Reuse("A_SHARED").ReuseBorder("B_SHARED")
	body := class.Compartment("Class_Body")
	fake := class.FakeChild("Class_Fake")
	port := class.Border("Port", uml.Port).Manual().Hideable("Hide")
	class.Child("Attr", uml.Property).Self()

	d := b.Build()
	assert.Equal(t, "1.2", d.Version)
	assert.Equal(t, "Demo", d.Label)
	require.Len(t, d.Nodes, 2)

	g := group.Description()
	assert.Equal(t, description.KindSharedGroup, g.EffectiveKind())
	assert.True(t, g.Candidates.None)

	c := class.Description()
	assert.Equal(t, uml.FeaturePackagedElement, c.Candidates.Feature)
	assert.Equal(t, "self.name != ''", c.Candidates.Filter)
	assert.Equal(t, uml.FeatureName, c.LabelAttribute)
	assert.Equal(t, []string{"A_SHARED"}, c.ReusedChildren)
	assert.Equal(t, []string{"B_SHARED"}, c.ReusedBorderNodes)
	require.Len(t, c.Children, 3)
	require.Len(t, c.BorderNodes, 1)
	assert.True(t, c.Children[2].Candidates.Self)

	for _, n := range []*dsl.NodeBuilder{body, fake} {
		assert.Equal(t, uml.Class, n.Description().DomainType)
		assert.True(t, n.Description().Candidates.Self)
	}
	assert.Equal(t, description.KindCompartment, body.Description().EffectiveKind())
	assert.Equal(t, description.KindFakeChild, fake.Description().EffectiveKind())

	p := port.Description()
	assert.Equal(t, domain.Unsynchronized, p.Sync)
	require.NotNil(t, p.Palette.Delete)
	assert.True(t, p.Palette.Delete.Graphical)
}

func TestBuilder_Tools(t *testing.T) {
	b := dsl.New("d", uml.Package).
		CreateTool("New Class", uml.Class, uml.FeaturePackagedElement).
		CreateTool("New Comment", uml.Comment, uml.FeatureOwnedComment,
			dsl.Prepend(), dsl.Reveal("Note"), dsl.WithAttributes(map[string]any{uml.FeatureBody: "todo"}))
	node := b.Node("Class", uml.Class).
		Deletable("Delete", uml.FeatureOwnedAttribute).
		Editable("Rename").
		CreateTool("New Attribute", uml.Property, uml.FeatureOwnedAttribute).
		EdgeTool(&description.EdgeTool{Name: "Link", LinkFeature: uml.FeatureAnnotatedElement, Targets: []string{"Class"}, Edge: "L"})
	edge := b.DomainEdge("Dep", uml.Dependency).From("Class").To("Class", "Other").
		Paths(uml.FeatureClient, uml.FeatureSupplier).Filter("true").
		Deletable("Delete").Editable("Rename").
		Reconnect("Move source", domain.EndSource, uml.FeatureClient, "Class")
	link := b.Link("L")

	d := b.Build()
	require.Len(t, d.Palette.NodeTools, 2)
	assert.Equal(t, description.Append, d.Palette.NodeTools[0].Position)
	comment := d.Palette.NodeTools[1]
	assert.Equal(t, description.Prepend, comment.Position)
	assert.Equal(t, 0, comment.Position.Index())
	assert.Equal(t, -1, d.Palette.NodeTools[0].Position.Index())
	assert.Equal(t, "Note", comment.Description)
	assert.Equal(t, "todo", comment.Attributes[uml.FeatureBody])

	n := node.Description()
	assert.Equal(t, []string{uml.FeatureOwnedAttribute}, n.Palette.Delete.Cascade)
	assert.False(t, n.Palette.Delete.Graphical)
	assert.Equal(t, "Rename", n.Palette.DirectEdit.Name)
	assert.Len(t, n.Palette.NodeTools, 1)
	assert.Len(t, n.Palette.EdgeTools, 1)

	e := edge.Description()
	assert.True(t, e.DomainBased)
	assert.Equal(t, []string{"Class", "Other"}, e.TargetDescriptions)
	assert.Equal(t, uml.FeatureClient, e.SourcePath)
	assert.Equal(t, uml.FeatureSupplier, e.TargetPath)
	assert.Equal(t, "true", e.Filter)
	require.Len(t, e.Palette.Reconnect, 1)
	assert.Equal(t, domain.EndSource, e.Palette.Reconnect[0].End)
	assert.False(t, link.Description().DomainBased)
	assert.Len(t, d.Edges, 2)
}
