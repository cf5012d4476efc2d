package structure_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/structure"
)

func TestKind_Check(t *testing.T) {
	k := structure.New()
	assert.Empty(t, k.Validator().Validate(k.Description))

	reg, err := k.Check()
	require.NoError(t, err)
	assert.True(t, reg.IsShared(structure.PortNode))
	assert.True(t, reg.IsShared(structure.CommentNode))

	compartment, ok := reg.Node(structure.StructureNode)
	require.True(t, ok)
	assert.Equal(t, description.KindCompartment, compartment.EffectiveKind())

	class, _ := reg.Node(structure.ClassNode)
	names := func(ds []*description.NodeDescription) []string {
		var out []string
		for _, d := range ds {
			out = append(out, d.Name)
		}
		return out
	}
	assert.Equal(t, []string{structure.PortNode}, names(reg.BorderNodes(class)))
	assert.Equal(t, []string{structure.StructureNode}, names(reg.Children(class)))
	assert.Equal(t, []string{structure.PropertyNode, structure.CommentNode}, names(reg.Children(compartment)))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "CSD_Class", structure.ClassNode)
	assert.Equal(t, "CSD_Class_Structure_CompartmentNode", structure.StructureNode)
	assert.Equal(t, "CSD_Property_SubNode", structure.PropertyNode)
	assert.Equal(t, "CSD_Port_SHARED", structure.PortNode)
	assert.Equal(t, "CSD_Dependency_DomainEdge", structure.DependencyEdge)
}

func TestKind_BrokenDescriptionFails(t *testing.T) {
	k := structure.New()
	// the port becomes a shared description reused by a single parent
	class := k.Description.Nodes[1]
	require.Equal(t, structure.ClassNode, class.Name)
	class.ReusedBorderNodes = nil

	_, err := k.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSD_Port_SHARED")
}
