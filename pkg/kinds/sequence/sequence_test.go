package sequence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/sequence"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
)

func TestKind_Check(t *testing.T) {
	k := sequence.New()
	assert.Empty(t, k.Validator().Validate(k.Description))

	reg, err := k.Check()
	require.NoError(t, err)
	assert.True(t, reg.IsShared(sequence.CommentNode))

	tool, err := reg.EdgeTool(sequence.LifelineNode, sequence.ToolMessage)
	require.NoError(t, err)
	assert.Equal(t, uml.AsynchCall, tool.Attributes[uml.FeatureMessageSort])
	assert.NotNil(t, tool.Paired)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "SD_Interaction", sequence.InteractionNode)
	assert.Equal(t, "SD_Lifeline_SubNode", sequence.LifelineNode)
	assert.Equal(t, "SD_Message_DomainEdge", sequence.MessageEdge)
	// comments are reused but exempt from the shared suffix
	assert.Equal(t, "SD_Comment", sequence.CommentNode)
}

func TestDrops(t *testing.T) {
	mm := uml.Metamodel()
	m, err := model.New(mm, "i1", uml.Interaction, nil)
	require.NoError(t, err)
	mod := model.NewModifier(m)
	other, err := mod.Create("i1", uml.FeatureOwnedBehavior, uml.Interaction, -1, nil)
	require.NoError(t, err)
	lifeline, err := mod.Create(other, uml.FeatureLifeline, uml.Lifeline, -1, nil)
	require.NoError(t, err)
	comment, err := mod.Create("i1", uml.FeatureOwnedComment, uml.Comment, -1, nil)
	require.NoError(t, err)

	table := sequence.Drops()
	require.NoError(t, table.CheckExhaustive(mm))

	tests := []struct {
		name    string
		source  model.ID
		target  ports.DropTarget
		legal   bool
		feature string
	}{
		{"lifeline onto interaction", lifeline, ports.DropTarget{Element: "i1"}, true, uml.FeatureLifeline},
		{"comment onto lifeline", comment, ports.DropTarget{Element: lifeline}, true, uml.FeatureOwnedComment},
		{"lifeline onto lifeline", lifeline, ports.DropTarget{Element: lifeline}, false, ""},
		{"lifeline onto background", lifeline, ports.DropTarget{Element: "i1", Background: true}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := table.CanDrop(m, tt.source, tt.target)
			if !tt.legal {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			b, err := table.Behavior(m, tt.source, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.feature, b.Feature)
		})
	}
}
