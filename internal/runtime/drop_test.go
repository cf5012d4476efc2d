package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/runtime"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/drop"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/dsl"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/sequence"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/structure"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
)

func TestHandleDrop_Move(t *testing.T) {
	ctx := context.Background()
	f := newSequence(t)
	vi := f.view(t, sequence.InteractionNode, f.interaction)

	st := f.engine.HandleDrop(ctx, f.session, domain.DropRequest{SourceID: string(f.l4), TargetViewID: vi.ID})
	require.True(t, st.Success, st.Message)
	assert.Equal(t, domain.ChangeSemantic, st.Change)

	l4, _ := f.session.Model.Get(f.l4)
	assert.Equal(t, f.interaction, l4.Parent())
	interaction, _ := f.session.Model.Get(f.interaction)
	assert.Equal(t, []model.ID{f.l1, f.l2, f.l3, f.l4}, interaction.Contents(uml.FeatureLifeline))

	view := f.view(t, sequence.LifelineNode, f.l4)
	assert.Equal(t, vi.ID, view.ParentID)
	assert.Equal(t, view.ID, st.Parameters[domain.ParamViewID])
}

func TestHandleDrop_Illegal(t *testing.T) {
	ctx := context.Background()
	f := newSequence(t)
	v2 := f.view(t, sequence.LifelineNode, f.l2)
	diagram := f.session.Diagram

	tests := []struct {
		name string
		req  domain.DropRequest
	}{
		{"lifeline onto lifeline", domain.DropRequest{SourceID: string(f.l1), TargetViewID: v2.ID}},
		{"lifeline onto background", domain.DropRequest{SourceID: string(f.l4)}},
		{"interaction onto its own lifeline", domain.DropRequest{SourceID: string(f.interaction), TargetViewID: v2.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := f.engine.HandleDrop(ctx, f.session, tt.req)
			assert.True(t, st.Success)
			assert.Equal(t, domain.ChangeNone, st.Change)
			assert.Same(t, diagram, f.session.Diagram)
		})
	}
	l1, _ := f.session.Model.Get(f.l1)
	assert.Equal(t, f.interaction, l1.Parent())
}

func TestHandleDrop_Failures(t *testing.T) {
	ctx := context.Background()
	f := newSequence(t)

	st := f.engine.HandleDrop(ctx, f.session, domain.DropRequest{SourceID: string(f.l1), TargetViewID: "nope"})
	assert.True(t, st.Is(domain.ErrViewNotFound))

	st = f.engine.HandleDrop(ctx, f.session, domain.DropRequest{SourceID: "nope"})
	assert.True(t, st.Is(domain.ErrElementNotFound))
}

func TestHandleDrop_Compartment(t *testing.T) {
	ctx := context.Background()
	f := newStructure(t)
	compartmentB := only(t, f.session.Diagram, structure.StructureNode, f.b)

	st := f.engine.HandleDrop(ctx, f.session, domain.DropRequest{SourceID: string(f.prop), TargetViewID: compartmentB.ID})
	require.True(t, st.Success, st.Message)
	assert.Equal(t, domain.ChangeSemantic, st.Change)
	prop, _ := f.session.Model.Get(f.prop)
	assert.Equal(t, f.b, prop.Parent())
	assert.Equal(t, compartmentB.ID, f.view(t, structure.PropertyNode, f.prop).ParentID)
	// the comment still annotates the moved property
	assert.Len(t, edgesOf(f.session.Diagram, structure.AnnotationEdge), 2)
}

func TestHandleDrop_NoPolicy(t *testing.T) {
	ctx := context.Background()
	k := sequence.New()
	reg, err := k.Check()
	require.NoError(t, err)
	f := newSequence(t)
	engine := runtime.NewEngine(reg)
	s, err := engine.Open(ctx, f.session.Model, "diagram", f.interaction)
	require.NoError(t, err)

	st := engine.HandleDrop(ctx, s, domain.DropRequest{SourceID: string(f.l4), TargetViewID: f.view(t, sequence.InteractionNode, f.interaction).ID})
	assert.True(t, st.Success)
	assert.Equal(t, domain.ChangeNone, st.Change)
	l4, _ := s.Model.Get(f.l4)
	assert.Equal(t, f.other, l4.Parent())
}

// notes shows classes only on demand: created through the palette, dropped, or revealed
// by dropping a comment annotating them.
func notesFixture(t *testing.T) (*runtime.Engine, *runtime.Session, map[string]model.ID) {
	t.Helper()
	b := dsl.New("notes", uml.Package).
		CreateTool("Class", uml.Class, uml.FeaturePackagedElement, dsl.Reveal("N_Class"))
	b.Node("N_Class", uml.Class).
		Feature(uml.FeaturePackagedElement).
		Manual().
		Hideable("Hide").
		Editable("Rename")
	reg, err := b.Compile(uml.Metamodel())
	require.NoError(t, err)

	table := drop.NewTable("notes").
		AllowGraphical(uml.Class, drop.Background).
		Add(drop.Rule{
			Source: uml.Comment,
			Target: drop.Background,
			Reveal: func(m *model.Model, source model.ID) []model.ID {
				c, _ := m.Get(source)
				return c.References(uml.FeatureAnnotatedElement)
			},
		})
	engine := runtime.NewEngine(reg, runtime.WithDropPolicy(table, table), runtime.WithModifierOptions(ids("new")))

	m, err := model.New(uml.Metamodel(), "m", uml.Model, nil)
	require.NoError(t, err)
	mod := model.NewModifier(m, ids("f"))
	out := map[string]model.ID{}
	out["A"], _ = mod.Create("m", uml.FeaturePackagedElement, uml.Class, -1, named("A"))
	out["B"], _ = mod.Create("m", uml.FeaturePackagedElement, uml.Class, -1, named("B"))
	out["note"], _ = mod.Create("m", uml.FeatureOwnedComment, uml.Comment, -1, nil)
	require.NoError(t, mod.Add(out["note"], uml.FeatureAnnotatedElement, out["B"], -1))

	s, err := engine.Open(context.Background(), m, "d", "m")
	require.NoError(t, err)
	return engine, s, out
}

func TestManualViews(t *testing.T) {
	ctx := context.Background()
	engine, s, el := notesFixture(t)
	require.Empty(t, s.Diagram.Nodes)

	// a graphical drop shows A without moving it
	st := engine.HandleDrop(ctx, s, domain.DropRequest{SourceID: string(el["A"])})
	require.True(t, st.Success, st.Message)
	assert.Equal(t, domain.ChangeGraphical, st.Change)
	viewA := only(t, s.Diagram, "N_Class", el["A"])
	assert.True(t, viewA.Manual)

	// manual views survive later renders
	require.NoError(t, engine.Render(ctx, s))
	only(t, s.Diagram, "N_Class", el["A"])

	// dropping it again changes nothing
	st = engine.HandleDrop(ctx, s, domain.DropRequest{SourceID: string(el["A"])})
	assert.Equal(t, domain.ChangeNone, st.Change)

	// the creation tool reveals the new class
	st = engine.CreateNode(ctx, s, domain.CreateNodeRequest{Tool: "Class"})
	require.True(t, st.Success, st.Message)
	created := model.ID(st.Parameters[domain.ParamElementID].(string))
	only(t, s.Diagram, "N_Class", created)
	require.Len(t, s.Diagram.Nodes, 2)

	// hiding removes the view, not the element
	st = engine.Delete(ctx, s, domain.DeleteRequest{ViewID: viewA.ID})
	require.True(t, st.Success, st.Message)
	assert.Equal(t, domain.ChangeGraphical, st.Change)
	_, ok := s.Diagram.Node(viewA.ID)
	assert.False(t, ok)
	_, ok = s.Model.Get(el["A"])
	assert.True(t, ok)
	require.NoError(t, engine.Render(ctx, s))
	assert.Empty(t, s.Diagram.NodesFor(string(el["A"])))

	// dropping the comment reveals the class it annotates
	st = engine.HandleDrop(ctx, s, domain.DropRequest{SourceID: string(el["note"])})
	require.True(t, st.Success, st.Message)
	assert.Equal(t, domain.ChangeGraphical, st.Change)
	only(t, s.Diagram, "N_Class", el["B"])
}
