package runtime_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/runtime"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/sequence"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/structure"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
)

func ids(prefix string) model.ModifierOption {
	n := 0
	return model.WithIDGenerator(func() model.ID {
		n++
		return model.ID(fmt.Sprintf("%s%d", prefix, n))
	})
}

func named(name string) map[string]any {
	return map[string]any{uml.FeatureName: name}
}

func engineFor(t *testing.T, k *kinds.Kind, opts ...runtime.Option) *runtime.Engine {
	t.Helper()
	reg, err := k.Check()
	require.NoError(t, err)
	opts = append([]runtime.Option{
		runtime.WithModifierOptions(ids("new")),
		runtime.WithDropPolicy(k.Drops, k.Drops),
	}, opts...)
	return runtime.NewEngine(reg, opts...)
}

// seqFixture is an interaction with three lifelines, plus a second interaction
// holding one more lifeline.
type seqFixture struct {
	engine  *runtime.Engine
	session *runtime.Session

	interaction, other model.ID
	l1, l2, l3, l4     model.ID
}

func newSequence(t *testing.T, opts ...runtime.Option) *seqFixture {
	t.Helper()
	m, err := model.New(uml.Metamodel(), "m", uml.Model, named("model"))
	require.NoError(t, err)
	mod := model.NewModifier(m, ids("f"))
	create := func(parent model.ID, feature, typ, name string) model.ID {
		id, err := mod.Create(parent, feature, typ, -1, named(name))
		require.NoError(t, err)
		return id
	}

	f := &seqFixture{}
	f.interaction = create("m", uml.FeaturePackagedElement, uml.Interaction, "I")
	f.other = create("m", uml.FeaturePackagedElement, uml.Interaction, "J")
	f.l1 = create(f.interaction, uml.FeatureLifeline, uml.Lifeline, "L1")
	f.l2 = create(f.interaction, uml.FeatureLifeline, uml.Lifeline, "L2")
	f.l3 = create(f.interaction, uml.FeatureLifeline, uml.Lifeline, "L3")
	f.l4 = create(f.other, uml.FeatureLifeline, uml.Lifeline, "L4")

	f.engine = engineFor(t, sequence.New(), opts...)
	f.session, err = f.engine.Open(context.Background(), m, "diagram", f.interaction)
	require.NoError(t, err)
	return f
}

func (f *seqFixture) view(t *testing.T, mapping string, sem model.ID) *domain.Node {
	return only(t, f.session.Diagram, mapping, sem)
}

// structFixture is a package with two classes: A owns a property and a port; B owns
// a comment annotating A and its property; a dependency goes from B to A.
type structFixture struct {
	engine  *runtime.Engine
	session *runtime.Session

	a, b, prop, port, comment, dep model.ID
}

func newStructure(t *testing.T, opts ...runtime.Option) *structFixture {
	t.Helper()
	m, err := model.New(uml.Metamodel(), "m", uml.Model, named("model"))
	require.NoError(t, err)
	mod := model.NewModifier(m, ids("f"))
	create := func(parent model.ID, feature, typ string, attrs map[string]any) model.ID {
		id, err := mod.Create(parent, feature, typ, -1, attrs)
		require.NoError(t, err)
		return id
	}

	f := &structFixture{}
	f.a = create("m", uml.FeaturePackagedElement, uml.Class, named("A"))
	f.b = create("m", uml.FeaturePackagedElement, uml.Class, named("B"))
	f.prop = create(f.a, uml.FeatureOwnedAttribute, uml.Property, named("p"))
	f.port = create(f.a, uml.FeatureOwnedAttribute, uml.Port, named("in"))
	f.comment = create(f.b, uml.FeatureOwnedComment, uml.Comment, map[string]any{uml.FeatureBody: "note"})
	f.dep = create("m", uml.FeaturePackagedElement, uml.Dependency, named("uses"))
	require.NoError(t, mod.Add(f.comment, uml.FeatureAnnotatedElement, f.a, -1))
	require.NoError(t, mod.Add(f.comment, uml.FeatureAnnotatedElement, f.prop, -1))
	require.NoError(t, mod.Add(f.dep, uml.FeatureClient, f.b, -1))
	require.NoError(t, mod.Add(f.dep, uml.FeatureSupplier, f.a, -1))

	f.engine = engineFor(t, structure.New(), opts...)
	f.session, err = f.engine.Open(context.Background(), m, "diagram", "m")
	require.NoError(t, err)
	return f
}

func (f *structFixture) view(t *testing.T, mapping string, sem model.ID) *domain.Node {
	return only(t, f.session.Diagram, mapping, sem)
}

func only(t *testing.T, d *domain.Diagram, mapping string, sem model.ID) *domain.Node {
	t.Helper()
	var found []*domain.Node
	for _, n := range d.NodesFor(string(sem)) {
		if n.MappingType == mapping {
			found = append(found, n)
		}
	}
	require.Len(t, found, 1, "views of %s as %s", sem, mapping)
	return found[0]
}

func edgesOf(d *domain.Diagram, mapping string) []*domain.Edge {
	var out []*domain.Edge
	for _, e := range d.Edges {
		if e.MappingType == mapping {
			out = append(out, e)
		}
	}
	return out
}

// requireNoDangling fails when a reference feature points at a missing element.
func requireNoDangling(t *testing.T, m *model.Model) {
	t.Helper()
	mm := m.Metamodel()
	m.Walk(m.Root().ID(), func(e *model.Element) bool {
		for _, f := range mm.Features(e.Type()) {
			if f.Kind != model.Reference {
				continue
			}
			for _, target := range e.References(f.Name) {
				_, ok := m.Get(target)
				require.True(t, ok, "%s.%s references deleted %s", e.ID(), f.Name, target)
			}
		}
		return true
	})
}
