package papyrus_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	papyrus "github.com/PapyGame/PapyrusWebBackend-sub011"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/adapters/memory"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/sequence"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/structure"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
)

func packageModel(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.New(uml.Metamodel(), "m", uml.Model, map[string]any{uml.FeatureName: "m"})
	require.NoError(t, err)
	_, err = model.NewModifier(m).Create("m", uml.FeaturePackagedElement, uml.Class, -1, map[string]any{uml.FeatureName: "A"})
	require.NoError(t, err)
	return m
}

func TestNew_RefusesInvalidDescription(t *testing.T) {
	k := structure.New()
	k.Description.Nodes[1].Palette.Delete = nil

	_, err := papyrus.New(k)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDescription)

	_, err = papyrus.New(nil)
	assert.Error(t, err)
}

func TestFacade_Integration(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	var edits []string
	hooks := domain.LifecycleHooks{
		OnEdit: func(_ context.Context, e *domain.EditEvent) { edits = append(edits, e.Operation) },
	}
	eng, err := papyrus.New(structure.New(), papyrus.WithStore(store), papyrus.WithLifecycleHooks(hooks))
	require.NoError(t, err)

	d, err := eng.Open(ctx, "s1", packageModel(t))
	require.NoError(t, err)
	assert.Equal(t, "s1", d.ID)
	assert.Equal(t, "m", d.TargetID, "a model is a package: the root is the diagram target")
	require.Len(t, d.Nodes, 1)

	st := eng.CreateNode(ctx, "s1", domain.CreateNodeRequest{Tool: structure.ToolClass})
	require.True(t, st.Success, st.Message)
	assert.Equal(t, domain.ChangeSemantic, st.Change)

	// The edit is persisted: a fresh engine on the same store sees it.
	other, err := papyrus.New(structure.New(), papyrus.WithStore(store))
	require.NoError(t, err)
	d, err = other.Diagram(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, d.Nodes, 2)

	s, err := other.Session(ctx, "s1")
	require.NoError(t, err)
	created, ok := s.Model.Get(model.ID(st.Parameters[domain.ParamElementID].(string)))
	require.True(t, ok)
	assert.Equal(t, "Class1", created.Name())

	st = eng.Delete(ctx, "s1", domain.DeleteRequest{ViewID: "nope"})
	assert.True(t, st.Is(domain.ErrViewNotFound))

	d, err = eng.Render(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, d.Nodes, 2)

	ids, err := eng.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	require.NoError(t, eng.Close(ctx, "s1"))
	_, err = eng.Diagram(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Equal(t, []string{"create_node", "delete"}, edits)
}

func TestFacade_ConcurrentDiffs(t *testing.T) {
	ctx := context.Background()
	eng, err := papyrus.New(structure.New())
	require.NoError(t, err)
	_, err = eng.Open(ctx, "s1", packageModel(t))
	require.NoError(t, err)

	const n = 8
	statuses := make([]domain.Status, n)
	var wg sync.WaitGroup
	for i := range statuses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i] = eng.CreateNode(ctx, "s1", domain.CreateNodeRequest{Tool: structure.ToolClass})
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, st := range statuses {
		require.True(t, st.Success, st.Message)
		require.NotNil(t, st.Diff)
		assert.Contains(t, st.Diff.Added, st.Parameters[domain.ParamViewID])
		for _, id := range st.Diff.Added {
			assert.False(t, seen[id], "view %s reported by two changes", id)
			seen[id] = true
		}
	}
	d, err := eng.Diagram(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, d.Nodes, n+1)
}

func TestFacade_UnknownSession(t *testing.T) {
	eng, err := papyrus.New(sequence.New())
	require.NoError(t, err)

	st := eng.CreateNode(context.Background(), "ghost", domain.CreateNodeRequest{Tool: sequence.ToolLifeline})
	assert.False(t, st.Success)
	assert.True(t, st.Is(domain.ErrSessionNotFound))
	assert.Equal(t, "session_not_found", st.Code)
}

func TestFacade_OpenTargets(t *testing.T) {
	ctx := context.Background()
	eng, err := papyrus.New(sequence.New())
	require.NoError(t, err)

	_, err = eng.Open(ctx, "s", packageModel(t))
	assert.ErrorIs(t, err, domain.ErrElementNotFound, "a package holds no interaction")

	_, err = eng.OpenOn(ctx, "s", packageModel(t), "m")
	assert.ErrorIs(t, err, domain.ErrElementNotFound)
}
