package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/runtime"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/sequence"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/session"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
)

// slowStore simulates IO latency to provoke lost updates if locking is missing.
type slowStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *slowStore) Save(_ context.Context, id string, data []byte) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.data[id] = data
	return nil
}

func (s *slowStore) Load(_ context.Context, id string) ([]byte, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.data[id]; ok {
		return data, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *slowStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *slowStore) List(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id := range s.data {
		out = append(out, id)
	}
	return out, nil
}

type countingLocker struct {
	mu             sync.Mutex
	locks, unlocks int
}

func (l *countingLocker) Lock(context.Context, string, time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locks++
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func sequenceEngine(t *testing.T) *runtime.Engine {
	t.Helper()
	reg, err := sequence.New().Check()
	require.NoError(t, err)
	return runtime.NewEngine(reg)
}

func start(engine *runtime.Engine) func(context.Context) (*runtime.Session, error) {
	return func(ctx context.Context) (*runtime.Session, error) {
		m, err := model.New(uml.Metamodel(), "m", uml.Model, nil)
		if err != nil {
			return nil, err
		}
		if _, err := model.NewModifier(m).Create("m", uml.FeaturePackagedElement, uml.Interaction, -1, map[string]any{uml.FeatureName: "I"}); err != nil {
			return nil, err
		}
		target := m.Root().Contents(uml.FeaturePackagedElement)[0]
		return engine.Open(ctx, m, "diagram", target)
	}
}

func TestManager_EncodeDecode(t *testing.T) {
	engine := sequenceEngine(t)
	mgr := session.NewManager(&slowStore{}, uml.Metamodel())
	s, err := start(engine)(context.Background())
	require.NoError(t, err)

	data, err := mgr.Encode(s)
	require.NoError(t, err)
	back, err := mgr.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, s.Model.Len(), back.Model.Len())
	assert.Equal(t, s.Diagram.Identity(), back.Diagram.Identity())
	_, ok := back.Diagram.Node(s.Diagram.Nodes[0].ID)
	assert.True(t, ok, "decoded diagrams are indexed")

	_, err = mgr.Decode([]byte(`{"model":{}}`))
	assert.Error(t, err)
}

func TestManager_UpdateIsSerialized(t *testing.T) {
	engine := sequenceEngine(t)
	locker := &countingLocker{}
	mgr := session.NewManager(&slowStore{}, uml.Metamodel(), session.WithLocker(locker))
	ctx := context.Background()
	id := "race-test"

	s, err := mgr.LoadOrStart(ctx, id, start(engine))
	require.NoError(t, err)
	interaction := s.Diagram.Nodes[0].ID

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.Update(ctx, id, func(ctx context.Context, s *runtime.Session) (bool, error) {
				st := engine.CreateNode(ctx, s, domain.CreateNodeRequest{ParentViewID: interaction, Tool: sequence.ToolLifeline})
				return st.Success, st.Reason
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err = mgr.Load(ctx, id)
	require.NoError(t, err)
	target := model.ID(s.Diagram.TargetID)
	el, _ := s.Model.Get(target)
	assert.Len(t, el.Contents(uml.FeatureLifeline), writers, "no update may be lost")

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Equal(t, locker.locks, locker.unlocks)
}

func TestManager_LoadOrStart(t *testing.T) {
	engine := sequenceEngine(t)
	mgr := session.NewManager(&slowStore{}, uml.Metamodel())
	ctx := context.Background()
	id := "atomic-init"

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		starts int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := mgr.LoadOrStart(ctx, id, func(ctx context.Context) (*runtime.Session, error) {
				mu.Lock()
				starts++
				mu.Unlock()
				return start(engine)(ctx)
			})
			assert.NoError(t, err)
			assert.NotNil(t, s)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, starts)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestManager_UpdateErrors(t *testing.T) {
	mgr := session.NewManager(&slowStore{}, uml.Metamodel())
	ctx := context.Background()

	err := mgr.Update(ctx, "missing", func(context.Context, *runtime.Session) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	engine := sequenceEngine(t)
	_, err = mgr.LoadOrStart(ctx, "s", start(engine))
	require.NoError(t, err)
	boom := errors.New("boom")
	err = mgr.Update(ctx, "s", func(context.Context, *runtime.Session) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)

	require.NoError(t, mgr.Delete(ctx, "s"))
	_, err = mgr.Load(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
