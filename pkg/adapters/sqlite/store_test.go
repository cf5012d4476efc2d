package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/adapters/sqlite"
	contract "github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports/tests"
)

func setupTestStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "papyrus.db")
	store, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestSQLiteStore_Contract(t *testing.T) {
	store, _ := setupTestStore(t)
	contract.RunSessionStoreContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store, path := setupTestStore(t)
	require.NoError(t, store.Save(ctx, "s1", []byte(`{"diagram":{}}`)))
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.Load(ctx, "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"diagram":{}}`, string(data))
}
