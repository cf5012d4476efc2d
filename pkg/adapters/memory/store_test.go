package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/adapters/memory"
	contract "github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	contract.RunSessionStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	data := []byte("abc")
	require.NoError(t, store.Save(ctx, "s", data))
	data[0] = 'x'

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	loaded[1] = 'y'

	again, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
