// Package tests holds reusable contract suites for port implementations.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
)

// RunSessionStoreContract verifies that a SessionStore honours the port contract.
func RunSessionStoreContract(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-session-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		payload := []byte(`{"diagram":{"id":"d1"}}`)
		require.NoError(t, store.Save(ctx, sessionID, payload))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, payload, loaded)
	})

	t.Run("Save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, []byte("v1")))
		require.NoError(t, store.Save(ctx, sessionID, []byte("v2")))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), loaded)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, []byte("x")))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := sessionID+"-1", sessionID+"-2"
		require.NoError(t, store.Save(ctx, id1, []byte("1")))
		require.NoError(t, store.Save(ctx, id2, []byte("2")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunDescriptionLoaderContract verifies that a DescriptionLoader serves exactly the given ids.
func RunDescriptionLoaderContract(t *testing.T, loader ports.DescriptionLoader, ids ...string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load", func(t *testing.T) {
		for _, id := range ids {
			d, err := loader.Load(ctx, id)
			require.NoError(t, err, id)
			assert.Equal(t, id, d.ID)
		}
	})

	t.Run("Load Unknown", func(t *testing.T) {
		_, err := loader.Load(ctx, "no-such-description")
		assert.Error(t, err)
	})

	t.Run("List", func(t *testing.T) {
		listed, err := loader.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, ids, listed)
	})
}
