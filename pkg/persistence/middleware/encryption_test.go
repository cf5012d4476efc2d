package middleware_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/adapters/memory"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/persistence/middleware"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports/tests"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secure(t *testing.T, next ports.SessionStore, cfg middleware.EncryptionConfig) ports.SessionStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	tests.RunSessionStoreContract(t, secure(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	secret := []byte(`{"model":{"elements":[{"attrs":{"name":"SecretClass"}}]}}`)
	require.NoError(t, store.Save(ctx, "s1", secret))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte("SecretClass")))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, secret, got)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	require.NoError(t, secure(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey}).Save(ctx, "s1", []byte("v1")))

	rotated := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	got, err := rotated.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	wrong := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err = wrong.Load(ctx, "s1")
	assert.ErrorContains(t, err, "decryption failed")
}

func TestEncryptionMiddleware_Errors(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.Error(t, err)
	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t), FallbackKeys: [][]byte{{1}}})
	assert.Error(t, err)

	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(ctx, "plain", []byte("{}")))
	_, err = secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)}).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}
