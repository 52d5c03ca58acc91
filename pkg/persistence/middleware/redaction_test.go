package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/steprelay/pkg/adapters/memory"
	"github.com/aretw0/steprelay/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactionMiddleware(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewRedactionMiddleware([]string{`hunter\d`, `abc\d+`})(underlying)
	ctx := context.Background()

	original := sampleTrace("r1")
	require.NoError(t, store.Save(ctx, "r1", original))

	loaded, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "password: ***", loaded.Outputs[0].Text)
	assert.Equal(t, "login failed for password: ***", loaded.Errors[0])
	assert.Equal(t, "token=***", loaded.Steps[0].Tokens[0].Value)

	assert.Equal(t, "password: hunter2", original.Outputs[0].Text, "caller's trace is untouched")
	assert.Equal(t, "token=abc123", original.Steps[0].Tokens[0].Value)
}

func TestChain(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.Chain(underlying,
		middleware.NewRedactionMiddleware([]string{`hunter\d`}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "c1", sampleTrace("c1")))

	raw, err := underlying.Load(ctx, "c1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "password: ***", loaded.Outputs[0].Text)
}
