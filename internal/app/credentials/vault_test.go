package credentials_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/speech-coach/internal/adapters/storage/memory"
	"github.com/PabloGalante/speech-coach/internal/app/credentials"
	"github.com/PabloGalante/speech-coach/internal/domain"
)

func TestVaultFallbackAndOverride(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	v := credentials.NewVault(kv, " from-config ")

	assert.Equal(t, "from-config", v.Credential(ctx))

	require.NoError(t, v.Set(ctx, "  stored  "))
	assert.Equal(t, "stored", v.Credential(ctx))
	raw, _, _ := kv.Get(ctx, domain.KeyCredential)
	assert.Equal(t, "stored", raw)

	require.NoError(t, v.Set(ctx, ""))
	assert.Equal(t, "from-config", v.Credential(ctx))
}

func TestVaultPersistenceError(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	require.NoError(t, kv.Close())
	v := credentials.NewVault(kv, "")

	err := v.Set(ctx, "key")
	var perr *domain.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.KeyCredential, perr.Key)

	assert.Empty(t, v.Credential(ctx), "read failures count as no credential")
}

func TestStatic(t *testing.T) {
	assert.Equal(t, "abc", credentials.Static(" abc\n").Credential(context.Background()))
}
