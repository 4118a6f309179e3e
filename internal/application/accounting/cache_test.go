package accounting

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryCache_InicializarVersionNoPisaUnBump(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewSummaryCache(client, 0)
	ctx := context.Background()

	// Un lector vio la llave ausente; antes de inicializarla llegan dos commits.
	require.NoError(t, cache.Bump(ctx))
	require.NoError(t, cache.Bump(ctx))

	ver, err := cache.initVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)

	stored, err := mr.Get(summaryVersionKey)
	require.NoError(t, err)
	assert.Equal(t, "2", stored)
}

func TestSummaryCache_VersionInicialEsUno(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewSummaryCache(client, 0)

	ver, err := cache.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)
	assert.True(t, mr.Exists(summaryVersionKey))
}
