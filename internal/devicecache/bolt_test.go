package devicecache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBolt(t *testing.T) (*BoltCache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cart.db")
	c, err := OpenBolt(path)
	require.NoError(t, err)
	return c, path
}

func TestBoltReadWriteDelete(t *testing.T) {
	c, _ := newTestBolt(t)
	t.Cleanup(func() { c.Close() })
	ctx := context.Background()

	_, ok, err := c.Read(ctx, "cartItems")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Write(ctx, "cartItems", []byte(`[{"id":"crop-1"}]`)))
	got, ok, err := c.Read(ctx, "cartItems")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"crop-1"}]`, string(got))

	require.NoError(t, c.Delete(ctx, "cartItems"))
	require.NoError(t, c.Delete(ctx, "cartItems"))
	_, ok, err = c.Read(ctx, "cartItems")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, c.Ping(ctx))
}

func TestBoltSurvivesReopen(t *testing.T) {
	c, path := newTestBolt(t)
	ctx := context.Background()
	require.NoError(t, c.Write(ctx, "cartItems", []byte(`[]`)))
	require.NoError(t, c.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, ok, err := reopened.Read(ctx, "cartItems")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(got))
}

func TestBoltHonoursCanceledContext(t *testing.T) {
	c, _ := newTestBolt(t)
	t.Cleanup(func() { c.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, c.Write(ctx, "k", []byte("v")))
	_, _, err := c.Read(ctx, "k")
	assert.Error(t, err)
}

func TestOpenBoltRequiresPath(t *testing.T) {
	_, err := OpenBolt("")
	assert.Error(t, err)
}
