package cart

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/cropmarket-backend/internal/devicecache"
	"github.com/angelmondragon/cropmarket-backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFirstDurabilityAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.db")
	ctx := context.Background()

	first, err := devicecache.OpenBolt(path)
	require.NoError(t, err)
	store, err := NewStore(StoreParams{Local: first, Session: session.NewProvider("")})
	require.NoError(t, err)
	_, err = store.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, store.AddLine(ctx, line(t, "crop-1", "Corn", "2.00", 3)))
	require.NoError(t, store.AddLine(ctx, line(t, "crop-2", "Wheat", "1.50", 2)))
	want := store.Snapshot()
	require.NoError(t, store.Flush(ctx))
	require.NoError(t, store.Close(ctx))
	require.NoError(t, first.Close())

	second, err := devicecache.OpenBolt(path)
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })
	restarted, err := NewStore(StoreParams{Local: second, Session: session.NewProvider("")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = restarted.Close(ctx) })

	source, err := restarted.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, LoadSourceLocal, source)

	got := restarted.Snapshot()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice))
	}
	assert.Equal(t, "9.00", restarted.Totals().DisplayPrice())
}
