package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/cropmarket-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLineMergesByID(t *testing.T) {
	h := newHarness(t, "")
	h.load(t)
	ctx := context.Background()

	require.NoError(t, h.store.AddLine(ctx, line(t, "crop-1", "Corn", "2.00", 3)))
	require.NoError(t, h.store.AddLine(ctx, line(t, "crop-1", "Renamed", "9.99", 2)))

	lines := h.store.Snapshot()
	require.Len(t, lines, 1)
	assert.Equal(t, "crop-1", lines[0].ID)
	assert.Equal(t, "Corn", lines[0].Name)
	assert.True(t, lines[0].UnitPrice.Equal(price(t, "2")))
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestAddLineKeepsInsertionOrder(t *testing.T) {
	h := newHarness(t, "")
	h.load(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, h.store.AddLine(ctx, line(t, id, id, "1", 1)))
	}
	require.NoError(t, h.store.AddLine(ctx, line(t, "a", "a", "1", 1)))

	var ids []string
	for _, l := range h.store.Snapshot() {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestAddLineRejectsInvalidInput(t *testing.T) {
	h := newHarness(t, "")
	h.load(t)
	ctx := context.Background()

	cases := []LineInput{
		line(t, " ", "Corn", "1", 1),
		line(t, "crop-1", "Corn", "1", 0),
		line(t, "crop-1", "Corn", "-0.01", 1),
	}
	for _, in := range cases {
		err := h.store.AddLine(ctx, in)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "unexpected error %v", err)
	}
	assert.Empty(t, h.store.Snapshot())
}

func TestRemoveLineDropsWholeLine(t *testing.T) {
	h := newHarness(t, "")
	h.load(t)
	ctx := context.Background()

	require.NoError(t, h.store.AddLine(ctx, line(t, "crop-1", "Corn", "2", 5)))
	require.NoError(t, h.store.AddLine(ctx, line(t, "crop-2", "Wheat", "1", 1)))
	require.NoError(t, h.store.RemoveLine(ctx, "crop-1"))

	lines := h.store.Snapshot()
	require.Len(t, lines, 1)
	assert.Equal(t, "crop-2", lines[0].ID)

	require.NoError(t, h.store.RemoveLine(ctx, "crop-1"))
	assert.Equal(t, lines, h.store.Snapshot())

	require.NoError(t, h.store.RemoveLine(ctx, "missing"))
	assert.Len(t, h.store.Snapshot(), 1)
}

func TestTotals(t *testing.T) {
	h := newHarness(t, "")
	h.load(t)
	ctx := context.Background()

	empty := h.store.Totals()
	assert.Equal(t, 0, empty.TotalItems)
	assert.Equal(t, "0.00", empty.DisplayPrice())

	require.NoError(t, h.store.AddLine(ctx, line(t, "a", "A", "2.50", 3)))
	require.NoError(t, h.store.AddLine(ctx, line(t, "b", "B", "1.00", 4)))

	totals := h.store.Totals()
	assert.Equal(t, 7, totals.TotalItems)
	assert.True(t, totals.TotalPrice.Equal(price(t, "11.50")), "got %s", totals.TotalPrice)
	assert.Equal(t, "11.50", totals.DisplayPrice())
}

func TestTotalsAreNotRoundedInState(t *testing.T) {
	h := newHarness(t, "")
	h.load(t)
	require.NoError(t, h.store.AddLine(context.Background(), line(t, "a", "A", "0.333", 3)))

	totals := h.store.Totals()
	assert.True(t, totals.TotalPrice.Equal(price(t, "0.999")))
	assert.Equal(t, "1.00", totals.DisplayPrice())
}

func TestSnapshotIsACopy(t *testing.T) {
	h := newHarness(t, "")
	h.load(t)
	require.NoError(t, h.store.AddLine(context.Background(), line(t, "a", "A", "1", 1)))

	snap := h.store.Snapshot()
	snap[0].Quantity = 99
	assert.Equal(t, 1, h.store.Snapshot()[0].Quantity)
}

func TestMutationsPersistToBothMirrors(t *testing.T) {
	h := newHarness(t, "farmer-1")
	h.load(t)
	ctx := context.Background()

	require.NoError(t, h.store.AddLine(ctx, line(t, "crop-1", "Corn", "2", 1)))
	require.NoError(t, h.flush(t))

	raw, ok := h.local.raw(CartItemsKey)
	require.True(t, ok)
	local, err := DecodeLines(raw)
	require.NoError(t, err)
	assert.Equal(t, h.store.Snapshot(), local)

	rec := h.users.record("farmer-1")
	assert.True(t, rec.HasCart)
	assert.Equal(t, h.store.Snapshot(), rec.Cart)
}

func TestAnonymousMutationsStayLocal(t *testing.T) {
	h := newHarness(t, "")
	h.load(t)
	require.NoError(t, h.store.AddLine(context.Background(), line(t, "crop-1", "Corn", "2", 1)))
	require.NoError(t, h.flush(t))

	writes, _ := h.users.counts()
	assert.Zero(t, writes)
	_, ok := h.local.raw(CartItemsKey)
	assert.True(t, ok)
}

func TestClearUsesDeletePath(t *testing.T) {
	h := newHarness(t, "farmer-1")
	h.load(t)
	ctx := context.Background()

	require.NoError(t, h.store.AddLine(ctx, line(t, "crop-1", "Corn", "2", 1)))
	require.NoError(t, h.flush(t))
	require.NoError(t, h.store.Clear(ctx))
	require.NoError(t, h.flush(t))

	assert.Empty(t, h.store.Snapshot())
	_, ok := h.local.raw(CartItemsKey)
	assert.False(t, ok, "local cart should be deleted, not overwritten")
	assert.Equal(t, 1, h.local.deletes)

	rec := h.users.record("farmer-1")
	assert.False(t, rec.HasCart)
	_, deletes := h.users.counts()
	assert.Equal(t, 1, deletes)
}

func TestMirrorFailureIsIsolated(t *testing.T) {
	h := newHarness(t, "farmer-1")
	h.load(t)
	h.local.writeErr = errors.New("disk full")
	ctx := context.Background()

	require.NoError(t, h.store.AddLine(ctx, line(t, "crop-1", "Corn", "2", 1)))
	err := h.flush(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))

	var perr *PersistError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, mirrorLocal, perr.Mirror)
	assert.Equal(t, opAdd, perr.Op)

	assert.True(t, h.users.record("farmer-1").HasCart, "remote write must not be blocked by the local failure")
	assert.Len(t, h.store.Snapshot(), 1, "memory stays authoritative")

	assert.NoError(t, h.flush(t), "failures are reported once")
}

func TestMutationsBeforeLoadAreNotPersisted(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	require.NoError(t, h.local.Write(ctx, CartItemsKey, []byte(`[{"id":"crop-9","itemName":"Rye","price":"3","quantity":1}]`)))
	h.local.writes = 0

	require.False(t, h.store.Loaded())
	require.NoError(t, h.store.AddLine(ctx, line(t, "crop-1", "Corn", "2", 1)))
	require.NoError(t, h.flush(t))
	assert.Zero(t, h.local.writes)

	assert.Equal(t, LoadSourceLocal, h.load(t))
	lines := h.store.Snapshot()
	require.Len(t, lines, 1)
	assert.Equal(t, "crop-9", lines[0].ID)
}

func TestClosedStoreRejectsMutations(t *testing.T) {
	h := newHarness(t, "")
	h.load(t)
	require.NoError(t, h.store.Close(context.Background()))

	assert.ErrorIs(t, h.store.AddLine(context.Background(), line(t, "a", "A", "1", 1)), ErrClosed)
	_, err := h.store.Load(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.store.Ready(context.Background()), ErrClosed)
}

func TestReadyHonoursContext(t *testing.T) {
	h := newHarness(t, "farmer-1")
	release := h.users.gate("farmer-2")
	defer release()

	h.session.Set("farmer-2")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.store.Ready(ctx), context.DeadlineExceeded)
}

func TestNewStoreValidatesDependencies(t *testing.T) {
	_, err := NewStore(StoreParams{})
	assert.Error(t, err)
	_, err = NewStore(StoreParams{Local: newMemLocal()})
	assert.Error(t, err)
}
