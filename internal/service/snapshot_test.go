package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
)

// Bank/Checking = 500, snapshot; update to 700, snapshot; each snapshot
// still rebuilds its own amount. After deleting Checking a third snapshot
// shows it absent and a net worth of 0.
func TestSnapshotScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.ledger.CreateCategory(ctx, testOwner, model.SectionAsset, "Bank")
	require.NoError(t, err)
	require.Equal(t, CategoryCreated, res.Status)
	checking := env.item(t, model.SectionAsset, "Checking", 500, "Bank")

	first, err := env.snapshots.CaptureSnapshot(ctx, testOwner, model.BookBalance, "first")
	require.NoError(t, err)
	assert.Equal(t, 500.0, first.NetWorth)
	assert.Equal(t, "2024-03-01", first.DateLabel)

	checking = env.setAmount(t, checking, 700)
	second, err := env.snapshots.CaptureSnapshot(ctx, testOwner, model.BookBalance, "second")
	require.NoError(t, err)
	assert.Equal(t, 700.0, second.NetWorth)

	for _, tt := range []struct {
		snap *model.Snapshot
		want float64
	}{
		{first, 500},
		{second, 700},
	} {
		view, err := env.snapshots.ViewSnapshot(ctx, *tt.snap)
		require.NoError(t, err)
		require.Len(t, view.View.Positive.Items, 1)
		assert.Equal(t, "Checking", view.View.Positive.Items[0].Name)
		assert.Equal(t, tt.want, view.View.Positive.Items[0].Amount)
		assert.Equal(t, tt.want, view.View.Net)
		assert.Equal(t, tt.want, view.StoredNetWorth)
	}

	require.NoError(t, env.ledger.DeleteItem(ctx, checking))
	third, err := env.snapshots.CaptureSnapshot(ctx, testOwner, model.BookBalance, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, third.NetWorth)

	view, err := env.snapshots.ViewSnapshot(ctx, *third)
	require.NoError(t, err)
	assert.Empty(t, view.View.Positive.Items)

	list, err := env.snapshots.ListSnapshots(ctx, testOwner, model.BookBalance)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestCreateSnapshot_AlwaysAdvancesClock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.snapshots.CreateSnapshot(ctx, testOwner, model.BookBalance, 10, "")
	require.NoError(t, err)
	b, err := env.snapshots.CreateSnapshot(ctx, testOwner, model.BookBalance, 10, "")
	require.NoError(t, err)

	assert.Equal(t, model.Tick(1), a.Tick)
	assert.Equal(t, model.Tick(2), b.Tick)
	assert.NotEqual(t, a.ID, b.ID)

	_, err = env.snapshots.CreateSnapshot(ctx, testOwner, model.BookBalance, math.NaN(), "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCreateSnapshot_StoredNetWorthIsNotReconciled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.item(t, model.SectionAsset, "Checking", 100, "uncategorized")

	snap, err := env.snapshots.CreateSnapshot(ctx, testOwner, model.BookBalance, 999, "typed by hand")
	require.NoError(t, err)

	view, err := env.snapshots.ViewSnapshot(ctx, *snap)
	require.NoError(t, err)
	assert.Equal(t, 100.0, view.View.Net)
	assert.Equal(t, 999.0, view.StoredNetWorth)
	assert.Equal(t, "typed by hand", view.Snapshot.Comment)
}

func TestDeleteAndRestoreSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.item(t, model.SectionAsset, "Checking", 100, "uncategorized")

	snap, err := env.snapshots.CaptureSnapshot(ctx, testOwner, model.BookBalance, "")
	require.NoError(t, err)

	require.NoError(t, env.snapshots.DeleteSnapshot(ctx, *snap))

	live, err := env.snapshots.ListSnapshots(ctx, testOwner, model.BookBalance)
	require.NoError(t, err)
	assert.Empty(t, live)

	// Items are not touched by snapshot deletion.
	listing, err := env.ledger.ListOpen(ctx, testOwner, model.SectionAsset)
	require.NoError(t, err)
	assert.Len(t, listing.Items, 1)

	deleted, err := env.snapshots.ListDeletedSnapshots(ctx, testOwner, model.BookBalance)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, int64(1), deleted[0].DeletionMarker)

	err = env.snapshots.DeleteSnapshot(ctx, deleted[0])
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	restored, err := env.snapshots.RestoreSnapshot(ctx, testOwner, model.BookBalance, snap.ID)
	require.NoError(t, err)
	assert.NotEqual(t, snap.ID, restored.ID)
	assert.Equal(t, snap.Tick, restored.Tick)
	assert.False(t, restored.Deleted())

	_, err = env.snapshots.RestoreSnapshot(ctx, testOwner, model.BookBalance, snap.ID)
	assert.ErrorIs(t, err, apperror.ErrDuplicate, "a live snapshot already holds the tick")

	_, err = env.snapshots.RestoreSnapshot(ctx, testOwner, model.BookBalance, restored.ID)
	assert.ErrorIs(t, err, apperror.ErrValidation, "live snapshots cannot be restored")

	// Deleting again moves the restored copy to marker 2.
	require.NoError(t, env.snapshots.DeleteSnapshot(ctx, *restored))
	deleted, err = env.snapshots.ListDeletedSnapshots(ctx, testOwner, model.BookBalance)
	require.NoError(t, err)
	require.Len(t, deleted, 2)
	assert.Equal(t, int64(2), deleted[1].DeletionMarker)
}

func TestTrend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	checking := env.item(t, model.SectionAsset, "Checking", 100, "uncategorized")

	days := []time.Time{
		time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 23, 0, 0, 0, time.UTC),
	}
	for i, day := range days {
		env.snapshots.now = func() time.Time { return day }
		_, err := env.snapshots.CaptureSnapshot(ctx, testOwner, model.BookBalance, "")
		require.NoError(t, err)
		checking = env.setAmount(t, checking, float64(200*(i+1)))
	}

	points, err := env.snapshots.Trend(ctx, testOwner, model.BookBalance)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, []int{0, 10, 31}, []int{points[0].DayOffset, points[1].DayOffset, points[2].DayOffset})
	assert.Equal(t, []float64{100, 200, 400}, []float64{points[0].NetWorth, points[1].NetWorth, points[2].NetWorth})
	assert.Equal(t, "2024-01-11", points[1].DateLabel)
}

func TestSnapshots_BudgetBookUsesItsOwnClock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.item(t, model.SectionIncome, "Salary", 4000, "uncategorized")
	env.item(t, model.SectionExpense, "Rent", 1500, "uncategorized")
	env.item(t, model.SectionAsset, "Checking", 1, "uncategorized")

	snap, err := env.snapshots.CaptureSnapshot(ctx, testOwner, model.BookBudget, "")
	require.NoError(t, err)
	assert.Equal(t, model.Tick(3), snap.Tick)
	assert.Equal(t, 2500.0, snap.NetWorth)

	balance, err := env.snapshots.ListSnapshots(ctx, testOwner, model.BookBalance)
	require.NoError(t, err)
	assert.Empty(t, balance)

	_, err = env.snapshots.GetSnapshot(ctx, testOwner, model.BookBalance, snap.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
