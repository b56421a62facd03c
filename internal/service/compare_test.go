package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
)

func version(name string, amount float64, origin, created, closed model.Tick) model.Item {
	return model.Item{
		Name:         name,
		NameKey:      model.Key(name),
		Amount:       amount,
		CategoryName: "Bank",
		CategoryKey:  "bank",
		Section:      model.SectionAsset,
		CreatedAt:    created,
		OriginAt:     origin,
		ClosedAt:     closed,
		IsClosed:     closed != model.OpenTick,
	}
}

// A is alive during [5,10) and B during [8,20). Compared at 3, 9 and 15,
// A shows only at 9 and B at 9 and 15.
func TestBuildMatrix_MarksAbsence(t *testing.T) {
	history := []model.Item{
		version("A", 10, 5, 5, 10),
		version("B", 20, 8, 8, 20),
	}

	m := buildMatrix(model.SectionAsset, history, []model.Tick{3, 9, 15})

	require.Len(t, m.Rows, 2)
	a, b := m.Rows[0], m.Rows[1]
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, []model.Cell{{Absent: true}, {Value: 10}, {Absent: true}}, a.Cells)
	assert.Equal(t, "B", b.Name)
	assert.Equal(t, []model.Cell{{Absent: true}, {Value: 20}, {Value: 20}}, b.Cells)
	assert.Equal(t, []float64{0, 30, 20}, m.Totals)
}

func TestBuildMatrix_PicksVersionAliveAtEachTick(t *testing.T) {
	// One logical item edited twice; each edit closes at t1 and reopens at t1+1.
	history := []model.Item{
		version("Checking", 100, 1, 1, 4),
		version("Checking", 150, 1, 5, 8),
		version("Current account", 175, 1, 9, model.OpenTick),
	}

	m := buildMatrix(model.SectionAsset, history, []model.Tick{2, 4, 6, 12})

	require.Len(t, m.Rows, 1)
	row := m.Rows[0]
	assert.Equal(t, model.Tick(1), row.OriginAt)
	assert.Equal(t, []model.Cell{{Value: 100}, {Absent: true}, {Value: 150}, {Value: 175}}, row.Cells)
	assert.Equal(t, "Current account", row.Name, "name comes from the latest column where the item is alive")
}

func TestBuildMatrix_NameFromLatestAliveColumn(t *testing.T) {
	history := []model.Item{
		version("Old name", 1, 1, 1, 4),
		version("New name", 2, 1, 5, 8),
	}

	m := buildMatrix(model.SectionAsset, history, []model.Tick{2, 10})

	require.Len(t, m.Rows, 1)
	assert.Equal(t, "Old name", m.Rows[0].Name, "the item is gone by tick 10")
}

func TestBuildMatrix_SkipsItemsNeverAlive(t *testing.T) {
	history := []model.Item{
		version("Gone", 1, 1, 1, 2),
		version("Later", 1, 50, 50, model.OpenTick),
	}

	m := buildMatrix(model.SectionAsset, history, []model.Tick{10, 20})

	assert.Empty(t, m.Rows)
	assert.Equal(t, []float64{0, 0}, m.Totals)
}

func TestCompare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.category(t, model.SectionAsset, "Bank")
	env.category(t, model.SectionLiability, "Loans")

	checking := env.item(t, model.SectionAsset, "Checking", 500, "bank")
	loan := env.item(t, model.SectionLiability, "Car loan", 200, "loans")
	s1, err := env.snapshots.CaptureSnapshot(ctx, testOwner, model.BookBalance, "")
	require.NoError(t, err)

	env.setAmount(t, checking, 700)
	require.NoError(t, env.ledger.DeleteItem(ctx, loan))
	env.item(t, model.SectionAsset, "Savings", 50, "bank")
	s2, err := env.snapshots.CaptureSnapshot(ctx, testOwner, model.BookBalance, "")
	require.NoError(t, err)

	// Out of order on purpose; columns come back chronological.
	cmp, err := env.compare.Compare(ctx, testOwner, model.BookBalance, []model.Snapshot{*s2, *s1})
	require.NoError(t, err)

	require.Len(t, cmp.Columns, 2)
	assert.Equal(t, s1.ID, cmp.Columns[0].SnapshotID)
	assert.Equal(t, s2.ID, cmp.Columns[1].SnapshotID)

	require.Len(t, cmp.Positive.Rows, 2)
	assert.Equal(t, "Checking", cmp.Positive.Rows[0].Name)
	assert.Equal(t, []model.Cell{{Value: 500}, {Value: 700}}, cmp.Positive.Rows[0].Cells)
	assert.Equal(t, []model.Cell{{Absent: true}, {Value: 50}}, cmp.Positive.Rows[1].Cells)

	require.Len(t, cmp.Negative.Rows, 1)
	assert.Equal(t, []model.Cell{{Value: 200}, {Absent: true}}, cmp.Negative.Rows[0].Cells)

	assert.Equal(t, []float64{500, 750}, cmp.Positive.Totals)
	assert.Equal(t, []float64{200, 0}, cmp.Negative.Totals)
	assert.Equal(t, []float64{300, 750}, cmp.Net)
	assert.Equal(t, s1.NetWorth, cmp.Net[0])
	assert.Equal(t, s2.NetWorth, cmp.Net[1])
}

func TestCompare_RejectsBadSelections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.compare.Compare(ctx, testOwner, model.BookBalance, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	var six []model.Snapshot
	for i := 0; i < 6; i++ {
		s, err := env.snapshots.CreateSnapshot(ctx, testOwner, model.BookBalance, 0, "")
		require.NoError(t, err)
		six = append(six, *s)
	}
	_, err = env.compare.Compare(ctx, testOwner, model.BookBalance, six)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.compare.Compare(ctx, testOwner, model.BookBudget, six[:2])
	assert.ErrorIs(t, err, apperror.ErrValidation, "snapshots from another book")
}

func TestCompareSelection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.snapshots.CreateSnapshot(ctx, testOwner, model.BookBalance, float64(i), "")
		require.NoError(t, err)
	}
	snaps, err := env.snapshots.ListSnapshots(ctx, testOwner, model.BookBalance)
	require.NoError(t, err)

	cmp, sel, err := env.compare.CompareSelection(ctx, testOwner, model.BookBalance, snaps, "3 1 9")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, sel.Indices)
	assert.Len(t, sel.Warnings, 1)
	require.Len(t, cmp.Columns, 2)
	assert.Equal(t, snaps[0].ID, cmp.Columns[0].SnapshotID)

	_, sel, err = env.compare.CompareSelection(ctx, testOwner, model.BookBalance, snaps, "x")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Len(t, sel.Warnings, 1)
}
