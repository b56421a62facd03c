package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ledger/internal/model"
)

type compareBody struct {
	model.Comparison
	Warnings []string `json:"warnings"`
}

func TestSnapshots(t *testing.T) {
	h := newTestRouter(t)
	items := "/books/balance/sections/asset/items"
	snaps := "/books/balance/snapshots"

	do(t, h, http.MethodPost, items, `{"name":"Checking","amount":100}`)
	rr := do(t, h, http.MethodPost, snaps, `{"comment":"payday"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	first := decode[model.Snapshot](t, rr)
	assert.Equal(t, 100.0, first.NetWorth)
	assert.Equal(t, "payday", first.Comment)
	assert.NotEmpty(t, first.ID)

	do(t, h, http.MethodPut, items+"/checking", `{"amount":300}`)
	do(t, h, http.MethodPost, items, `{"name":"Savings","amount":50}`)
	rr = do(t, h, http.MethodPost, snaps, `{"netWorth":999,"comment":"manual"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	second := decode[model.Snapshot](t, rr)
	assert.Equal(t, 999.0, second.NetWorth)

	t.Run("list in tick order", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, snaps, "")
		require.Equal(t, http.StatusOK, rr.Code)
		list := decode[[]model.Snapshot](t, rr)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, second.ID, list[1].ID)
	})

	t.Run("view rebuilds the book at the snapshot", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, snaps+"/"+first.ID, "")
		require.Equal(t, http.StatusOK, rr.Code)
		view := decode[model.SnapshotView](t, rr)
		assert.Equal(t, 100.0, view.View.Net)
		require.Len(t, view.View.Positive.Items, 1)
		assert.Equal(t, 100.0, view.View.Positive.Items[0].Amount)
	})

	t.Run("view keeps the stored net worth", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, snaps+"/"+second.ID, "")
		require.Equal(t, http.StatusOK, rr.Code)
		view := decode[model.SnapshotView](t, rr)
		assert.Equal(t, 350.0, view.View.Net)
		assert.Equal(t, 999.0, view.StoredNetWorth)
	})

	t.Run("compare", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/books/balance/compare", `{"select":"2 1 9"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		cmp := decode[compareBody](t, rr)
		require.Len(t, cmp.Columns, 2)
		assert.Equal(t, first.ID, cmp.Columns[0].SnapshotID)
		assert.Len(t, cmp.Warnings, 1)
		assert.Equal(t, []float64{100, 350}, cmp.Net)

		require.Len(t, cmp.Positive.Rows, 2)
		savings := cmp.Positive.Rows[1]
		assert.Equal(t, "Savings", savings.Name)
		assert.True(t, savings.Cells[0].Absent)
		assert.Equal(t, 50.0, savings.Cells[1].Value)
	})

	t.Run("compare with nothing valid", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/books/balance/compare", `{"select":"x 0"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("trend", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/books/balance/trend", "")
		require.Equal(t, http.StatusOK, rr.Code)
		points := decode[[]model.TrendPoint](t, rr)
		require.Len(t, points, 2)
		assert.Equal(t, 100.0, points[0].NetWorth)
		assert.Equal(t, 0, points[0].DayOffset)
	})

	t.Run("delete then restore", func(t *testing.T) {
		rr := do(t, h, http.MethodDelete, snaps+"/"+first.ID, "")
		require.Equal(t, http.StatusNoContent, rr.Code)

		rr = do(t, h, http.MethodGet, snaps+"/deleted", "")
		require.Equal(t, http.StatusOK, rr.Code)
		deleted := decode[[]model.Snapshot](t, rr)
		require.Len(t, deleted, 1)
		assert.Equal(t, first.ID, deleted[0].ID)
		assert.Equal(t, int64(1), deleted[0].DeletionMarker)

		rr = do(t, h, http.MethodPost, snaps+"/"+first.ID+"/restore", "")
		require.Equal(t, http.StatusCreated, rr.Code)
		restored := decode[model.Snapshot](t, rr)
		assert.NotEqual(t, first.ID, restored.ID)
		assert.Equal(t, first.Tick, restored.Tick)

		rr = do(t, h, http.MethodPost, snaps+"/"+first.ID+"/restore", "")
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("unknown snapshot", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, snaps+"/nope", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
