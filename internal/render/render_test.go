package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ledger/internal/model"
)

func plain(t *testing.T) *Renderer {
	t.Helper()
	r, err := New("USD", 0, true)
	require.NoError(t, err)
	return r
}

func TestMoney(t *testing.T) {
	usd, err := NewMoney("usd")
	require.NoError(t, err)

	tests := []struct {
		name   string
		amount float64
		format string
		signed string
	}{
		{"whole", 1234.5, "$1,234.50", "+$1,234.50"},
		{"rounds to cents", 0.105, "$0.11", "+$0.11"},
		{"zero", 0, "$0.00", "$0.00"},
		{"negative", -42, "-$42.00", "-$42.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.format, usd.Format(tt.amount))
			assert.Equal(t, tt.signed, usd.Signed(tt.amount))
		})
	}

	_, err = NewMoney("XYZ")
	assert.Error(t, err)
}

func TestListing(t *testing.T) {
	r := plain(t)
	l := model.Listing{
		Section: model.SectionAsset,
		Categories: []model.Category{
			{Name: "Uncategorized", NameKey: "uncategorized"},
			{Name: "Bank", NameKey: "bank"},
		},
		Items: []model.Item{
			{Name: "Checking", Amount: 100, CategoryName: "Bank", CategoryKey: "bank"},
			{Name: "Savings", Amount: 50, CategoryName: "Bank", CategoryKey: "bank"},
		},
	}

	md := r.Listing(l)
	assert.Contains(t, md, "## Assets")
	assert.Contains(t, md, "| **Uncategorized** |  | $0.00 |")
	assert.Contains(t, md, "| **Bank** | Checking | $100.00 |")
	assert.Contains(t, md, "|  | _subtotal_ | $150.00 |")
	assert.Contains(t, md, "| **Total** |  | **$150.00** |")
}

func TestComparison_AbsentCells(t *testing.T) {
	r := plain(t)
	cmp := &model.Comparison{
		Columns: []model.Column{{Tick: 2, DateLabel: "2024-03-01"}, {Tick: 5, DateLabel: "2024-04-01"}},
		Positive: model.Matrix{
			Section: model.SectionAsset,
			Rows: []model.Row{
				{Name: "Savings", Category: "Bank", Cells: []model.Cell{{Absent: true}, {Value: 0}}},
			},
			Totals: []float64{0, 0},
		},
		Negative: model.Matrix{Section: model.SectionLiability, Totals: []float64{0, 0}},
		Net:      []float64{0, 0},
	}

	md := r.Comparison(cmp)
	assert.Contains(t, md, "| Item | Category | 2024-03-01 (#2) | 2024-04-01 (#5) |")
	assert.Contains(t, md, "| Savings | Bank | - | $0.00 |")
	assert.Contains(t, md, "## Liabilities")
	assert.Contains(t, md, "| **Net** |  | **$0.00** | **$0.00** |")
}

func TestSnapshots_NumberedFromOne(t *testing.T) {
	r := plain(t)
	md := r.Snapshots("Snapshots", []model.Snapshot{
		{ID: "a", Tick: 2, DateLabel: "2024-03-01", NetWorth: 10},
		{ID: "b", Tick: 4, DateLabel: "2024-03-02", NetWorth: 20, Comment: "a|b"},
	})
	assert.Contains(t, md, "| 1 | 2024-03-01 | 2 | $10.00 |  | a |")
	assert.Contains(t, md, `| 2 | 2024-03-02 | 4 | $20.00 | a\|b | b |`)

	assert.Contains(t, r.Snapshots("Deleted snapshots", nil), "_none_")
}

func TestTrend(t *testing.T) {
	r := plain(t)
	md := r.Trend([]model.TrendPoint{
		{DateLabel: "2024-03-01", NetWorth: 100, DayOffset: 0},
		{DateLabel: "bad", NetWorth: 80, DayOffset: -1},
	})
	assert.Contains(t, md, "| 2024-03-01 | 0 | $100.00 |  |")
	assert.Contains(t, md, "| bad |  | $80.00 | -$20.00 |")
}

func TestRender_Terminal(t *testing.T) {
	r, err := New("EUR", 80, false)
	require.NoError(t, err)

	out, err := r.Render(r.BookView(model.BookView{
		Book:     model.BookBalance,
		AsOf:     3,
		Positive: model.Listing{Section: model.SectionAsset, Items: []model.Item{{Name: "Checking", Amount: 5, CategoryName: "Bank", CategoryKey: "bank"}}},
		Negative: model.Listing{Section: model.SectionLiability},
		Net:      5,
	}))
	require.NoError(t, err)
	assert.Contains(t, out, "Checking")
	assert.Contains(t, out, "Liabilities")
	assert.NotEqual(t, strings.TrimSpace(out), "")
}
