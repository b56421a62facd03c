// Package export writes ledger data to CSV and YAML for use outside the
// program: spreadsheets, diffs and backups.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/sakif/ledger/internal/model"
)

// ComparisonRow is one cell of a comparison in long form: one line per item
// per compared snapshot. Absent cells have an empty amount.
type ComparisonRow struct {
	Section  model.Section `csv:"section"`
	Item     string        `csv:"item"`
	Category string        `csv:"category"`
	Origin   model.Tick    `csv:"origin_at"`
	Snapshot string        `csv:"snapshot"`
	Date     string        `csv:"date"`
	Tick     model.Tick    `csv:"tick"`
	Amount   string        `csv:"amount"`
}

// NetRow is the net worth of one compared snapshot.
type NetRow struct {
	Snapshot      string     `csv:"snapshot"`
	Date          string     `csv:"date"`
	Tick          model.Tick `csv:"tick"`
	PositiveTotal float64    `csv:"positive_total"`
	NegativeTotal float64    `csv:"negative_total"`
	Net           float64    `csv:"net"`
}

// ComparisonRows flattens a comparison, positive section first, rows in
// matrix order and cells in column order.
func ComparisonRows(cmp *model.Comparison) []ComparisonRow {
	var out []ComparisonRow
	for _, m := range []model.Matrix{cmp.Positive, cmp.Negative} {
		for _, row := range m.Rows {
			for i, cell := range row.Cells {
				col := cmp.Columns[i]
				r := ComparisonRow{
					Section:  m.Section,
					Item:     row.Name,
					Category: row.Category,
					Origin:   row.OriginAt,
					Snapshot: col.SnapshotID,
					Date:     col.DateLabel,
					Tick:     col.Tick,
				}
				if !cell.Absent {
					r.Amount = formatAmount(cell.Value)
				}
				out = append(out, r)
			}
		}
	}
	return out
}

func NetRows(cmp *model.Comparison) []NetRow {
	out := make([]NetRow, len(cmp.Columns))
	for i, col := range cmp.Columns {
		out[i] = NetRow{
			Snapshot:      col.SnapshotID,
			Date:          col.DateLabel,
			Tick:          col.Tick,
			PositiveTotal: cmp.Positive.Totals[i],
			NegativeTotal: cmp.Negative.Totals[i],
			Net:           cmp.Net[i],
		}
	}
	return out
}

// CSVWriter writes ledger data as CSV with a header line. The zero value
// separates fields with a comma.
type CSVWriter struct {
	Comma rune
}

func (c CSVWriter) WriteComparison(w io.Writer, cmp *model.Comparison) error {
	return writeCSV(w, c.comma(), ComparisonRows(cmp))
}

func (c CSVWriter) WriteNet(w io.Writer, cmp *model.Comparison) error {
	return writeCSV(w, c.comma(), NetRows(cmp))
}

func (c CSVWriter) WriteSnapshots(w io.Writer, snaps []model.Snapshot) error {
	return writeCSV(w, c.comma(), snaps)
}

// WriteHistory writes every version of every item, one line per version.
func (c CSVWriter) WriteHistory(w io.Writer, versions []model.Item) error {
	return writeCSV(w, c.comma(), versions)
}

func (c CSVWriter) WriteTrend(w io.Writer, points []model.TrendPoint) error {
	return writeCSV(w, c.comma(), points)
}

func (c CSVWriter) comma() rune {
	if c.Comma == 0 {
		return ','
	}
	return c.Comma
}

func writeCSV[T any](w io.Writer, comma rune, rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("export: writing CSV: %w", err)
	}
	return nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
