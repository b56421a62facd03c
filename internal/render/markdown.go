package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sakif/ledger/internal/model"
)

// Categories lists a section's categories with their stable keys.
func (r *Renderer) Categories(section model.Section, categories []model.Category) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s categories\n\n", section.Label())
	rows := make([][]string, len(categories))
	for i, c := range categories {
		rows[i] = []string{strconv.Itoa(i + 1), c.Name, c.NameKey}
	}
	table(&b, []string{"#", "Category", "Key"}, rows)
	return b.String()
}

// Listing shows a section grouped by category with a subtotal per category.
// Empty categories are listed too.
func (r *Renderer) Listing(l model.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", l.Section.Label())

	var rows [][]string
	for _, g := range l.ByCategory() {
		if len(g.Items) == 0 {
			rows = append(rows, []string{"**" + g.Name + "**", "", r.Format(0)})
			continue
		}
		for i, it := range g.Items {
			cat := ""
			if i == 0 {
				cat = "**" + g.Name + "**"
			}
			rows = append(rows, []string{cat, it.Name, r.Format(it.Amount)})
		}
		if len(g.Items) > 1 {
			rows = append(rows, []string{"", "_subtotal_", r.Format(g.Total)})
		}
	}
	rows = append(rows, []string{"**Total**", "", "**" + r.Format(l.Total()) + "**"})
	table(&b, []string{"Category", "Item", "Amount"}, rows)
	return b.String()
}

// BookView shows both sections of a book and the net.
func (r *Renderer) BookView(view model.BookView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s book (tick %d)\n\n", view.Book, view.AsOf)
	b.WriteString(r.Listing(view.Positive))
	b.WriteString(r.Listing(view.Negative))
	fmt.Fprintf(&b, "**Net: %s**\n", r.Format(view.Net))
	return b.String()
}

// SnapshotView shows the rebuilt book next to the net worth recorded with
// the snapshot. The two can differ; both are shown as they are.
func (r *Renderer) SnapshotView(sv model.SnapshotView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "> Snapshot %s, %s", sv.Snapshot.ID, sv.Snapshot.DateLabel)
	if sv.Snapshot.Comment != "" {
		fmt.Fprintf(&b, ": %s", sv.Snapshot.Comment)
	}
	b.WriteString("\n\n")
	b.WriteString(r.BookView(sv.View))
	fmt.Fprintf(&b, "\nRecorded net worth: %s\n", r.Format(sv.StoredNetWorth))
	return b.String()
}

// Snapshots lists snapshots numbered from 1, the numbers a comparison
// selection refers to.
func (r *Renderer) Snapshots(title string, snaps []model.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	if len(snaps) == 0 {
		b.WriteString("_none_\n")
		return b.String()
	}
	rows := make([][]string, len(snaps))
	for i, s := range snaps {
		rows[i] = []string{strconv.Itoa(i + 1), s.DateLabel, strconv.FormatInt(int64(s.Tick), 10), r.Format(s.NetWorth), s.Comment, s.ID}
	}
	table(&b, []string{"#", "Date", "Tick", "Net worth", "Comment", "ID"}, rows)
	return b.String()
}

// History lists every version of the section's items, oldest first within
// each item.
func (r *Renderer) History(section model.Section, versions []model.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s history\n\n", section.Label())
	rows := make([][]string, len(versions))
	for i, v := range versions {
		closed := ""
		if v.IsClosed {
			closed = strconv.FormatInt(int64(v.ClosedAt), 10)
		}
		rows[i] = []string{
			strconv.FormatInt(int64(v.OriginAt), 10),
			v.Name,
			v.CategoryName,
			r.Format(v.Amount),
			strconv.FormatInt(int64(v.CreatedAt), 10),
			closed,
		}
	}
	table(&b, []string{"Origin", "Item", "Category", "Amount", "Created", "Closed"}, rows)
	return b.String()
}

// Trend lists net worth per snapshot with the change from the previous one.
func (r *Renderer) Trend(points []model.TrendPoint) string {
	var b strings.Builder
	b.WriteString("## Net worth trend\n\n")
	rows := make([][]string, len(points))
	for i, p := range points {
		change := ""
		if i > 0 {
			change = r.Signed(p.NetWorth - points[i-1].NetWorth)
		}
		day := ""
		if p.DayOffset >= 0 {
			day = strconv.Itoa(p.DayOffset)
		}
		rows[i] = []string{p.DateLabel, day, r.Format(p.NetWorth), change}
	}
	table(&b, []string{"Date", "Day", "Net worth", "Change"}, rows)
	return b.String()
}

// Comparison lays the compared snapshots out as columns. Items with no
// version at a snapshot show a dash.
func (r *Renderer) Comparison(cmp *model.Comparison) string {
	var b strings.Builder
	header := []string{"Item", "Category"}
	for _, c := range cmp.Columns {
		header = append(header, c.DateLabel+" (#"+strconv.FormatInt(int64(c.Tick), 10)+")")
	}

	for _, m := range []model.Matrix{cmp.Positive, cmp.Negative} {
		fmt.Fprintf(&b, "## %s\n\n", m.Section.Label())
		var rows [][]string
		for _, row := range m.Rows {
			cells := []string{row.Name, row.Category}
			for _, c := range row.Cells {
				if c.Absent {
					cells = append(cells, "-")
				} else {
					cells = append(cells, r.Format(c.Value))
				}
			}
			rows = append(rows, cells)
		}
		total := []string{"**Total**", ""}
		for _, t := range m.Totals {
			total = append(total, "**"+r.Format(t)+"**")
		}
		rows = append(rows, total)
		table(&b, header, rows)
	}

	net := []string{"**Net**", ""}
	for _, n := range cmp.Net {
		net = append(net, "**"+r.Format(n)+"**")
	}
	table(&b, header, [][]string{net})
	return b.String()
}
