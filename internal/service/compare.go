package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
	"github.com/sakif/ledger/internal/repository"
)

// Comparator lays several snapshots of one book side by side.
type Comparator struct {
	items  repository.ItemRepository
	logger *slog.Logger
}

func NewComparator(items repository.ItemRepository, logger *slog.Logger) *Comparator {
	return &Comparator{items: items, logger: logger}
}

// Compare builds one matrix per section of book with a column for each
// snapshot, oldest first. Between 1 and model.MaxCompared snapshots are
// accepted, all from the same owner and book.
func (c *Comparator) Compare(ctx context.Context, owner string, book model.Book, snaps []model.Snapshot) (*model.Comparison, error) {
	if err := validateBook(book); err != nil {
		return nil, err
	}
	if len(snaps) == 0 || len(snaps) > model.MaxCompared {
		return nil, apperror.ValidationFailed("select",
			fmt.Sprintf("select between 1 and %d snapshots", model.MaxCompared))
	}

	ordered := make([]model.Snapshot, len(snaps))
	copy(ordered, snaps)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Tick < ordered[j].Tick })

	cmp := &model.Comparison{Book: book, Columns: make([]model.Column, len(ordered))}
	ticks := make([]model.Tick, len(ordered))
	for i, snap := range ordered {
		if snap.Owner != owner || snap.Book != book {
			return nil, apperror.ValidationFailed("select",
				fmt.Sprintf("snapshot %s does not belong to %s's %s book", snap.ID, owner, book))
		}
		cmp.Columns[i] = model.Column{SnapshotID: snap.ID, Tick: snap.Tick, DateLabel: snap.DateLabel}
		ticks[i] = snap.Tick
	}

	posSection, negSection := book.Sections()
	for _, m := range []struct {
		section model.Section
		dst     *model.Matrix
	}{
		{posSection, &cmp.Positive},
		{negSection, &cmp.Negative},
	} {
		history, err := c.items.ListItemHistory(ctx, owner, m.section)
		if err != nil {
			return nil, err
		}
		*m.dst = buildMatrix(m.section, history, ticks)
	}

	cmp.Net = make([]float64, len(ticks))
	for i := range ticks {
		cmp.Net[i] = cmp.Positive.Totals[i] - cmp.Negative.Totals[i]
	}

	c.logger.Debug("snapshots compared",
		slog.String("owner", owner),
		slog.String("book", book.String()),
		slog.Int("columns", len(ticks)),
	)
	return cmp, nil
}

// CompareSelection resolves a "1 3 5" style selection against the book's
// live snapshots and compares them. The parsed selection is returned with
// its warnings even when the comparison fails.
func (c *Comparator) CompareSelection(ctx context.Context, owner string, book model.Book, snaps []model.Snapshot, input string) (*model.Comparison, model.Selection, error) {
	sel, err := ParseSelection(input, len(snaps))
	if err != nil {
		return nil, sel, err
	}
	picked := make([]model.Snapshot, len(sel.Indices))
	for i, idx := range sel.Indices {
		picked[i] = snaps[idx]
	}
	cmp, err := c.Compare(ctx, owner, book, picked)
	return cmp, sel, err
}

// buildMatrix turns the full version history of a section into one row per
// logical item alive at any of ticks. ticks must be ascending.
//
// Versions of one logical item never overlap, so at a tick t the only
// candidate is the last version created at or before t; it is found by
// binary search over the item's versions sorted by CreatedAt.
func buildMatrix(section model.Section, history []model.Item, ticks []model.Tick) model.Matrix {
	m := model.Matrix{
		Section: section,
		Rows:    make([]model.Row, 0),
		Totals:  make([]float64, len(ticks)),
	}

	var origins []model.Tick
	byOrigin := make(map[model.Tick][]model.Item)
	for _, it := range history {
		if _, ok := byOrigin[it.OriginAt]; !ok {
			origins = append(origins, it.OriginAt)
		}
		byOrigin[it.OriginAt] = append(byOrigin[it.OriginAt], it)
	}
	sort.Slice(origins, func(i, j int) bool { return origins[i] < origins[j] })

	for _, origin := range origins {
		versions := byOrigin[origin]
		sort.Slice(versions, func(i, j int) bool { return versions[i].CreatedAt < versions[j].CreatedAt })

		row := model.Row{OriginAt: origin, Cells: make([]model.Cell, len(ticks))}
		last := -1
		for col, t := range ticks {
			i := sort.Search(len(versions), func(i int) bool { return versions[i].CreatedAt > t }) - 1
			if i < 0 || !versions[i].AliveAt(t) {
				row.Cells[col] = model.Cell{Absent: true}
				continue
			}
			row.Cells[col] = model.Cell{Value: versions[i].Amount}
			m.Totals[col] += versions[i].Amount
			row.Name = versions[i].Name
			row.Category = versions[i].CategoryName
			last = col
		}
		if last < 0 {
			continue
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}
