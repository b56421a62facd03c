// Package service holds the ledger's business rules. Handlers and CLI
// commands call into it; it reads and writes through repository.Store and
// never formats anything for display.
//
//	cli / handler → LedgerService, SnapshotService, Comparator → repository.Store
//
// Every structural change draws a fresh tick from the Clock of the book it
// touches. Reads never advance a clock.
package service

import (
	"context"

	"github.com/sakif/ledger/internal/model"
	"github.com/sakif/ledger/internal/repository"
)

// Clock hands out ticks for one owner's books. It is passed explicitly to
// the services that need it.
type Clock struct {
	timeline repository.TimelineRepository
}

func NewClock(timeline repository.TimelineRepository) *Clock {
	return &Clock{timeline: timeline}
}

// Peek returns the current tick without advancing it.
func (c *Clock) Peek(ctx context.Context, owner string, book model.Book) (model.Tick, error) {
	return c.timeline.PeekTick(ctx, owner, book)
}

// Advance moves the clock forward by one and returns the new tick. Every
// tick returned is strictly greater than all ticks returned before it.
func (c *Clock) Advance(ctx context.Context, owner string, book model.Book) (model.Tick, error) {
	return c.timeline.AdvanceTick(ctx, owner, book)
}

// within returns a Clock that reads and writes through tx, so the ticks it
// hands out commit or roll back with the rest of the transaction.
func (c *Clock) within(tx repository.TimelineRepository) *Clock {
	return &Clock{timeline: tx}
}
