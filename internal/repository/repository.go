// Package repository declares the storage interfaces the ledger services
// depend on. The sqlite subpackage implements all of them on one *DB.
package repository

import (
	"context"

	"github.com/sakif/ledger/internal/model"
)

type OwnerRepository interface {
	// CreateOwner inserts the owner unless it already exists and reports
	// whether a row was written.
	CreateOwner(ctx context.Context, owner *model.Owner) (bool, error)
	GetOwner(ctx context.Context, key string) (*model.Owner, error)
}

// TimelineRepository stores one logical clock per (owner, book).
type TimelineRepository interface {
	// InitTimeline creates the clock at tick 0 if it does not exist yet.
	InitTimeline(ctx context.Context, owner string, book model.Book) error
	PeekTick(ctx context.Context, owner string, book model.Book) (model.Tick, error)
	// AdvanceTick increments the clock and returns the new value in a
	// single statement.
	AdvanceTick(ctx context.Context, owner string, book model.Book) (model.Tick, error)
}

type CategoryRepository interface {
	// CreateCategory inserts c unless a category with the same key already
	// exists in its section, and reports whether a row was written.
	CreateCategory(ctx context.Context, c *model.Category) (bool, error)
	GetCategory(ctx context.Context, owner string, section model.Section, key string) (*model.Category, error)
	// ListCategories returns the section's categories in insertion order.
	ListCategories(ctx context.Context, owner string, section model.Section) ([]model.Category, error)
	RenameCategory(ctx context.Context, owner string, section model.Section, key, name string) error
}

type ItemRepository interface {
	InsertItem(ctx context.Context, it *model.Item) error
	// CloseItem sets closed_at on the open version created at createdAt.
	// It returns a NotFound error when that version is not open.
	CloseItem(ctx context.Context, owner string, section model.Section, nameKey string, createdAt, closedAt model.Tick) error
	GetOpenItem(ctx context.Context, owner string, section model.Section, nameKey string) (*model.Item, error)
	ListOpenItems(ctx context.Context, owner string, section model.Section) ([]model.Item, error)
	// ListItemsAsOf returns the versions alive at asOf, in insertion order.
	ListItemsAsOf(ctx context.Context, owner string, section model.Section, asOf model.Tick) ([]model.Item, error)
	// ListItemHistory returns every version in the section ordered by
	// (origin_at, created_at).
	ListItemHistory(ctx context.Context, owner string, section model.Section) ([]model.Item, error)
	ListItemVersions(ctx context.Context, owner string, section model.Section, originAt model.Tick) ([]model.Item, error)
}

type SnapshotRepository interface {
	// InsertSnapshot assigns s a fresh ID and stores it. A live snapshot
	// already at the same tick is reported as a Duplicate error.
	InsertSnapshot(ctx context.Context, s *model.Snapshot) error
	GetSnapshot(ctx context.Context, owner string, book model.Book, id string) (*model.Snapshot, error)
	// ListSnapshots returns live snapshots ordered by tick.
	ListSnapshots(ctx context.Context, owner string, book model.Book) ([]model.Snapshot, error)
	ListDeletedSnapshots(ctx context.Context, owner string, book model.Book) ([]model.Snapshot, error)
	// MarkSnapshotDeleted moves the live snapshot to the next free deletion
	// marker at its tick and returns that marker.
	MarkSnapshotDeleted(ctx context.Context, owner string, book model.Book, id string) (int64, error)
}

// Store is the full storage surface. WithTx runs fn against a Store bound to
// a single transaction; calling WithTx on that Store reuses the transaction.
type Store interface {
	OwnerRepository
	TimelineRepository
	CategoryRepository
	ItemRepository
	SnapshotRepository

	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
