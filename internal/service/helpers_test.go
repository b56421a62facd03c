package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/ledger/internal/model"
	sqliteRepo "github.com/sakif/ledger/internal/repository/sqlite"
)

const testOwner = "alice"

type testEnv struct {
	clock     *Clock
	ledger    *LedgerService
	snapshots *SnapshotService
	compare   *Comparator
}

// newTestEnv wires the services over a fresh in-memory database with
// testOwner initialized. goose keeps global state, so tests in this package
// do not call t.Parallel.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	db, err := sqliteRepo.New(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := NewClock(db)
	ledger := NewLedgerService(db, clock, logger)
	snapshots := NewSnapshotService(db, clock, ledger, logger)
	snapshots.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

	_, err = ledger.InitOwner(ctx, testOwner, "Alice")
	require.NoError(t, err)

	return &testEnv{
		clock:     clock,
		ledger:    ledger,
		snapshots: snapshots,
		compare:   NewComparator(db, logger),
	}
}

func (e *testEnv) category(t *testing.T, section model.Section, name string) model.Category {
	t.Helper()
	res, err := e.ledger.CreateCategory(context.Background(), testOwner, section, name)
	require.NoError(t, err)
	return res.Category
}

func (e *testEnv) item(t *testing.T, section model.Section, name string, amount float64, category string) model.Item {
	t.Helper()
	it, err := e.ledger.CreateItem(context.Background(), testOwner, section, name, amount, category)
	require.NoError(t, err)
	return *it
}

func (e *testEnv) setAmount(t *testing.T, current model.Item, amount float64) model.Item {
	t.Helper()
	it, err := e.ledger.UpdateItem(context.Background(), current, ItemChanges{Amount: &amount})
	require.NoError(t, err)
	return *it
}

func ptr[T any](v T) *T { return &v }
