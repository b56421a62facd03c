package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/ledger/internal/model"
)

func (db *DB) InitTimeline(ctx context.Context, owner string, book model.Book) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO timeline (owner_key, book, tick)
		 VALUES (?, ?, 0)
		 ON CONFLICT (owner_key, book) DO NOTHING`,
		owner, string(book),
	)
	if err != nil {
		return storageErr("initializing clock", err)
	}
	return nil
}

// PeekTick returns the current tick. A missing clock row is a storage error:
// every initialized owner has one per book.
func (db *DB) PeekTick(ctx context.Context, owner string, book model.Book) (model.Tick, error) {
	var tick model.Tick
	err := db.conn.QueryRowContext(ctx,
		`SELECT tick FROM timeline WHERE owner_key = ? AND book = ?`,
		owner, string(book),
	).Scan(&tick)
	if err != nil {
		return 0, storageErr(fmt.Sprintf("reading clock %s/%s", owner, book), err)
	}
	return tick, nil
}

// AdvanceTick increments and reads the clock in one statement, so two
// callers can never observe the same tick.
func (db *DB) AdvanceTick(ctx context.Context, owner string, book model.Book) (model.Tick, error) {
	var tick model.Tick
	err := db.conn.QueryRowContext(ctx,
		`UPDATE timeline SET tick = tick + 1
		 WHERE owner_key = ? AND book = ?
		 RETURNING tick`,
		owner, string(book),
	).Scan(&tick)
	if err != nil {
		return 0, storageErr(fmt.Sprintf("advancing clock %s/%s", owner, book), err)
	}
	return tick, nil
}
