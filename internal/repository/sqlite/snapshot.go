package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
)

const snapshotColumns = `id, owner_key, book, tick, date_label, net_worth, comment, deletion_marker`

func scanSnapshot(row rowScanner) (model.Snapshot, error) {
	var s model.Snapshot
	err := row.Scan(
		&s.ID,
		&s.Owner,
		&s.Book,
		&s.Tick,
		&s.DateLabel,
		&s.NetWorth,
		&s.Comment,
		&s.DeletionMarker,
	)
	return s, err
}

// InsertSnapshot stores s under a new xid. Restoring a deleted snapshot goes
// through here too, so a restored copy never reuses the deleted row's ID.
func (db *DB) InsertSnapshot(ctx context.Context, s *model.Snapshot) error {
	s.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snapshots (`+snapshotColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.Owner,
		string(s.Book),
		int64(s.Tick),
		s.DateLabel,
		s.NetWorth,
		s.Comment,
		s.DeletionMarker,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("snapshot", fmt.Sprintf("%s at tick %d", s.Book, s.Tick))
		}
		return storageErr("inserting snapshot", err)
	}
	return nil
}

func (db *DB) GetSnapshot(ctx context.Context, owner string, book model.Book, id string) (*model.Snapshot, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+`
		 FROM snapshots
		 WHERE owner_key = ? AND book = ? AND id = ?`,
		owner, string(book), id,
	)
	s, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snapshot", id)
		}
		return nil, storageErr("getting snapshot", err)
	}
	return &s, nil
}

func (db *DB) ListSnapshots(ctx context.Context, owner string, book model.Book) ([]model.Snapshot, error) {
	return db.querySnapshots(ctx, "listing snapshots",
		`SELECT `+snapshotColumns+`
		 FROM snapshots
		 WHERE owner_key = ? AND book = ? AND deletion_marker = 0
		 ORDER BY tick`,
		owner, string(book),
	)
}

func (db *DB) ListDeletedSnapshots(ctx context.Context, owner string, book model.Book) ([]model.Snapshot, error) {
	return db.querySnapshots(ctx, "listing deleted snapshots",
		`SELECT `+snapshotColumns+`
		 FROM snapshots
		 WHERE owner_key = ? AND book = ? AND deletion_marker <> 0
		 ORDER BY tick, deletion_marker`,
		owner, string(book),
	)
}

// MarkSnapshotDeleted computes max(marker)+1 over every row at the
// snapshot's tick and moves the live row there, in one statement.
func (db *DB) MarkSnapshotDeleted(ctx context.Context, owner string, book model.Book, id string) (int64, error) {
	var marker int64
	err := db.conn.QueryRowContext(ctx,
		`UPDATE snapshots
		 SET deletion_marker = (
		     SELECT MAX(s2.deletion_marker) + 1
		     FROM snapshots AS s2
		     WHERE s2.owner_key = snapshots.owner_key
		       AND s2.book = snapshots.book
		       AND s2.tick = snapshots.tick
		 )
		 WHERE owner_key = ? AND book = ? AND id = ? AND deletion_marker = 0
		 RETURNING deletion_marker`,
		owner, string(book), id,
	).Scan(&marker)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperror.NotFound("live snapshot", id)
		}
		return 0, storageErr("deleting snapshot", err)
	}
	return marker, nil
}

func (db *DB) querySnapshots(ctx context.Context, op, query string, args ...any) ([]model.Snapshot, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	snapshots := make([]model.Snapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return snapshots, nil
}
