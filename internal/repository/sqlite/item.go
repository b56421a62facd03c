package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
)

const itemColumns = `name, name_key, amount, category_name, category_key, owner_key, section,
	created_at, origin_at, closed_at, is_closed`

func scanItem(row rowScanner) (model.Item, error) {
	var it model.Item
	err := row.Scan(
		&it.Name,
		&it.NameKey,
		&it.Amount,
		&it.CategoryName,
		&it.CategoryKey,
		&it.Owner,
		&it.Section,
		&it.CreatedAt,
		&it.OriginAt,
		&it.ClosedAt,
		&it.IsClosed,
	)
	return it, err
}

// InsertItem stores one version. A second open version under the same name
// key is rejected by the partial unique index and reported as a duplicate
// name.
func (db *DB) InsertItem(ctx context.Context, it *model.Item) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.Name,
		it.NameKey,
		it.Amount,
		it.CategoryName,
		it.CategoryKey,
		it.Owner,
		string(it.Section),
		int64(it.CreatedAt),
		int64(it.OriginAt),
		int64(it.ClosedAt),
		it.IsClosed,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateName("name", it.Name)
		}
		return storageErr("inserting item", err)
	}
	return nil
}

func (db *DB) CloseItem(ctx context.Context, owner string, section model.Section, nameKey string, createdAt, closedAt model.Tick) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE items SET closed_at = ?, is_closed = 1
		 WHERE owner_key = ? AND section = ? AND name_key = ? AND created_at = ? AND is_closed = 0`,
		int64(closedAt), owner, string(section), nameKey, int64(createdAt),
	)
	if err != nil {
		return storageErr("closing item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("closing item", err)
	}
	if n == 0 {
		return apperror.NotFound("open item", nameKey)
	}
	return nil
}

func (db *DB) GetOpenItem(ctx context.Context, owner string, section model.Section, nameKey string) (*model.Item, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items
		 WHERE owner_key = ? AND section = ? AND name_key = ? AND is_closed = 0`,
		owner, string(section), nameKey,
	)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("item", nameKey)
		}
		return nil, storageErr("getting item", err)
	}
	return &it, nil
}

func (db *DB) ListOpenItems(ctx context.Context, owner string, section model.Section) ([]model.Item, error) {
	return db.queryItems(ctx, "listing open items",
		`SELECT `+itemColumns+`
		 FROM items
		 WHERE owner_key = ? AND section = ? AND is_closed = 0
		 ORDER BY rowid`,
		owner, string(section),
	)
}

func (db *DB) ListItemsAsOf(ctx context.Context, owner string, section model.Section, asOf model.Tick) ([]model.Item, error) {
	return db.queryItems(ctx, "listing items as of tick",
		`SELECT `+itemColumns+`
		 FROM items
		 WHERE owner_key = ? AND section = ? AND created_at <= ? AND ? < closed_at
		 ORDER BY rowid`,
		owner, string(section), int64(asOf), int64(asOf),
	)
}

func (db *DB) ListItemHistory(ctx context.Context, owner string, section model.Section) ([]model.Item, error) {
	return db.queryItems(ctx, "listing item history",
		`SELECT `+itemColumns+`
		 FROM items
		 WHERE owner_key = ? AND section = ?
		 ORDER BY origin_at, created_at`,
		owner, string(section),
	)
}

func (db *DB) ListItemVersions(ctx context.Context, owner string, section model.Section, originAt model.Tick) ([]model.Item, error) {
	return db.queryItems(ctx, "listing item versions",
		`SELECT `+itemColumns+`
		 FROM items
		 WHERE owner_key = ? AND section = ? AND origin_at = ?
		 ORDER BY created_at`,
		owner, string(section), int64(originAt),
	)
}

func (db *DB) queryItems(ctx context.Context, op, query string, args ...any) ([]model.Item, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return items, nil
}
