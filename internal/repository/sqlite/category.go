package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
)

func (db *DB) CreateCategory(ctx context.Context, c *model.Category) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (name, name_key, owner_key, section)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (name_key, owner_key, section) DO NOTHING`,
		c.Name, c.NameKey, c.Owner, string(c.Section),
	)
	if err != nil {
		return false, storageErr("creating category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("creating category", err)
	}
	return n == 1, nil
}

func (db *DB) GetCategory(ctx context.Context, owner string, section model.Section, key string) (*model.Category, error) {
	var c model.Category
	err := db.conn.QueryRowContext(ctx,
		`SELECT name, name_key, owner_key, section
		 FROM categories
		 WHERE owner_key = ? AND section = ? AND name_key = ?`,
		owner, string(section), key,
	).Scan(&c.Name, &c.NameKey, &c.Owner, &c.Section)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("category", key)
		}
		return nil, storageErr("getting category", err)
	}
	return &c, nil
}

func (db *DB) ListCategories(ctx context.Context, owner string, section model.Section) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name, name_key, owner_key, section
		 FROM categories
		 WHERE owner_key = ? AND section = ?
		 ORDER BY rowid`,
		owner, string(section),
	)
	if err != nil {
		return nil, storageErr("listing categories", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Name, &c.NameKey, &c.Owner, &c.Section); err != nil {
			return nil, storageErr("scanning category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating categories", err)
	}
	return categories, nil
}

// RenameCategory changes the display name only. The key, and every item
// row that copied the old name, stay as they are.
func (db *DB) RenameCategory(ctx context.Context, owner string, section model.Section, key, name string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE categories SET name = ?
		 WHERE owner_key = ? AND section = ? AND name_key = ?`,
		name, owner, string(section), key,
	)
	if err != nil {
		return storageErr("renaming category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("renaming category", err)
	}
	if n == 0 {
		return apperror.NotFound("category", key)
	}
	return nil
}
