package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
)

func (db *DB) CreateOwner(ctx context.Context, owner *model.Owner) (bool, error) {
	if owner.CreatedAt.IsZero() {
		owner.CreatedAt = time.Now().UTC()
	}
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO owners (owner_key, display_name, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (owner_key) DO NOTHING`,
		owner.Key, owner.DisplayName, owner.CreatedAt,
	)
	if err != nil {
		return false, storageErr("creating owner", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("creating owner", err)
	}
	return n == 1, nil
}

func (db *DB) GetOwner(ctx context.Context, key string) (*model.Owner, error) {
	var o model.Owner
	err := db.conn.QueryRowContext(ctx,
		`SELECT owner_key, display_name, created_at FROM owners WHERE owner_key = ?`,
		key,
	).Scan(&o.Key, &o.DisplayName, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("owner", key)
		}
		return nil, storageErr("getting owner", err)
	}
	return &o, nil
}
