package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"techstore/internal/cart"
)

const (
	SnapshotTable       = "cart_snapshots"
	SnapshotBackupTable = "cart_snapshot_backups"
)

// SnapshotRepo is a cart tier over one snapshot table. A save never replaces a
// stored record with a lower version.
type SnapshotRepo struct {
	db    *sqlx.DB
	name  string
	table string
}

func NewSnapshotRepo(db *sqlx.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db, name: "durable.sqlite", table: SnapshotTable}
}

func NewSnapshotBackupRepo(db *sqlx.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db, name: "backup.sqlite", table: SnapshotBackupTable}
}

func (r *SnapshotRepo) Name() string { return r.name }

func (r *SnapshotRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := r.db.GetContext(ctx, &payload, `SELECT payload FROM `+r.table+` WHERE session_id = ?`, key)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return nil, cart.ErrMiss
		}
		return nil, fmt.Errorf("%s load: %w", r.table, err)
	}
	return []byte(payload), nil
}

func (r *SnapshotRepo) Save(ctx context.Context, key string, version int64, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO `+r.table+`(session_id, version, payload, updated_at) VALUES (?, ?, ?, ?)
	  ON CONFLICT(session_id) DO UPDATE SET
	    version = excluded.version, payload = excluded.payload, updated_at = excluded.updated_at
	  WHERE excluded.version >= `+r.table+`.version
	`, key, version, string(payload), now())
	if err != nil {
		return fmt.Errorf("%s save: %w", r.table, err)
	}
	return nil
}

func (r *SnapshotRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE session_id = ?`, key); err != nil {
		return fmt.Errorf("%s delete: %w", r.table, err)
	}
	return nil
}
