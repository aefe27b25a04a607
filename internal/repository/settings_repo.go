package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

const (
	upsertSettingSQL = `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`

	selectSettingSQL = `SELECT value FROM settings WHERE key=?`

	deleteSettingSQL = `DELETE FROM settings WHERE key=?`
)

// Get fetches a single setting. A missing row is reported with ok=false and a nil error.
func (r *SettingsSQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	if err := r.db.QueryRowContext(ctx, selectSettingSQL, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set inserts or replaces a setting. updated_at is always stored in UTC.
func (r *SettingsSQLite) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, upsertSettingSQL, key, value, time.Now().UTC())
	return err
}

// Delete removes a setting; deleting an absent key is not an error.
func (r *SettingsSQLite) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, deleteSettingSQL, key)
	return err
}
