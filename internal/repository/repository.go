package repository

import (
	"context"
	"database/sql"
	"time"

	"traffic_supervisor/internal/models"
)

// SettingsRepo is a small durable key/value store for operator settings.
type SettingsRepo interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.SupervisorEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.SupervisorEvent, error)
}

type Repository struct {
	Settings  SettingsRepo
	EventRepo EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Settings:  NewSettingsSQLite(db),
		EventRepo: NewEventSQLite(db),
	}
}
