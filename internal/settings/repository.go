package settings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epost-hub/backend/pkg/database"
)

// KeyCreatorCode is the settings row holding the admin creator code.
const KeyCreatorCode = "creator_code"

// Repository reads and writes the key/value settings table.
type Repository struct {
	pool        *pgxpool.Pool
	defaultCode string
}

// NewRepository creates a settings repository. defaultCode is returned while no code is stored.
func NewRepository(pool *pgxpool.Pool, defaultCode string) *Repository {
	return &Repository{pool: pool, defaultCode: defaultCode}
}

// Get returns the value for key and whether it exists.
func (r *Repository) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&v)
	if err != nil {
		if database.IsNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

// Set upserts the value for key.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// CreatorCode returns the stored creator code, or the default when unset. Read on every call.
func (r *Repository) CreatorCode(ctx context.Context) (string, error) {
	v, ok, err := r.Get(ctx, KeyCreatorCode)
	if err != nil {
		return "", err
	}
	if !ok {
		return r.defaultCode, nil
	}
	return v, nil
}

// SetCreatorCode replaces the creator code.
func (r *Repository) SetCreatorCode(ctx context.Context, code string) error {
	return r.Set(ctx, KeyCreatorCode, code)
}
