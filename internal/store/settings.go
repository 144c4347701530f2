package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/cursor"
)

// configKey is the settings key the cursor configuration lives under.
const configKey = "cursor.config"

// SettingsRepository provides access to application settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get retrieves a setting value by key.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores a setting value, replacing any previous one.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// Delete removes a setting by key.
func (r *SettingsRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadConfig reads the saved cursor configuration. Returns ErrNotFound
// when none has been saved yet; callers fall back to defaults. A saved
// configuration that no longer validates is reported as an error rather
// than handed to the control loop.
func (r *SettingsRepository) LoadConfig() (cursor.Config, error) {
	raw, err := r.Get(configKey)
	if err != nil {
		return cursor.Config{}, err
	}

	cfg := cursor.DefaultConfig()
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cursor.Config{}, fmt.Errorf("parse saved config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cursor.Config{}, fmt.Errorf("saved config: %w", err)
	}
	return cfg, nil
}

// SaveConfig persists the cursor configuration.
func (r *SettingsRepository) SaveConfig(cfg cursor.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return r.Set(configKey, string(raw))
}
