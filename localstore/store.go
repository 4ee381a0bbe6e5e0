// Package localstore persists the pieces of state that never leave the
// machine: the pre-migration log set left behind by the local-only release,
// and the user's app settings.
package localstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/tidwall/buntdb"

	"github.com/karlodelara/ojtlog/models"
)

const (
	legacyLogsKey = "ojt_logs_data"
	settingsKey   = "app_settings"
)

// Settings holds per-installation preferences, independent of the remote
// store.
type Settings struct {
	TargetHours float64 `json:"target_hours"`
}

// Store is a single-file buntdb key-value store.
type Store struct {
	db                 *buntdb.DB
	defaultTargetHours float64
}

// Open creates or opens the store file, creating parent directories as
// needed. defaultTargetHours is returned whenever no settings value exists.
func Open(path string, defaultTargetHours float64) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, defaultTargetHours: defaultTargetHours}, nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// LegacyLogs returns the deprecated local log set, or an empty slice when
// none was ever written or the stored value does not parse.
func (s *Store) LegacyLogs() []models.LogEntry {
	var logs []models.LogEntry
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(legacyLogsKey)
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		return json.Unmarshal([]byte(v), &logs)
	})
	if err != nil {
		return nil
	}
	return logs
}

// HasLegacyLogs reports whether any pre-migration entries are waiting.
func (s *Store) HasLegacyLogs() bool {
	return len(s.LegacyLogs()) > 0
}

// SaveLegacyLogs overwrites the legacy log set. Used by tests and by the
// migration path of older releases.
func (s *Store) SaveLegacyLogs(logs []models.LogEntry) error {
	bs, err := json.Marshal(logs)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(legacyLogsKey, string(bs), nil)
		return err
	})
}

// ClearLegacyLogs drops the legacy log set after a successful import.
func (s *Store) ClearLegacyLogs() error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(legacyLogsKey)
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		return err
	})
}

// GetSettings returns the stored settings, falling back to the default
// target when the value is absent, unparseable, or non-positive.
func (s *Store) GetSettings() Settings {
	settings := Settings{TargetHours: s.defaultTargetHours}
	_ = s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(settingsKey)
		if err != nil {
			return nil
		}
		var stored Settings
		if err := json.Unmarshal([]byte(v), &stored); err != nil {
			return nil
		}
		if stored.TargetHours > 0 {
			settings = stored
		}
		return nil
	})
	return settings
}

// SaveSettings persists the settings synchronously.
func (s *Store) SaveSettings(settings Settings) error {
	if settings.TargetHours <= 0 {
		return errors.New("target hours must be positive")
	}
	bs, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(settingsKey, string(bs), nil)
		return err
	})
}
