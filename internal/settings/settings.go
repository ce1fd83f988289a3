// Package settings persists the configuration that survives restarts: the
// Gemini API key and the UI theme. Extracted invoice records are
// deliberately not persisted; they live and die with the session.
package settings

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketName = "settings"

	apiKeyKey = "gemini_api_key"
	themeKey  = "theme"
)

// Store is a bbolt-backed key-value store. A single reader/writer is
// assumed; bbolt serializes the rest.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the settings database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening settings db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating settings bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// APIKey returns the stored Gemini API key, or "" when none is set.
func (s *Store) APIKey() (string, error) {
	return s.get(apiKeyKey)
}

// SetAPIKey stores the Gemini API key. An empty value clears it.
func (s *Store) SetAPIKey(key string) error {
	return s.set(apiKeyKey, key)
}

// Theme returns the stored UI theme, or "" when none is set.
func (s *Store) Theme() (string, error) {
	return s.get(themeKey)
}

// SetTheme stores the UI theme preference.
func (s *Store) SetTheme(theme string) error {
	return s.set(themeKey, theme)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		value = string(tx.Bucket([]byte(bucketName)).Get([]byte(key)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) set(key, value string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}
