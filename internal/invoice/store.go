package invoice

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNoInvoice is returned by record operations when no record is loaded.
var ErrNoInvoice = errors.New("no invoice loaded")

// ErrStaleRecord is returned when a mutation was issued against a record
// that has since been replaced or cleared. Callers discard the mutation.
var ErrStaleRecord = errors.New("invoice record has changed")

// Session is a point-in-time view of the store, shaped for the API.
type Session struct {
	Invoice *Record `json:"invoice"`
	Version string  `json:"version,omitempty"`
	Busy    bool    `json:"busy"`
	Error   string  `json:"error,omitempty"`
}

// Store holds the single current invoice record for the session. Each
// installed record gets a fresh version id; every mutation carries the
// version it was issued against and is rejected when the store has moved
// on. The busy count backs a UI affordance only, it is not a lock:
// overlapping suggestions on the same record stay last-write-wins.
type Store struct {
	mu        sync.Mutex
	current   *Record
	version   string
	busy      int
	lastError string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Install replaces the current record and returns the new version id.
// Category edits do not advance the version; only Install and Clear do.
func (s *Store) Install(rec *Record) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = rec.Clone()
	s.version = uuid.NewString()
	s.lastError = ""
	return s.version
}

// Clear destroys the current record. Mutations issued against the old
// version fail with ErrStaleRecord from here on.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.version = ""
	s.lastError = ""
}

// Snapshot returns a copy of the session state.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{
		Invoice: s.current.Clone(),
		Version: s.version,
		Busy:    s.busy > 0,
		Error:   s.lastError,
	}
}

// Current returns a copy of the loaded record and its version, or false
// when no record is loaded.
func (s *Store) Current() (*Record, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, "", false
	}
	return s.current.Clone(), s.version, true
}

// LineItem returns a copy of one line item, checked against the version
// the caller is working from.
func (s *Store) LineItem(version string, index int) (LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkVersion(version); err != nil {
		return LineItem{}, err
	}
	if index < 0 || index >= len(s.current.LineItems) {
		return LineItem{}, fmt.Errorf("line item index %d out of range", index)
	}
	return s.current.LineItems[index], nil
}

// Descriptions returns the ordered line item descriptions, checked against
// the caller's version.
func (s *Store) Descriptions(version string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkVersion(version); err != nil {
		return nil, err
	}
	out := make([]string, len(s.current.LineItems))
	for i, item := range s.current.LineItems {
		out[i] = item.Description
	}
	return out, nil
}

// SetCategory writes one line item's category. The write lands only if the
// record is still the one the caller read.
func (s *Store) SetCategory(version string, index int, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkVersion(version); err != nil {
		return err
	}
	if index < 0 || index >= len(s.current.LineItems) {
		return fmt.Errorf("line item index %d out of range", index)
	}
	s.current.LineItems[index].Category = category
	return nil
}

// MergeCategories applies a description-keyed category map to every line
// item. Items whose description is absent from the map keep their prior
// category; items with identical descriptions receive the same suggestion.
func (s *Store) MergeCategories(version string, categories map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkVersion(version); err != nil {
		return err
	}
	for i := range s.current.LineItems {
		if c, ok := categories[s.current.LineItems[i].Description]; ok {
			s.current.LineItems[i].Category = c
		}
	}
	return nil
}

// SetError records the user-visible message for the last failed operation.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

// BeginOp marks an operation in flight for the session view.
func (s *Store) BeginOp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy++
}

// EndOp clears BeginOp's mark.
func (s *Store) EndOp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy > 0 {
		s.busy--
	}
}

// checkVersion is called with the lock held.
func (s *Store) checkVersion(version string) error {
	if s.current == nil {
		if version == "" {
			return ErrNoInvoice
		}
		return ErrStaleRecord
	}
	if version != s.version {
		return ErrStaleRecord
	}
	return nil
}
