// Package store persists simulation run results in an embedded BadgerDB
// instance so an evaluation sweep across models, cache sizes, or hardware
// configurations can be replayed and compared without re-running the
// models.
package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/mpalomo/wlsim"
	"github.com/mpalomo/wlsim/cache"
)

// Run is one archived simulation result.
type Run struct {
	ID          string          `json:"id"`
	Model       string          `json:"model"`
	Plan        []wlsim.PlanRow `json:"plan"`
	CacheStats  cache.Stats     `json:"cache_stats"`
	ComputeCost float64         `json:"compute_cost"`
	StorageCost float64         `json:"storage_cost"`
	PendingCost float64         `json:"pending_cost"`
	TotalCost   float64         `json:"total_cost"`
}

const keyPrefix = "run:"

// Store is a BadgerDB-backed archive of Run records.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a BadgerDB instance at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger at %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun archives run under its ID, overwriting any prior run with the
// same ID.
func (s *Store) SaveRun(run Run) error {
	if run.ID == "" {
		return fmt.Errorf("%w: run id is required", wlsim.ErrInvalidInput)
	}
	value, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("store: marshal run %q: %w", run.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+run.ID), value)
	})
}

// LoadRun retrieves the run archived under id.
func (s *Store) LoadRun(id string) (Run, error) {
	var run Run
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &run)
		})
	})
	if err == badger.ErrKeyNotFound {
		return Run{}, fmt.Errorf("store: run %q: %w", id, wlsim.ErrInvalidInput)
	}
	if err != nil {
		return Run{}, fmt.Errorf("store: load run %q: %w", id, err)
	}
	return run, nil
}

// ListRunIDs returns every archived run's ID, sorted ascending.
func (s *Store) ListRunIDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			ids = append(ids, string(key[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteRun removes the run archived under id. Deleting a missing id is a
// no-op.
func (s *Store) DeleteRun(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + id))
	})
}
