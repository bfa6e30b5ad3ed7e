// Package store persists window state — the currently elected normative
// pattern's provenance, ranking history, and the cumulative anomaly
// counter — in a BoltDB file. This supplements spec.md's flat bestSub.g
// interchange file (which remains the literal artifact the ranker and
// matcher read and write); the bolt store is what survives a coordinator
// restart.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketWindow  = "window"
	bucketHistory = "ranking_history"

	keyElected  = "elected"
	keyNumAnom  = "numanom"
	keyOldest   = "oldest"
	keyCurrent  = "current"
)

// ElectedPattern is the persisted form of the winning normative candidate.
type ElectedPattern struct {
	Partition int       `json:"partition"`
	Rank      int       `json:"rank"`
	Score     int       `json:"score"`
	ElectedAt time.Time `json:"elected_at"`
}

// HistoryEntry records one ranking pass for observability.
type HistoryEntry struct {
	Partition     int       `json:"partition"`
	Rank          int       `json:"rank"`
	Score         int       `json:"score"`
	Replaced      bool      `json:"replaced"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// Store wraps a BoltDB database with typed accessors for PLADS window
// state (grounded on IAmSoThirsty-Project-AI/octoreflex's bolt.go bucket
// layout and transaction idiom).
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the BoltDB file at path and ensures its
// buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	s := &Store{db: db}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketWindow, bucketHistory} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetWindow persists the current [oldest, current] ordinals.
func (s *Store) SetWindow(oldest, current int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketWindow))
		if err := b.Put([]byte(keyOldest), itob(oldest)); err != nil {
			return err
		}
		return b.Put([]byte(keyCurrent), itob(current))
	})
}

// Window returns the persisted [oldest, current] ordinals. Both are zero
// if never set.
func (s *Store) Window() (oldest, current int, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketWindow))
		oldest = btoi(b.Get([]byte(keyOldest)))
		current = btoi(b.Get([]byte(keyCurrent)))
		return nil
	})
	return oldest, current, err
}

// SetElected persists the currently elected normative pattern and appends
// a history entry noting whether it replaced a prior election.
func (s *Store) SetElected(p ElectedPattern, replaced bool) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: marshal elected pattern: %w", err)
	}
	hist := HistoryEntry{Partition: p.Partition, Rank: p.Rank, Score: p.Score, Replaced: replaced, RecordedAt: time.Now().UTC()}
	histData, err := json.Marshal(hist)
	if err != nil {
		return fmt.Errorf("store: marshal history entry: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		w := tx.Bucket([]byte(bucketWindow))
		if err := w.Put([]byte(keyElected), data); err != nil {
			return err
		}
		h := tx.Bucket([]byte(bucketHistory))
		key := []byte(fmt.Sprintf("%020d", time.Now().UnixNano()))
		return h.Put(key, histData)
	})
}

// Elected returns the currently persisted elected pattern, or (zero value,
// false) if none has been set yet.
func (s *Store) Elected() (ElectedPattern, bool, error) {
	var p ElectedPattern
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketWindow))
		data := b.Get([]byte(keyElected))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &p)
	})
	return p, found, err
}

// SetNumAnom persists the cumulative anomaly counter (spec.md's
// numanom.txt, mirrored here for restart durability).
func (s *Store) SetNumAnom(n int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketWindow)).Put([]byte(keyNumAnom), itob(n))
	})
}

// NumAnom returns the cumulative anomaly counter.
func (s *Store) NumAnom() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = btoi(tx.Bucket([]byte(bucketWindow)).Get([]byte(keyNumAnom)))
		return nil
	})
	return n, err
}

func itob(n int) []byte {
	return []byte(fmt.Sprintf("%d", n))
}

func btoi(b []byte) int {
	if b == nil {
		return 0
	}
	var n int
	fmt.Sscanf(string(b), "%d", &n)
	return n
}
