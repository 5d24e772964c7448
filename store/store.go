// Package store keeps comparison summaries in a bolt database, so that
// repeated comparisons of the same inputs can be traced.
package store

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/treediff/compare"
)

// log is the global logging variable.
var log = logging.MustGetLogger("store")

// MAIN is the bucket name for all the summaries.
var MAIN = []byte("main")

// Store saves and loads comparison summaries.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database file.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key returns the database key for a comparison.
func Key(filename1, filename2, outgroup string) []byte {
	return []byte(filename1 + "\x00" + filename2 + "\x00" + outgroup)
}

// Save stores the summary under the key.
func (s *Store) Save(key []byte, summary *compare.Summary) error {
	b, err := json.Marshal(summary)
	if err != nil {
		log.Error("Error serializing summary", err)
		return err
	}
	err = SaveData(s.db, key, b)
	if err != nil {
		log.Error("Error saving summary", err)
	}
	return err
}

// Load returns the summary stored under the key or nil if there is
// none.
func (s *Store) Load(key []byte) (*compare.Summary, error) {
	var summary *compare.Summary

	b, err := LoadData(s.db, key)
	if err != nil || b == nil {
		return nil, err
	}

	err = json.Unmarshal(b, &summary)
	if err != nil {
		return nil, err
	}

	log.Debugf("Loaded summary for %s and %s", summary.Filename1, summary.Filename2)
	return summary, nil
}

// SaveData saves values in bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LoadData loads data from bolt database. The returned slice is a
// copy, valid after the transaction is closed.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
