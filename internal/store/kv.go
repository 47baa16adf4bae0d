// Package store holds mog's small bbolt-backed metadata database, used for
// the repository-internal bookkeeping that doesn't fit the object database
// or staging index's spec-mandated binary layouts: the resolved author
// cache and other config-adjacent key/value state (spec §A.3).
package store

import (
	"errors"

	"go.etcd.io/bbolt"
)

// BucketConfig holds mog's own configuration keys.
var BucketConfig = []byte("config")

// DB wraps a bbolt database opened at <root>/.mog/meta.db.
type DB struct{ *bbolt.DB }

// Open opens (creating if necessary) the metadata database at path.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0o666, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(BucketConfig)
		return e
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func (db *DB) Close() error { return db.DB.Close() }

// PutConfig stores a configuration key-value pair.
func (db *DB) PutConfig(key, value string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketConfig).Put([]byte(key), []byte(value))
	})
}

// GetConfig retrieves a configuration value by key.
func (db *DB) GetConfig(key string) (string, error) {
	var value string
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(BucketConfig).Get([]byte(key))
		if v == nil {
			return errors.New("config key not found")
		}
		value = string(v)
		return nil
	})
	return value, err
}

// RemoveConfig removes a configuration key-value pair.
func (db *DB) RemoveConfig(key string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketConfig).Delete([]byte(key))
	})
}
