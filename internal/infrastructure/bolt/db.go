// Package bolt opens the embedded BoltDB file used by the bolt store driver.
package bolt

import (
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
)

// Bucket names used by the embedded document store.
var (
	BucketTasks        = []byte("tasks")
	BucketUsers        = []byte("users")
	BucketUsersByEmail = []byte("users_by_email")
)

// Open initializes the BoltDB file and ensures every bucket exists.
func Open(path string) (*bbolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{BucketTasks, BucketUsers, BucketUsersByEmail} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Ping reports whether the database is open and readable.
func Ping(db *bbolt.DB) error {
	if db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	return db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(BucketTasks) == nil {
			return bbolt.ErrBucketNotFound
		}
		return nil
	})
}
