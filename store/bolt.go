package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var userDataBucket = []byte("user_data")

// Bolt keeps blobs in the user_data bucket of an embedded bbolt file.
type Bolt struct {
	db *bolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(userDataBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(_ context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(userDataBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// Values are only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

func (b *Bolt) Put(_ context.Context, key string, data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(userDataBucket).Put([]byte(key), data)
	})
}

func (b *Bolt) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(userDataBucket).Delete([]byte(key))
	})
}

func (b *Bolt) Keys(_ context.Context) ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(userDataBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
