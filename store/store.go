// Package store persists user records as opaque JSON blobs keyed by user ID.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/leeineian/homework/sys"
)

// ErrNotFound is returned by Get when no blob exists for the key.
var ErrNotFound = errors.New("store: key not found")

// Store is a key to JSON-blob store. Every backend keeps the blobs in a
// single user_data table, bucket, collection or file.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Open connects the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *sys.Config) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.StoreDriver {
	case sys.DriverSQLite:
		s, err = OpenSQLite(ctx, cfg.DatabasePath)
	case sys.DriverPostgres:
		s, err = OpenPostgres(ctx, cfg.DatabaseURL)
	case sys.DriverBolt:
		s, err = OpenBolt(cfg.BoltPath)
	case sys.DriverRedis:
		s, err = OpenRedis(ctx, cfg.RedisURL)
	case sys.DriverMongo:
		s, err = OpenMongo(ctx, cfg.MongoURI, sys.GetProjectName())
	case sys.DriverJSON:
		s, err = OpenJSONFile(cfg.DataFile)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	sys.LogDatabase(sys.MsgDatabaseInitSuccess, cfg.StoreDriver)
	return s, nil
}
