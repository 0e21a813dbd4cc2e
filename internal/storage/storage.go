package storage

import (
	"context"
	"errors"
)

// Driver identifies a concrete snapshot storage backend.
type Driver string

const (
	DriverFile   Driver = "file"   // local file (default)
	DriverMemory Driver = "memory" // in-memory (tests)
	DriverRedis  Driver = "redis"  // redis key-value
	DriverSQL    Driver = "sql"    // sqlite or postgres, one row per key
)

// Store is the persistence adapter consumed by the entity store: a JSON
// blob under a fixed key. Callers treat ErrNotFound (and any unparseable
// payload) as "use the seed defaults".
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

var ErrNotFound = errors.New("storage: key not found")
