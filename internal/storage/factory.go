package storage

import (
	"context"
	"fmt"
)

// Options selects and configures a backend. Values come from config, not
// from the environment directly.
type Options struct {
	Driver    Driver
	FilePath  string // driver=file: root directory
	DSN       string // driver=sql: sqlite path or postgres URL
	RedisAddr string // driver=redis
}

// Open constructs the configured Store. An empty driver means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFile
	}
	switch driver {
	case DriverFile:
		return NewFile(opts.FilePath)
	case DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return NewRedis(ctx, opts.RedisAddr)
	case DriverSQL:
		return OpenSQL(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
