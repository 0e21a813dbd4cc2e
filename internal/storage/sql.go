package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// SQL stores snapshots one row per key. The dialect is picked from the DSN:
// postgres:// URLs open a pgx connection, anything else is treated as a
// SQLite path (the on-device default for a single-user install).
type SQL struct {
	db *bun.DB
}

type snapshotRow struct {
	bun.BaseModel `bun:"table:snapshots"`

	Key       string    `bun:"key,pk"`
	Value     []byte    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func OpenSQL(ctx context.Context, dsn string) (*SQL, error) {
	var (
		sqlDB *sql.DB
		err   error
		db    *bun.DB
	)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqlDB, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		db = bun.NewDB(sqlDB, pgdialect.New())
	} else {
		sqlDB, err = sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, err
		}
		// SQLite serializes writers; a second connection would only block.
		sqlDB.SetMaxOpenConns(1)
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.NewCreateTable().
		Model((*snapshotRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var row snapshotRow
	err := s.db.NewSelect().
		Model(&row).
		Where("key = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.Value, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	row := snapshotRow{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *SQL) Close() error {
	return s.db.Close()
}
