package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type entry struct {
	bun.BaseModel `bun:"table:kv_entries"`

	Namespace Namespace `bun:"namespace,pk"`
	Key       string    `bun:"record_key,pk"`
	Value     []byte    `bun:"payload,notnull"`
}

// BunStore keeps entries in the kv_entries table through bun. It works with
// the sqlite and postgres dialects.
type BunStore struct {
	db     *bun.DB
	ns     Namespace
	limits Limits
}

func NewBunStore(db *bun.DB, ns Namespace, limits Limits) *BunStore {
	return &BunStore{db: db, ns: ns, limits: limits}
}

// OpenSQLite opens a sqlite database through the bun shim driver. The pool
// is pinned to one connection so in-memory databases stay a single database.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateSchema creates kv_entries if it does not exist.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*entry)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create kv_entries: %w", err)
	}
	return nil
}

func (s *BunStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.get(ctx, s.db, key)
}

func (s *BunStore) get(ctx context.Context, db bun.IDB, key string) ([]byte, bool, error) {
	var e entry
	err := db.NewSelect().
		Model(&e).
		Where("namespace = ?", s.ns).
		Where("record_key = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %s/%s: %w", s.ns, key, err)
	}
	return e.Value, true, nil
}

func (s *BunStore) Insert(ctx context.Context, key string, value []byte) (previous []byte, existed bool, err error) {
	if err := s.limits.checkKey(key); err != nil {
		return nil, false, err
	}
	if err := s.limits.checkValue(value); err != nil {
		return nil, false, err
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		previous, existed, err = s.get(ctx, tx, key)
		if err != nil {
			return err
		}
		_, err = tx.NewInsert().
			Model(&entry{Namespace: s.ns, Key: key, Value: value}).
			On("CONFLICT (namespace, record_key) DO UPDATE").
			Set("payload = EXCLUDED.payload").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("kv insert %s/%s: %w", s.ns, key, err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return previous, existed, nil
}

func (s *BunStore) Remove(ctx context.Context, key string) (previous []byte, existed bool, err error) {
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		previous, existed, err = s.get(ctx, tx, key)
		if err != nil || !existed {
			return err
		}
		_, err = tx.NewDelete().
			Model((*entry)(nil)).
			Where("namespace = ?", s.ns).
			Where("record_key = ?", key).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("kv remove %s/%s: %w", s.ns, key, err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return previous, existed, nil
}

func (s *BunStore) Values(ctx context.Context) ([][]byte, error) {
	var entries []entry
	err := s.db.NewSelect().
		Model(&entries).
		Where("namespace = ?", s.ns).
		OrderExpr(s.orderByKey()).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("kv values %s: %w", s.ns, err)
	}

	values := make([][]byte, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.Value)
	}
	return values, nil
}

// orderByKey sorts by raw bytes regardless of the database locale.
func (s *BunStore) orderByKey() string {
	if s.db.Dialect().Name() == dialect.PG {
		return `record_key COLLATE "C" ASC`
	}
	return "record_key ASC"
}
