// Package sqlitedb is a realtime database persisted in SQLite. Values are
// stored as JSON, so numbers read back as float64 and objects as
// map[string]any.
package sqlitedb

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/ayn2op/soilview/realtime"
)

const schema = `CREATE TABLE IF NOT EXISTS nodes (
	path  TEXT NOT NULL,
	key   TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (path, key)
)`

// DB is a [realtime.Client] over a SQLite backend.
type DB struct {
	*realtime.Client
	sql *sql.DB
}

// Open opens (creating if needed) the database at dsn. ":memory:" gives a
// private in-memory database.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dsn)
	}
	// Every connection to ":memory:" is a separate database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	glog.V(1).Infof("[sqlitedb]opened %s\n", dsn)
	return &DB{
		Client: realtime.NewClient(&backend{db: db}),
		sql:    db,
	}, nil
}

func (db *DB) Close() error {
	return db.sql.Close()
}

type backend struct {
	db *sql.DB
}

func (b *backend) Children(ctx context.Context, path string) ([]realtime.Entry, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT key, value FROM nodes WHERE path = ?`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []realtime.Entry
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		value, err := decode(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s/%s", path, key)
		}
		out = append(out, realtime.Entry{Key: key, Value: value})
	}
	return out, rows.Err()
}

func (b *backend) Get(ctx context.Context, path, key string) (any, bool, error) {
	var raw string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM nodes WHERE path = ? AND key = ?`, path, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value, err := decode(raw)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decode %s/%s", path, key)
	}
	return value, true, nil
}

func (b *backend) Put(ctx context.Context, path, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s/%s", path, key)
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO nodes (path, key, value) VALUES (?, ?, ?)
		ON CONFLICT (path, key) DO UPDATE SET value = excluded.value`,
		path, key, string(raw))
	return err
}

func (b *backend) Delete(ctx context.Context, path, key string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM nodes WHERE path = ? AND key = ?`, path, key)
	return err
}

func decode(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}
