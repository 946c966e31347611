// Package storycache keeps fetched records in a sqlite database so they
// can be looked at without asking the site again.
package storycache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"fimfiction/internal/components/telemetry"
	"fimfiction/lib/bundle"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

const (
	report_put   = "cache.put"
	report_get   = "cache.get"
	report_prune = "cache.prune"
)

var ErrNotFound = errors.New("record is not cached")

// Entry is a cached record and the time it was stored.
type Entry struct {
	Record    *bundle.Record
	FetchedAt time.Time
}

type Cache struct {
	db    *sql.DB
	codec bundle.Codec
	tel   telemetry.API
	now   func() time.Time
}

// New uses an already opened database, the schema must exist.
func New(db *sql.DB, enums bundle.EnumResolver, tel telemetry.API) Cache {
	return Cache{
		db:    db,
		codec: bundle.Codec{Enums: enums},
		tel:   telemetry.NewScopedAPI("storycache", telemetry.OrNop(tel)),
		now:   time.Now,
	}
}

// Open opens the database at path, ":memory:" works too, and creates the
// schema if it is missing.
func Open(ctx context.Context, path string, enums bundle.EnumResolver, tel telemetry.API) (Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Cache{}, fmt.Errorf("storycache: open %s: %w", path, err)
	}
	// an in memory database only lives as long as its connection
	db.SetMaxOpenConns(1)
	_, err = db.ExecContext(ctx, Schema)
	if err != nil {
		db.Close()
		return Cache{}, fmt.Errorf("storycache: create schema: %w", err)
	}
	return New(db, enums, tel), nil
}

func (c Cache) Close() error {
	return c.db.Close()
}

func recordID(r *bundle.Record) (int64, error) {
	key, ok := r.Schema().KeyByID("id")
	if !ok {
		return 0, fmt.Errorf("%s records have no id", r.Schema().Name())
	}
	return bundle.Int(r, key)
}

// Put stores an immutable copy of r, replacing whatever was cached under
// its id. r must have its id set.
func (c Cache) Put(ctx context.Context, r *bundle.Record) error {
	id, err := recordID(r)
	if err != nil {
		return fmt.Errorf("storycache: put: %w", err)
	}
	body, err := bundle.Marshal(r.ToImmutableCopy())
	if err != nil {
		c.tel.ReportBroken(report_put, err, r.Schema().Name(), id)
		return fmt.Errorf("storycache: put: %w", err)
	}
	_, err = c.db.ExecContext(
		ctx,
		`insert into record(kind, id, body, fetched_at) values (?, ?, ?, ?)
		on conflict(kind, id) do update set body = excluded.body, fetched_at = excluded.fetched_at`,
		r.Schema().Name(), id, string(body), c.now().Unix(),
	)
	if err != nil {
		c.tel.ReportBroken(report_put, err, r.Schema().Name(), id)
		return fmt.Errorf("storycache: put: %w", err)
	}
	return nil
}

// Update merges r into the cached record with the same id and stores the
// result, values r doesn't know about are kept.
func (c Cache) Update(ctx context.Context, r *bundle.Record) (*bundle.Record, error) {
	id, err := recordID(r)
	if err != nil {
		return nil, fmt.Errorf("storycache: update: %w", err)
	}
	merged := r.Schema().New()
	existing, err := c.Get(ctx, r.Schema(), id)
	if err == nil {
		merged = existing.Record.ToMutableCopy()
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	err = merged.Merge(r)
	if err != nil {
		return nil, fmt.Errorf("storycache: update: %w", err)
	}
	err = c.Put(ctx, merged)
	if err != nil {
		return nil, err
	}
	return merged.ToImmutableCopy(), nil
}

func (c Cache) decode(schema *bundle.Schema, body string, fetchedAt int64) (Entry, error) {
	r, err := c.codec.Unmarshal([]byte(body), schema)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Record:    r.ToImmutableCopy(),
		FetchedAt: time.Unix(fetchedAt, 0),
	}, nil
}

// Get returns the cached record of schema with id, the record is frozen.
func (c Cache) Get(ctx context.Context, schema *bundle.Schema, id int64) (Entry, error) {
	row := c.db.QueryRowContext(
		ctx,
		"select body, fetched_at from record where kind = ? and id = ?",
		schema.Name(), id,
	)
	var (
		body      string
		fetchedAt int64
	)
	err := row.Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("storycache: %s %d: %w", schema.Name(), id, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("storycache: get: %w", err)
	}
	entry, err := c.decode(schema, body, fetchedAt)
	if err != nil {
		c.tel.ReportBroken(report_get, err, schema.Name(), id)
		return Entry{}, fmt.Errorf("storycache: get: %w", err)
	}
	return entry, nil
}

// List returns every cached record of schema, most recently fetched first.
func (c Cache) List(ctx context.Context, schema *bundle.Schema) ([]Entry, error) {
	rows, err := c.db.QueryContext(
		ctx,
		"select id, body, fetched_at from record where kind = ? order by fetched_at desc, id",
		schema.Name(),
	)
	if err != nil {
		return nil, fmt.Errorf("storycache: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			id        int64
			body      string
			fetchedAt int64
		)
		err = rows.Scan(&id, &body, &fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("storycache: list: %w", err)
		}
		entry, err := c.decode(schema, body, fetchedAt)
		if err != nil {
			c.tel.ReportWarning(report_get, err, schema.Name(), id)
			continue
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (c Cache) Delete(ctx context.Context, schema *bundle.Schema, id int64) error {
	_, err := c.db.ExecContext(ctx, "delete from record where kind = ? and id = ?", schema.Name(), id)
	if err != nil {
		return fmt.Errorf("storycache: delete: %w", err)
	}
	return nil
}

// Prune drops every record fetched before cutoff and returns how many
// were dropped.
func (c Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, "delete from record where fetched_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("storycache: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storycache: prune: %w", err)
	}
	c.tel.ReportCount(report_prune, n)
	return n, nil
}
