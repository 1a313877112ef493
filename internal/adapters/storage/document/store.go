// Package document stores typed records as JSON documents in SQL tables, one table
// per collection. Identifiers and timestamps are assigned here; uniqueness rules
// live in the schema as unique expression indexes.
package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"utnode/internal/adapters/storage"
)

// Store errors
var (
	ErrNotFound   = errors.New("document not found")
	ErrConstraint = errors.New("document violates a uniqueness constraint")
)

// timeLayout is fixed width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Record is one stored document with its store-assigned metadata.
type Record[T any] struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Data      T
}

// Collection persists documents of type T in one table.
type Collection[T any] struct {
	db      storage.DB
	name    string
	dialect storage.Dialect
	now     func() time.Time
}

// NewCollection binds a collection to its table.
// PRE: name is a valid SQL identifier created by the migrations
// POST: Returns a ready-to-use collection
func NewCollection[T any](db storage.DB, name string) *Collection[T] {
	if !identRe.MatchString(name) {
		panic(fmt.Sprintf("document: invalid collection name %q", name))
	}
	return &Collection[T]{
		db:      db,
		name:    name,
		dialect: storage.DialectOf(db),
		now:     time.Now,
	}
}

type row struct {
	ID        string `db:"id"`
	Data      string `db:"data"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// Insert stores data as a new document.
// PRE: data has been validated
// POST: Returns the record with its new ID; ErrConstraint on a uniqueness clash
func (c *Collection[T]) Insert(ctx context.Context, data T) (Record[T], error) {
	body, err := json.Marshal(data)
	if err != nil {
		return Record[T]{}, fmt.Errorf("encode %s document: %w", c.name, err)
	}
	now := c.now().UTC()
	rec := Record[T]{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now, Data: data}

	query := c.db.Rebind(fmt.Sprintf("INSERT INTO %s (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)", c.name))
	_, err = c.db.ExecContext(ctx, query, rec.ID, string(body), now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return Record[T]{}, c.wrap("insert", err)
	}
	return rec, nil
}

// FindAll returns every document in insertion order.
func (c *Collection[T]) FindAll(ctx context.Context) ([]Record[T], error) {
	var rows []row
	query := fmt.Sprintf("SELECT id, data, created_at, updated_at FROM %s ORDER BY created_at, id", c.name)
	if err := sqlx.SelectContext(ctx, c.db, &rows, query); err != nil {
		return nil, c.wrap("find all", err)
	}
	out := make([]Record[T], 0, len(rows))
	for _, r := range rows {
		rec, err := c.decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FindByID returns the document with the given ID.
// PRE: id is non-empty
// POST: Returns the record or ErrNotFound
func (c *Collection[T]) FindByID(ctx context.Context, id string) (Record[T], error) {
	var r row
	query := c.db.Rebind(fmt.Sprintf("SELECT id, data, created_at, updated_at FROM %s WHERE id = ?", c.name))
	if err := sqlx.GetContext(ctx, c.db, &r, query, id); err != nil {
		return Record[T]{}, c.wrap("find by id", err)
	}
	return c.decode(r)
}

// FindOne returns the first document whose top-level JSON field equals value.
// PRE: field is a JSON key declared in code, not user input
// POST: Returns the record or ErrNotFound
func (c *Collection[T]) FindOne(ctx context.Context, field string, value any) (Record[T], error) {
	if !identRe.MatchString(field) {
		return Record[T]{}, fmt.Errorf("document: invalid field name %q", field)
	}
	var r row
	query := c.db.Rebind(fmt.Sprintf(
		"SELECT id, data, created_at, updated_at FROM %s WHERE %s = ? ORDER BY created_at LIMIT 1",
		c.name, c.jsonField(field),
	))
	if err := sqlx.GetContext(ctx, c.db, &r, query, value); err != nil {
		return Record[T]{}, c.wrap("find one", err)
	}
	return c.decode(r)
}

// UpdateByID replaces the document body and bumps UpdatedAt.
// PRE: data has been validated
// POST: Returns the updated record; ErrNotFound if absent; ErrConstraint on a uniqueness clash
func (c *Collection[T]) UpdateByID(ctx context.Context, id string, data T) (Record[T], error) {
	body, err := json.Marshal(data)
	if err != nil {
		return Record[T]{}, fmt.Errorf("encode %s document: %w", c.name, err)
	}
	now := c.now().UTC()
	query := c.db.Rebind(fmt.Sprintf(
		"UPDATE %s SET data = ?, updated_at = ? WHERE id = ? RETURNING created_at", c.name,
	))
	var createdAt string
	if err := c.db.QueryRowxContext(ctx, query, string(body), now.Format(timeLayout), id).Scan(&createdAt); err != nil {
		return Record[T]{}, c.wrap("update", err)
	}
	created, _ := time.Parse(timeLayout, createdAt)
	return Record[T]{ID: id, CreatedAt: created, UpdatedAt: now, Data: data}, nil
}

// DeleteByID removes the document with the given ID.
// PRE: id is non-empty
// POST: The document is gone; ErrNotFound if it did not exist
func (c *Collection[T]) DeleteByID(ctx context.Context, id string) error {
	query := c.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.name))
	res, err := c.db.ExecContext(ctx, query, id)
	if err != nil {
		return c.wrap("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return c.wrap("delete", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
	}
	return nil
}

// Count returns the number of documents in the collection.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, c.db, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s", c.name)); err != nil {
		return 0, c.wrap("count", err)
	}
	return n, nil
}

func (c *Collection[T]) jsonField(field string) string {
	if c.dialect == storage.DialectPostgres {
		return fmt.Sprintf("(data::jsonb ->> '%s')", field)
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", field)
}

func (c *Collection[T]) decode(r row) (Record[T], error) {
	var data T
	if err := json.Unmarshal([]byte(r.Data), &data); err != nil {
		return Record[T]{}, fmt.Errorf("decode %s document %s: %w", c.name, r.ID, err)
	}
	created, _ := time.Parse(timeLayout, r.CreatedAt)
	updated, _ := time.Parse(timeLayout, r.UpdatedAt)
	return Record[T]{ID: r.ID, CreatedAt: created, UpdatedAt: updated, Data: data}, nil
}

// wrap maps driver errors onto ErrNotFound and ErrConstraint.
func (c *Collection[T]) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", c.name, op, ErrNotFound)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %s: %w", c.name, op, ErrConstraint)
	}
	return fmt.Errorf("%s %s: %w", c.name, op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
