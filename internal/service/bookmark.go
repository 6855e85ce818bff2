package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ErrBookmarkNotFound is returned when no bookmark has the key.
var ErrBookmarkNotFound = errors.New("bookmark not found")

// Bookmark is a saved permalink.
type Bookmark struct {
	Key     string    `json:"key" doc:"Bookmark key" readOnly:"true"`
	Layers  string    `json:"layers" doc:"Layer list token (the l= URL parameter)" example:"roads,buildings!,parcels[50]"`
	Theme   string    `json:"theme,omitempty" doc:"Theme the token belongs to" example:"city"`
	View    string    `json:"view,omitempty" doc:"Opaque map view state kept alongside the layers"`
	Created time.Time `json:"created" doc:"Creation time" readOnly:"true"`
}

const bookmarkSchema = `CREATE TABLE IF NOT EXISTS bookmarks (
	key     VARCHAR PRIMARY KEY,
	layers  VARCHAR NOT NULL,
	theme   VARCHAR NOT NULL DEFAULT '',
	view    VARCHAR NOT NULL DEFAULT '',
	created TIMESTAMP NOT NULL
)`

// BookmarkStore keeps permalinks in DuckDB.
type BookmarkStore struct {
	db  *sql.DB
	bus *EventBus
	log *log.Logger
}

// NewBookmarkStore creates the bookmarks table if needed.
func NewBookmarkStore(ctx context.Context, db *sql.DB, bus *EventBus, logger *log.Logger) (*BookmarkStore, error) {
	if _, err := db.ExecContext(ctx, bookmarkSchema); err != nil {
		return nil, fmt.Errorf("create bookmarks table: %w", err)
	}
	if bus == nil {
		bus = NewEventBus()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &BookmarkStore{db: db, bus: bus, log: logger.WithPrefix("bookmarks")}, nil
}

// Create stores b under a fresh key and returns it.
func (s *BookmarkStore) Create(ctx context.Context, b Bookmark) (Bookmark, error) {
	b.Key = uuid.NewString()
	b.Created = time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (key, layers, theme, view, created) VALUES (?, ?, ?, ?, ?)`,
		b.Key, b.Layers, b.Theme, b.View, b.Created)
	if err != nil {
		return Bookmark{}, fmt.Errorf("insert bookmark: %w", err)
	}
	s.log.Debug("bookmark saved", "key", b.Key, "theme", b.Theme)
	s.bus.Publish(Event{Resource: "bookmarks", Action: ActionAdded, ID: b.Key, Permalink: b.Layers})
	return b, nil
}

// Get returns the bookmark with key.
func (s *BookmarkStore) Get(ctx context.Context, key string) (Bookmark, error) {
	var b Bookmark
	err := s.db.QueryRowContext(ctx,
		`SELECT key, layers, theme, view, created FROM bookmarks WHERE key = ?`, key,
	).Scan(&b.Key, &b.Layers, &b.Theme, &b.View, &b.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return Bookmark{}, fmt.Errorf("bookmark %q: %w", key, ErrBookmarkNotFound)
	}
	if err != nil {
		return Bookmark{}, fmt.Errorf("get bookmark %q: %w", key, err)
	}
	return b, nil
}

// List returns a page of bookmarks, newest first, and the total count.
func (s *BookmarkStore) List(ctx context.Context, offset, limit int) ([]Bookmark, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM bookmarks`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookmarks: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, layers, theme, view, created FROM bookmarks ORDER BY created DESC, key LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	out := []Bookmark{}
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.Key, &b.Layers, &b.Theme, &b.View, &b.Created); err != nil {
			return nil, 0, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// Delete removes the bookmark with key.
func (s *BookmarkStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete bookmark %q: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("bookmark %q: %w", key, ErrBookmarkNotFound)
	}
	s.bus.Publish(Event{Resource: "bookmarks", Action: ActionRemoved, ID: key})
	return nil
}

// Tables lists the tables of the database.
func (s *BookmarkStore) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
