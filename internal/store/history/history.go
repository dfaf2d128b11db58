package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no matching row exists.
var ErrNotFound = errors.New("history: not found")

// DB is the local record of what this client posted.
type DB struct{ sql *sql.DB }

// Open opens or creates the database at path. ":memory:" is supported.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps :memory: databases shared and writes serialized
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS posts (
	  id TEXT PRIMARY KEY,
	  profile TEXT NOT NULL,
	  text TEXT NOT NULL,
	  in_reply_to TEXT,
	  created_at INTEGER NOT NULL,
	  deleted_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_posts_profile_created ON posts(profile, created_at);
	CREATE TABLE IF NOT EXISTS cursors (
	  name TEXT PRIMARY KEY,
	  value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS events (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  type TEXT NOT NULL,
	  payload TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
	`)
	return err
}

// Post is a post created by this client.
type Post struct {
	ID        string
	Profile   string
	Text      string
	InReplyTo string
	CreatedAt time.Time
	DeletedAt time.Time
}

// Deleted reports whether the post was deleted through this client.
func (p Post) Deleted() bool { return !p.DeletedAt.IsZero() }

// RecordPost stores p, replacing an earlier row with the same id.
func (d *DB) RecordPost(ctx context.Context, p Post) error {
	if p.ID == "" {
		return errors.New("history: empty post id")
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO posts(id, profile, text, in_reply_to, created_at) VALUES(?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET profile=excluded.profile, text=excluded.text, in_reply_to=excluded.in_reply_to, created_at=excluded.created_at`,
		p.ID, p.Profile, p.Text, nullString(p.InReplyTo), p.CreatedAt.UnixMilli())
	return err
}

// MarkDeleted flags the post id as deleted at at.
func (d *DB) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	res, err := d.sql.ExecContext(ctx, `UPDATE posts SET deleted_at=? WHERE id=?`, at.UnixMilli(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LastPost returns the newest non-deleted post of profile.
func (d *DB) LastPost(ctx context.Context, profile string) (Post, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT id, profile, text, in_reply_to, created_at, deleted_at FROM posts
		 WHERE profile=? AND deleted_at IS NULL ORDER BY created_at DESC, rowid DESC LIMIT 1`, profile)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	return p, err
}

// ListPosts returns up to limit posts of profile, newest first, deleted
// ones included.
func (d *DB) ListPosts(ctx context.Context, profile string, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, profile, text, in_reply_to, created_at, deleted_at FROM posts
		 WHERE profile=? ORDER BY created_at DESC, rowid DESC LIMIT ?`, profile, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveCursor stores a named position such as the newest seen timeline id.
func (d *DB) SaveCursor(ctx context.Context, name, value string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO cursors(name, value) VALUES(?,?) ON CONFLICT(name) DO UPDATE SET value=excluded.value`, name, value)
	return err
}

// LoadCursor returns the stored value, or "" when none was saved.
func (d *DB) LoadCursor(ctx context.Context, name string) (string, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, `SELECT value FROM cursors WHERE name=?`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// Event is a stored action such as a like.
type Event struct {
	TS      time.Time
	Type    string
	Payload string
}

// PutEvent stores an action with a JSON payload.
func (d *DB) PutEvent(ctx context.Context, ts time.Time, typ string, payload any) error {
	pb, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx, `INSERT INTO events(ts, type, payload) VALUES(?,?,?)`, ts.UnixMilli(), typ, string(pb))
	return err
}

// CountEvents counts events of typ in [start, end).
func (d *DB) CountEvents(ctx context.Context, start, end time.Time, typ string) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(1) FROM events WHERE ts>=? AND ts<? AND type=?`,
		start.UnixMilli(), end.UnixMilli(), typ).Scan(&n)
	return n, err
}

// LoadEventsRange returns events in [start, end), optionally of one type.
func (d *DB) LoadEventsRange(ctx context.Context, start, end time.Time, typ string) ([]Event, error) {
	q := `SELECT ts, type, payload FROM events WHERE ts>=? AND ts<?`
	args := []any{start.UnixMilli(), end.UnixMilli()}
	if typ != "" {
		q += ` AND type=?`
		args = append(args, typ)
	}
	rows, err := d.sql.QueryContext(ctx, q+` ORDER BY ts`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var ts int64
		var e Event
		var payload sql.NullString
		if err := rows.Scan(&ts, &e.Type, &payload); err != nil {
			return nil, err
		}
		e.TS = time.UnixMilli(ts).UTC()
		e.Payload = payload.String
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanPost(s scanner) (Post, error) {
	var p Post
	var reply sql.NullString
	var created int64
	var deleted sql.NullInt64
	if err := s.Scan(&p.ID, &p.Profile, &p.Text, &reply, &created, &deleted); err != nil {
		return Post{}, err
	}
	p.InReplyTo = reply.String
	p.CreatedAt = time.UnixMilli(created).UTC()
	if deleted.Valid {
		p.DeletedAt = time.UnixMilli(deleted.Int64).UTC()
	}
	return p, nil
}

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }
