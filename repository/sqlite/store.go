package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/OmChannawar/Listify/repository"
)

// timeLayout is fixed-width so TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY,
	owner_id        TEXT    NOT NULL,
	title           TEXT    NOT NULL,
	description     TEXT    NOT NULL DEFAULT '',
	link            TEXT    NOT NULL DEFAULT '',
	deadline        TEXT,
	deadline_locked INTEGER NOT NULL DEFAULT 0,
	subtasks        TEXT    NOT NULL DEFAULT '[]',
	completed       INTEGER NOT NULL DEFAULT 0,
	completed_at    TEXT,
	created_at      TEXT    NOT NULL,
	updated_at      TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id, created_at);
CREATE INDEX IF NOT EXISTS idx_tasks_completed_at ON tasks(completed, completed_at);

CREATE TABLE IF NOT EXISTS profiles (
	id                      TEXT PRIMARY KEY,
	name                    TEXT    NOT NULL,
	email                   TEXT    NOT NULL DEFAULT '',
	points                  INTEGER NOT NULL DEFAULT 0,
	rank                    TEXT    NOT NULL,
	streak                  INTEGER NOT NULL DEFAULT 0,
	longest_streak          INTEGER NOT NULL DEFAULT 0,
	last_task_date          TEXT,
	total_tasks_completed   INTEGER NOT NULL DEFAULT 0,
	tasks_completed_on_time INTEGER NOT NULL DEFAULT 0,
	purchased_items         TEXT    NOT NULL DEFAULT '[]',
	friends                 TEXT    NOT NULL DEFAULT '[]',
	version                 INTEGER NOT NULL DEFAULT 1,
	created_at              TEXT    NOT NULL,
	updated_at              TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_profiles_points ON profiles(points DESC);

CREATE TABLE IF NOT EXISTS activities (
	id         TEXT PRIMARY KEY,
	profile_id TEXT    NOT NULL,
	kind       TEXT    NOT NULL,
	points     INTEGER NOT NULL,
	ref_id     TEXT    NOT NULL DEFAULT '',
	balance    INTEGER NOT NULL,
	created_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activities_profile ON activities(profile_id, created_at);
`

// upgrades run after schema and bring files created by older builds forward.
var upgrades = []struct {
	table, column, ddl string
}{
	{"profiles", "version", `ALTER TABLE profiles ADD COLUMN version INTEGER NOT NULL DEFAULT 1`},
}

const indexes = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email ON profiles(lower(email)) WHERE email <> '';
`

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists tasks, profiles and activity in a single SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file and ensures the schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection serializes writers; SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	for _, u := range upgrades {
		if err := ensureColumn(db, u.table, u.column, u.ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("upgrade %s.%s: %w", u.table, u.column, err)
		}
	}
	if _, err := db.Exec(indexes); err != nil {
		db.Close()
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Tasks() repository.TaskRepository {
	return &taskRepository{db: s.db}
}

func (s *Store) Profiles() repository.ProfileRepository {
	return &profileRepository{db: s.db}
}

func (s *Store) Activities() repository.ActivityRepository {
	return &activityRepository{db: s.db}
}

// WithinTx runs fn in one transaction. The store holds a single connection,
// so transactions never interleave.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&txScope{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type txScope struct {
	tx *sql.Tx
}

func (t *txScope) Tasks() repository.TaskRepository {
	return &taskRepository{db: t.tx}
}

func (t *txScope) Profiles() repository.ProfileRepository {
	return &profileRepository{db: t.tx}
}

func (t *txScope) Activities() repository.ActivityRepository {
	return &activityRepository{db: t.tx}
}

var _ repository.Store = (*Store)(nil)

func ensureColumn(db *sql.DB, table, column, ddl string) error {
	rows, err := db.Query(`PRAGMA table_info(` + table + `)`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()
	_, err = db.Exec(ddl)
	return err
}

// isUniqueViolation reports a UNIQUE index conflict. The driver runs with
// extended result codes, so the code is exact.
func isUniqueViolation(err error) bool {
	var sqlErr *sqlitedriver.Error
	return errors.As(err, &sqlErr) && sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// limitArg maps "no limit" to -1, which SQLite treats as unbounded.
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
