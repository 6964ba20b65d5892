package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database and provides access to repositories.
type Store struct {
	db *sql.DB
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ClassRepo returns a ClassRepo backed by this store.
func (s *Store) ClassRepo() ClassRepo { return &classRepo{db: s.db} }

// LessonRepo returns a LessonRepo backed by this store.
func (s *Store) LessonRepo() LessonRepo { return &lessonRepo{db: s.db} }

// QuizRepo returns a QuizRepo backed by this store.
func (s *Store) QuizRepo() QuizRepo { return &quizRepo{db: s.db} }

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo { return &eventRepo{db: s.db} }

// CostRepo returns a CostRepo backed by this store.
func (s *Store) CostRepo() CostRepo { return &costRepo{db: s.db} }

// applyPragmas configures SQLite for single-writer durability.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func createTables(db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS classes (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			grade      INTEGER NOT NULL,
			subject    TEXT NOT NULL,
			standards  TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lessons (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			class_id   TEXT NOT NULL REFERENCES classes(id),
			taught_at  TIMESTAMP NOT NULL,
			topic      TEXT NOT NULL,
			summary    TEXT NOT NULL DEFAULT '',
			standards  TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lessons_class_time ON lessons(class_id, taught_at)`,
		`CREATE TABLE IF NOT EXISTS quizzes (
			id            TEXT PRIMARY KEY,
			class_id      TEXT NOT NULL REFERENCES classes(id),
			created_at    TIMESTAMP NOT NULL,
			approved      INTEGER NOT NULL,
			attempt_count INTEGER NOT NULL,
			style_profile TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			quiz_id     TEXT NOT NULL REFERENCES quizzes(id),
			position    INTEGER NOT NULL,
			payload     TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cost_records (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at   TIMESTAMP NOT NULL,
			provider      TEXT NOT NULL,
			model         TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			cost_usd      REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS model_events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at   TIMESTAMP NOT NULL,
			provider      TEXT NOT NULL,
			model         TEXT NOT NULL,
			purpose       TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			latency_ms    INTEGER NOT NULL,
			success       INTEGER NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			request_body  TEXT NOT NULL DEFAULT '',
			response_body TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec DDL: %w", err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. QUIZFORGE_DB environment variable
// 2. $XDG_DATA_HOME/quizforge/quizforge.db
// 3. ~/.local/share/quizforge/quizforge.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("QUIZFORGE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "quizforge", "quizforge.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
