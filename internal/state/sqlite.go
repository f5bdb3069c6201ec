package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "history.db"

const historySchema = `
CREATE TABLE IF NOT EXISTS history (
	document_id TEXT PRIMARY KEY,
	line_number INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
`

// SQLiteStore keeps reading state in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(1000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// History returns the saved line for documentID.
func (s *SQLiteStore) History(documentID string) (int, bool) {
	var line int
	err := s.db.QueryRow("SELECT line_number FROM history WHERE document_id = ?", documentID).Scan(&line)
	if err != nil {
		return 0, false
	}
	return line, true
}

// SetHistory saves line as the last read position of documentID.
func (s *SQLiteStore) SetHistory(documentID string, line int) error {
	_, err := s.db.Exec(`
		INSERT INTO history (document_id, line_number, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET line_number = excluded.line_number, updated_at = excluded.updated_at`,
		documentID, line, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// Clear forgets documentID.
func (s *SQLiteStore) Clear(documentID string) error {
	if _, err := s.db.Exec("DELETE FROM history WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return errors.New("store already closed")
	}
	err := s.db.Close()
	s.db = nil
	return err
}
