// Package state persists the last read position of each document.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	stateFileName = "reading_positions.json"
	hashBytes     = 8192 // First 8KB for content hash
)

// Store records where each document was last read.
type Store interface {
	// History returns the saved line for documentID.
	History(documentID string) (int, bool)
	// SetHistory saves line as the last read position of documentID.
	SetHistory(documentID string, line int) error
	// Clear forgets documentID.
	Clear(documentID string) error
	Close() error
}

// ReadingState stores position for a single file
type ReadingState struct {
	LineNumber int `json:"line_number"`
}

// JSONStore keeps reading state in a JSON file.
type JSONStore struct {
	path string
	data map[string]ReadingState
	mu   sync.RWMutex
}

// NewJSONStore creates or loads state from XDG_STATE_HOME/prr/
func NewJSONStore() (*JSONStore, error) {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &JSONStore{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]ReadingState),
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with empty state
		store.data = make(map[string]ReadingState)
	}
	return store, nil
}

// Dir returns XDG_STATE_HOME/prr or ~/.local/state/prr
func Dir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "prr")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "prr")
}

// Open returns the store for backend, "json" or "sqlite".
func Open(backend string) (Store, error) {
	switch backend {
	case "", "json":
		return NewJSONStore()
	case "sqlite":
		return NewSQLiteStore(filepath.Join(Dir(), sqliteFileName))
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

// ComputeHash generates content hash for file identity
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	return HashBytes(buf[:n]), nil
}

// HashBytes identifies content read from somewhere other than a file.
func HashBytes(data []byte) string {
	if len(data) > hashBytes {
		data = data[:hashBytes]
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16]) // First 16 bytes = 32 hex chars
}

// History returns saved position for file
func (s *JSONStore) History(documentID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.data[documentID]
	return state.LineNumber, ok
}

// SetHistory saves position for file
func (s *JSONStore) SetHistory(documentID string, line int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[documentID] = ReadingState{LineNumber: line}
	return s.save()
}

// Clear removes saved position for file
func (s *JSONStore) Clear(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, documentID)
	return s.save()
}

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
