// Package baseline keeps saved stylesheets and reconciles live edits against
// them.
package baseline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"cssw/css"
)

// ErrNotFound is returned when requested baseline does not exist.
var ErrNotFound = errors.New("baseline not found")

// MemoryPath opens private in-memory store.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS baselines (
	id      TEXT PRIMARY KEY,
	css     TEXT NOT NULL,
	blocks  INTEGER NOT NULL,
	updated INTEGER NOT NULL
);`

// Entry describes stored baseline.
type Entry struct {
	ID      string
	Blocks  int
	Size    int
	Updated time.Time
}

// Store is SQLite backed baseline storage.
// NOTE: single connection, not to be used concurrently.
type Store struct {
	log  *zap.Logger
	conn *sqlite.Conn
	now  func() time.Time
}

// Open opens (creating when necessary) store at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL}
	if path == MemoryPath {
		flags = []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenMemory}
	}
	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("unable to open baseline store '%s': %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare baseline store '%s': %w", path, err)
	}

	s := &Store{log: log.Named("baseline"), conn: conn, now: time.Now}
	s.log.Debug("Baseline store opened", zap.String("path", path))
	return s, nil
}

// Close closes underlying database.
func (s *Store) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("unable to close baseline store: %w", err)
	}
	return nil
}

// Save stores doc under id replacing previous baseline if any. Document is
// kept in its serialized form.
func (s *Store) Save(id string, doc css.Document) error {
	text := doc.String()
	err := sqlitex.Execute(s.conn,
		`INSERT INTO baselines (id, css, blocks, updated) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET css = excluded.css, blocks = excluded.blocks, updated = excluded.updated`,
		&sqlitex.ExecOptions{Args: []any{id, text, len(doc), s.now().Unix()}})
	if err != nil {
		return fmt.Errorf("unable to save baseline '%s': %w", id, err)
	}
	s.log.Debug("Baseline saved", zap.String("id", id), zap.Int("blocks", len(doc)), zap.Int("bytes", len(text)))
	return nil
}

// LoadText returns serialized baseline.
func (s *Store) LoadText(id string) (string, error) {
	var (
		text  string
		found bool
	)
	err := sqlitex.Execute(s.conn, `SELECT css FROM baselines WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				text, found = stmt.ColumnText(0), true
				return nil
			},
		})
	if err != nil {
		return "", fmt.Errorf("unable to load baseline '%s': %w", id, err)
	}
	if !found {
		return "", fmt.Errorf("%w: '%s'", ErrNotFound, id)
	}
	return text, nil
}

// Load returns baseline parsed with e.
func (s *Store) Load(e *css.Engine, id string) (css.Document, error) {
	text, err := s.LoadText(id)
	if err != nil {
		return nil, err
	}
	return e.Parse(text), nil
}

// Delete removes baseline, reporting whether it existed.
func (s *Store) Delete(id string) (bool, error) {
	if err := sqlitex.Execute(s.conn, `DELETE FROM baselines WHERE id = ?`, &sqlitex.ExecOptions{Args: []any{id}}); err != nil {
		return false, fmt.Errorf("unable to delete baseline '%s': %w", id, err)
	}
	deleted := s.conn.Changes() > 0
	s.log.Debug("Baseline deleted", zap.String("id", id), zap.Bool("existed", deleted))
	return deleted, nil
}

// List returns all stored baselines in natural order of ids.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	err := sqlitex.Execute(s.conn, `SELECT id, blocks, length(css), updated FROM baselines`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entries = append(entries, Entry{
					ID:      stmt.ColumnText(0),
					Blocks:  stmt.ColumnInt(1),
					Size:    stmt.ColumnInt(2),
					Updated: time.Unix(stmt.ColumnInt64(3), 0),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to list baselines: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return natural.Less(entries[i].ID, entries[j].ID)
	})
	return entries, nil
}

// IDs returns ids of all stored baselines in natural order.
func (s *Store) IDs() ([]string, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// Reconcile compares live document with stored baseline returning the patch
// turning baseline into live and selectors live no longer has.
func (s *Store) Reconcile(e *css.Engine, id string, live css.Document) (css.Document, []string, error) {
	base, err := s.Load(e, id)
	if err != nil {
		return nil, nil, err
	}
	patch, removed := css.DiffDocuments(base, live)
	s.log.Debug("Baseline reconciled", zap.String("id", id), zap.Int("changed", len(patch)), zap.Int("removed", len(removed)))
	return patch, removed, nil
}
