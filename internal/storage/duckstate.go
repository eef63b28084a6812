package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
)

// DuckStateStore keeps session state documents in a DuckDB file so sessions
// survive a server restart.
type DuckStateStore struct {
	db     *sql.DB
	dbPath string
}

// NewDuckStateStore opens (or creates) the state database at dbPath.
func NewDuckStateStore(dbPath string) (*DuckStateStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating state db directory: %w", err)
		}
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS session_state (
			session_id VARCHAR PRIMARY KEY,
			doc        VARCHAR NOT NULL,
			updated_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session_state table: %w", err)
	}

	return &DuckStateStore{db: db, dbPath: dbPath}, nil
}

// Save upserts the JSON document for the session id.
func (s *DuckStateStore) Save(sessionID string, doc *models.PersistedState) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding state document: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO session_state (session_id, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at
	`, sessionID, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("writing state document: %w", err)
	}
	return nil
}

// Load reads the document for the session id. A missing row or a document
// that no longer decodes yields (nil, nil): stale or corrupt state must never
// block creating a fresh session.
func (s *DuckStateStore) Load(sessionID string) (*models.PersistedState, error) {
	var raw string
	err := s.db.QueryRow(`SELECT doc FROM session_state WHERE session_id = ?`, sessionID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state document: %w", err)
	}

	var doc models.PersistedState
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		fmt.Printf("[StateStore] Discarding malformed state for session %s: %v\n", sessionID, err)
		return nil, nil
	}
	if doc.State == nil {
		return nil, nil
	}
	return &doc, nil
}

// Delete removes the stored document for the session id.
func (s *DuckStateStore) Delete(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM session_state WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting state document: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *DuckStateStore) Close() error {
	return s.db.Close()
}
