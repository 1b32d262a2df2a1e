// File: internal/store/store.go
// Description: Durable key/value persistence for the two engine records,
// the session state and the LLM configuration. Each record is a JSON blob
// replaced wholesale on save; there is no history and no migration story
// beyond the initial schema.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

const (
	keySessionState = "session_state"
	keyLLMConfig    = "llm_config"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS records (
    key   TEXT PRIMARY KEY,
    value BLOB NOT NULL
);`

// Store implements schemas.StateStore on top of an embedded sqlite file.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

var _ schemas.StateStore = (*Store)(nil)

// New opens (creating if necessary) the database at path and ensures the
// schema exists.
func New(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	// A single writer is all the engine ever needs.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}
	return &Store{db: db, log: logger.Named("store")}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession replaces the persisted session state.
func (s *Store) SaveSession(ctx context.Context, state *schemas.SessionState) error {
	return s.put(ctx, keySessionState, state)
}

// LoadSession returns the persisted session state, or (nil, nil) when no
// session has ever been saved.
func (s *Store) LoadSession(ctx context.Context) (*schemas.SessionState, error) {
	var state schemas.SessionState
	found, err := s.get(ctx, keySessionState, &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

// SaveLLMConfig replaces the persisted LLM configuration. This record is
// the only place the API key is ever written.
func (s *Store) SaveLLMConfig(ctx context.Context, cfg *schemas.LLMConfig) error {
	return s.put(ctx, keyLLMConfig, cfg)
}

// LoadLLMConfig returns the persisted LLM configuration, or (nil, nil)
// when none has been saved.
func (s *Store) LoadLLMConfig(ctx context.Context) (*schemas.LLMConfig, error) {
	var cfg schemas.LLMConfig
	found, err := s.get(ctx, keyLLMConfig, &cfg)
	if err != nil || !found {
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) put(ctx context.Context, key string, value any) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, blob)
	if err != nil {
		return fmt.Errorf("failed to write %s record: %w", key, err)
	}
	s.log.Debug("Record persisted", zap.String("key", key), zap.Int("bytes", len(blob)))
	return nil
}

func (s *Store) get(ctx context.Context, key string, out any) (bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM records WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s record: %w", key, err)
	}
	if err := json.Unmarshal(blob, out); err != nil {
		return false, fmt.Errorf("failed to decode %s record: %w", key, err)
	}
	return true, nil
}
