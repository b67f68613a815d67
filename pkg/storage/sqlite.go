package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"
	_ "github.com/mattn/go-sqlite3"
	"github.com/raterudder/linky/pkg/types"
)

// SQLiteStore implements SessionStore with a single-row SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore returns a store backed by the database at path. Init must be
// called before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func configuredSQLite() *SQLiteStore {
	path := lflag.String("sqlite-path", "./linky.db", "Path of the SQLite database holding the session")

	s := &SQLiteStore{}
	lflag.Do(func() {
		s.path = *path
	})
	return s
}

// Validate ensures the configuration is valid.
func (s *SQLiteStore) Validate() error {
	if s.path == "" {
		return errors.New("sqlite-path is required")
	}
	return nil
}

// Init opens the database and creates the schema.
func (s *SQLiteStore) Init(ctx context.Context) error {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS enedis_session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			iplanet_directory_pro TEXT NOT NULL,
			jsessionid TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (types.Session, bool, error) {
	var sess types.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT iplanet_directory_pro, jsessionid FROM enedis_session WHERE id = 1`,
	).Scan(&sess.IPlanetDirectoryPro, &sess.JSESSIONID)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Session{}, false, nil
	}
	if err != nil {
		return types.Session{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess types.Session) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enedis_session (id, iplanet_directory_pro, jsessionid, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			iplanet_directory_pro = excluded.iplanet_directory_pro,
			jsessionid = excluded.jsessionid,
			updated_at = excluded.updated_at
	`, sess.IPlanetDirectoryPro, sess.JSESSIONID, now, now)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM enedis_session WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
