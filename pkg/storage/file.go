package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/linky/pkg/log"
	"github.com/raterudder/linky/pkg/types"
)

// FileStore keeps each session identifier in its own file, JSON-encoded.
// There is no locking; two processes sharing the files can observe a
// half-written or half-deleted session.
type FileStore struct {
	loginPath   string
	sessionPath string
}

// NewFileStore returns a FileStore storing the iPlanetDirectoryPro cookie at
// loginPath and the JSESSIONID cookie at sessionPath.
func NewFileStore(loginPath, sessionPath string) *FileStore {
	return &FileStore{
		loginPath:   loginPath,
		sessionPath: sessionPath,
	}
}

func configuredFile() *FileStore {
	loginPath := lflag.String("session-file-login", "./cookie1", "File holding the iPlanetDirectoryPro cookie")
	sessionPath := lflag.String("session-file-session", "./cookie2", "File holding the JSESSIONID cookie")

	f := &FileStore{}
	lflag.Do(func() {
		f.loginPath = *loginPath
		f.sessionPath = *sessionPath
	})
	return f
}

// Validate ensures the configuration is valid.
func (f *FileStore) Validate() error {
	if f.loginPath == "" || f.sessionPath == "" {
		return errors.New("both session file paths are required")
	}
	if f.loginPath == f.sessionPath {
		return fmt.Errorf("session file paths must differ: %s", f.loginPath)
	}
	return nil
}

// Load reads both files. A session is only reported when both exist.
func (f *FileStore) Load(ctx context.Context) (types.Session, bool, error) {
	login, ok, err := readValue(f.loginPath)
	if err != nil || !ok {
		return types.Session{}, false, err
	}
	session, ok, err := readValue(f.sessionPath)
	if err != nil || !ok {
		return types.Session{}, false, err
	}
	log.Ctx(ctx).DebugContext(ctx, "loaded session from files", slog.String("loginPath", f.loginPath), slog.String("sessionPath", f.sessionPath))
	return types.Session{
		IPlanetDirectoryPro: login,
		JSESSIONID:          session,
	}, true, nil
}

// Save writes both files.
func (f *FileStore) Save(ctx context.Context, sess types.Session) error {
	if err := writeValue(f.loginPath, sess.IPlanetDirectoryPro); err != nil {
		return err
	}
	if err := writeValue(f.sessionPath, sess.JSESSIONID); err != nil {
		return err
	}
	log.Ctx(ctx).DebugContext(ctx, "saved session to files", slog.String("loginPath", f.loginPath), slog.String("sessionPath", f.sessionPath))
	return nil
}

// Clear removes both files, ignoring files that are already gone.
func (f *FileStore) Clear(ctx context.Context) error {
	var errs []error
	for _, path := range []string{f.loginPath, f.sessionPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove session file: %w", err))
		}
	}
	log.Ctx(ctx).DebugContext(ctx, "cleared session files")
	return errors.Join(errs...)
}

// Close is a no-op.
func (f *FileStore) Close() error {
	return nil
}

func readValue(path string) (string, bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session file: %w", err)
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return "", false, fmt.Errorf("failed to decode session file (%s): %w", path, err)
	}
	return v, true, nil
}

func writeValue(path, v string) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
