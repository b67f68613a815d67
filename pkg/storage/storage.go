package storage

import (
	"context"

	"github.com/raterudder/linky/pkg/types"
)

// SessionStore persists the portal session between runs so a new run can
// skip the login handshake.
type SessionStore interface {
	// Load returns the persisted session. ok is false when nothing (or only
	// part of a session) has been persisted.
	Load(ctx context.Context) (sess types.Session, ok bool, err error)

	// Save persists both session identifiers, replacing any previous ones.
	Save(ctx context.Context, sess types.Session) error

	// Clear removes the persisted session. It must not fail when nothing is
	// persisted.
	Clear(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
