package storage

import (
	"context"
	"fmt"

	"github.com/levenlabs/go-lflag"
)

// Configured sets up the SessionStore based on flags.
func Configured() SessionStore {
	provider := lflag.String("session-store", "file", "Where to persist the portal session (available: file, sqlite, firestore, memory)")

	var p struct{ SessionStore }

	fs := configuredFile()
	sq := configuredSQLite()
	fire := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "file":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("file store validation failed: %v", err))
			}
			p.SessionStore = fs
		case "sqlite":
			if err := sq.Validate(); err != nil {
				panic(fmt.Sprintf("sqlite validation failed: %v", err))
			}
			if err := sq.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("sqlite init failed: %v", err))
			}
			p.SessionStore = sq
		case "firestore":
			if err := fire.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			if err := fire.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
			p.SessionStore = fire
		case "memory":
			p.SessionStore = NewMemoryStore()
		default:
			panic(fmt.Sprintf("unknown session store: %s", *provider))
		}
	})

	return &p
}
