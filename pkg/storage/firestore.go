package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/linky/pkg/log"
	"github.com/raterudder/linky/pkg/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements SessionStore using Google Cloud Firestore.
// The session lives in a single document with one field per cookie.
type FirestoreStore struct {
	client     *firestore.Client
	projectID  string
	database   string
	collection string
	docID      string
}

type firestoreSession struct {
	IPlanetDirectoryPro string    `firestore:"iPlanetDirectoryPro"`
	JSESSIONID          string    `firestore:"JSESSIONID"`
	UpdatedAt           time.Time `firestore:"updatedAt"`
}

// configuredFirestore sets up the Firestore store.
// It registers flags for configuration.
func configuredFirestore() *FirestoreStore {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")
	docID := lflag.String("firestore-session-doc", "default", "Document ID holding the session inside the sessions collection")

	f := &FirestoreStore{
		collection: "sessions",
	}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database
		f.docID = *docID

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the store is properly configured.
func (f *FirestoreStore) Validate() error {
	// Project ID may be empty, it is detected from the environment.
	if f.docID == "" {
		return errors.New("firestore-session-doc is required")
	}
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the store methods.
func (f *FirestoreStore) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreStore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreStore) doc() *firestore.DocumentRef {
	return f.client.Collection(f.collection).Doc(f.docID)
}

// Load fetches the session document. A missing document means no session.
func (f *FirestoreStore) Load(ctx context.Context) (types.Session, bool, error) {
	snap, err := f.doc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Session{}, false, nil
		}
		return types.Session{}, false, fmt.Errorf("failed to fetch session doc: %w", err)
	}

	var s firestoreSession
	if err := snap.DataTo(&s); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode session doc", slog.String("docID", f.docID), slog.Any("err", err))
		return types.Session{}, false, fmt.Errorf("failed to decode session doc: %w", err)
	}
	if s.IPlanetDirectoryPro == "" {
		return types.Session{}, false, nil
	}
	return types.Session{
		IPlanetDirectoryPro: s.IPlanetDirectoryPro,
		JSESSIONID:          s.JSESSIONID,
	}, true, nil
}

// Save overwrites the session document.
func (f *FirestoreStore) Save(ctx context.Context, sess types.Session) error {
	_, err := f.doc().Set(ctx, firestoreSession{
		IPlanetDirectoryPro: sess.IPlanetDirectoryPro,
		JSESSIONID:          sess.JSESSIONID,
		UpdatedAt:           time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear deletes the session document. Deleting a missing document succeeds.
func (f *FirestoreStore) Clear(ctx context.Context) error {
	if _, err := f.doc().Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
