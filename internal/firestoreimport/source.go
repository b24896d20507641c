// Package firestoreimport copies data from the legacy Firestore project
// into Postgres.
package firestoreimport

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Document is one raw document read from the legacy store.
type Document struct {
	ID   string
	Data map[string]any
}

// Source walks collections of the legacy store. Paths may name
// subcollections, e.g. "recipes/abc/comments".
type Source interface {
	Each(ctx context.Context, path string, fn func(Document) error) error
}

// FirestoreSource reads documents through the Firestore client.
type FirestoreSource struct {
	client *firestore.Client
}

// NewFirestoreSource connects to the given project using application
// default credentials.
func NewFirestoreSource(ctx context.Context, projectID string) (*FirestoreSource, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &FirestoreSource{client: client}, nil
}

// Close releases the client.
func (s *FirestoreSource) Close() error {
	return s.client.Close()
}

// Each calls fn for every document in path. Iteration stops at the first
// error returned by fn.
func (s *FirestoreSource) Each(ctx context.Context, path string, fn func(Document) error) error {
	iter := s.client.Collection(path).Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		if err := fn(Document{ID: snap.Ref.ID, Data: snap.Data()}); err != nil {
			return err
		}
	}
}
