package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultCollection = "speech_coach_kv"

// KV is a domain.KeyValueStore backed by one Firestore document per key.
type KV struct {
	client     *firestore.Client
	collection string
}

// NewKV creates a Firestore key-value store.
// Uses the project passed (SPEECH_COACH_STORAGE_GCP_PROJECT).
func NewKV(ctx context.Context, projectID, collection string) (*KV, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &KV{client: client, collection: collection}, nil
}

type valueDoc struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (s *KV) doc(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(key)
}

func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	snap, err := s.doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("getting %s: %w", key, err)
	}

	var d valueDoc
	if err := snap.DataTo(&d); err != nil {
		return "", false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return d.Value, true, nil
}

func (s *KV) Set(ctx context.Context, key, value string) error {
	_, err := s.doc(key).Set(ctx, valueDoc{
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	if _, err := s.doc(key).Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *KV) Close() error {
	return s.client.Close()
}
