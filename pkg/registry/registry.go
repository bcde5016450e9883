package registry

import (
	"context"
	"errors"

	"podcast-pipeline/pkg/domain"
)

// ErrNotFound is returned when no record exists for an episode ID.
var ErrNotFound = errors.New("podcast record not found")

// Store is the backend registry holding one PodcastRecord per processed
// episode: metadata plus the storage pointer, never segment content.
// Upsert is keyed by episode ID and must tolerate arbitrary arrival order
// across episodes.
type Store interface {
	Upsert(ctx context.Context, record *domain.PodcastRecord) error
	Get(ctx context.Context, episodeID string) (*domain.PodcastRecord, error)
	ListIDs(ctx context.Context) ([]string, error)
	Close(ctx context.Context) error
}
