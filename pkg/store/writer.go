package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"podcast-pipeline/pkg/domain"
)

// Writer serializes a complete segment bundle and uploads it under the
// episode's deterministic key. The whole bundle goes up in one call: a
// failure leaves the previous object intact and the episode aborts before
// registration.
type Writer struct {
	store ObjectStore
}

// NewWriter creates a bundle writer on top of an object store.
func NewWriter(store ObjectStore) *Writer {
	return &Writer{store: store}
}

// Write validates the bundle, serializes it as an ordered JSON array and
// uploads it. On success it returns the StoredObjectRef that the registrar
// requires as proof of storage.
func (w *Writer) Write(ctx context.Context, bundle domain.SegmentBundle) (domain.StoredObjectRef, error) {
	if err := bundle.Validate(); err != nil {
		return domain.StoredObjectRef{}, fmt.Errorf("%w: invalid bundle: %v", ErrUpload, err)
	}

	data, err := json.Marshal(bundle.Segments)
	if err != nil {
		return domain.StoredObjectRef{}, fmt.Errorf("%w: serialize bundle: %v", ErrUpload, err)
	}

	key := ObjectKey(bundle.EpisodeID)
	locator, err := w.store.Upload(ctx, key, data, "application/json")
	if err != nil {
		return domain.StoredObjectRef{}, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	log.Printf("Writer: uploaded %d segments to %s (%d bytes)", len(bundle.Segments), key, len(data))

	return domain.StoredObjectRef{
		Key:     key,
		Locator: locator,
	}, nil
}
