package store

import (
	"context"
	"errors"
)

// ErrUpload marks a failed bundle upload (auth, network, quota). It is
// episode-fatal and never partially applied; the next scheduled run retries
// with a full overwrite.
var ErrUpload = errors.New("bundle upload failed")

// ErrSignerNotConfigured means storage credentials are absent. This is a
// service-level condition requiring operator action, not a signing error.
var ErrSignerNotConfigured = errors.New("signer not configured")

// ErrSigningFailed marks a per-request signing failure; callers may retry.
var ErrSigningFailed = errors.New("signing failed")

// ObjectStore is the storage capability consumed by the writer and the
// signer. Implementations must be safe for concurrent use and must make
// Upload atomic from any reader's perspective: a concurrent read during a
// re-upload observes either the fully old or fully new object, never a mix.
type ObjectStore interface {
	// Upload stores data under key, replacing any previous object, and
	// returns the permanent locator of the stored object. The locator is an
	// identity token only and must never be handed to untrusted clients.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Download returns the full current content stored under key.
	Download(ctx context.Context, key string) ([]byte, error)

	// SignURL mints a time-bounded read URL for the object under key.
	SignURL(ctx context.Context, key string, expiresInSeconds int) (string, error)
}

// ObjectKey derives the deterministic storage key for an episode's bundle.
func ObjectKey(episodeID string) string {
	return "segments/" + episodeID + ".json"
}
