package store

import (
	"context"
	"fmt"
	"time"

	"podcast-pipeline/pkg/domain"
)

// TTL bounds for signed URLs, in seconds.
const (
	MinTTLSeconds     = 60
	MaxTTLSeconds     = 3600
	DefaultTTLSeconds = 300
)

// ClampTTL normalizes a requested TTL into [MinTTLSeconds, MaxTTLSeconds].
// Unspecified or invalid values (<= 0) get the default.
func ClampTTL(ttlSeconds int) int {
	switch {
	case ttlSeconds <= 0:
		return DefaultTTLSeconds
	case ttlSeconds < MinTTLSeconds:
		return MinTTLSeconds
	case ttlSeconds > MaxTTLSeconds:
		return MaxTTLSeconds
	default:
		return ttlSeconds
	}
}

// Signer mints short-lived read URLs for stored bundles. It is stateless:
// every request produces a fresh URL and nothing is cached or persisted.
type Signer struct {
	store ObjectStore
}

// NewSigner creates a signer over the given store. A nil store means
// storage credentials were not configured; Issue then fails with
// ErrSignerNotConfigured rather than at construction time, so the rest of
// the service still serves metadata.
func NewSigner(store ObjectStore) *Signer {
	return &Signer{store: store}
}

// Issue mints a signed URL for objectKey with the requested TTL, clamped
// into the allowed window.
func (s *Signer) Issue(ctx context.Context, objectKey string, ttlSeconds int) (domain.SignedURL, error) {
	if s == nil || s.store == nil {
		return domain.SignedURL{}, ErrSignerNotConfigured
	}

	ttl := ClampTTL(ttlSeconds)

	url, err := s.store.SignURL(ctx, objectKey, ttl)
	if err != nil {
		return domain.SignedURL{}, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	return domain.SignedURL{
		URL:       url,
		ExpiresAt: time.Now().Add(time.Duration(ttl) * time.Second),
	}, nil
}
