package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseConfig holds the object-store credentials.
type SupabaseConfig struct {
	// URL is the Supabase project URL, e.g. "https://[project-ref].supabase.co".
	URL string

	// ServiceKey is the service_role API key. Signing requires it.
	ServiceKey string

	// Bucket is the storage bucket holding segment bundles.
	Bucket string

	// CustomDomain, when set, replaces the project host in signed URLs so
	// clients talk to the CDN domain instead of the storage origin.
	CustomDomain string
}

// SupabaseStore implements ObjectStore on Supabase Storage. Uploads use a
// single upsert call, so the provider replaces the object atomically.
type SupabaseStore struct {
	storage      *storage_go.Client
	bucket       string
	projectURL   string
	customDomain string
}

// NewSupabaseStore constructs the store, or an error when credentials are
// incomplete. Callers treat a nil store as "signer not configured".
func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	if cfg.URL == "" || cfg.ServiceKey == "" {
		return nil, fmt.Errorf("supabase URL and service key are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	client, err := supabase.NewClient(cfg.URL, cfg.ServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}

	return &SupabaseStore{
		storage:      client.Storage,
		bucket:       cfg.Bucket,
		projectURL:   strings.TrimRight(cfg.URL, "/"),
		customDomain: strings.TrimRight(cfg.CustomDomain, "/"),
	}, nil
}

// Upload stores data under key with upsert semantics and returns the
// permanent bucket-relative locator.
func (s *SupabaseStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	upsert := true
	if _, err := s.storage.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return s.bucket + "/" + key, nil
}

// Download returns the current object content under key.
func (s *SupabaseStore) Download(ctx context.Context, key string) ([]byte, error) {
	data, err := s.storage.DownloadFile(s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return data, nil
}

// SignURL asks the provider for a time-bounded signed URL. The signature
// material is timestamp-dependent; only the validity window is contractual.
func (s *SupabaseStore) SignURL(ctx context.Context, key string, expiresInSeconds int) (string, error) {
	resp, err := s.storage.CreateSignedUrl(s.bucket, key, expiresInSeconds)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", key, err)
	}
	if resp.SignedURL == "" {
		return "", fmt.Errorf("sign %s: provider returned empty URL", key)
	}

	signed := resp.SignedURL
	if s.customDomain != "" {
		signed = strings.Replace(signed, s.projectURL, s.customDomain, 1)
	}
	return signed, nil
}
