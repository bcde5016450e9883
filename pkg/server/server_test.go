package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"podcast-pipeline/pkg/domain"
	"podcast-pipeline/pkg/registry"
	"podcast-pipeline/pkg/store"
)

// memoryRegistry is an in-memory registry.Store for handler tests.
type memoryRegistry struct {
	records map[string]*domain.PodcastRecord
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{records: make(map[string]*domain.PodcastRecord)}
}

func (m *memoryRegistry) Upsert(_ context.Context, record *domain.PodcastRecord) error {
	copied := *record
	m.records[record.Episode.ID] = &copied
	return nil
}

func (m *memoryRegistry) Get(_ context.Context, episodeID string) (*domain.PodcastRecord, error) {
	record, ok := m.records[episodeID]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return record, nil
}

func (m *memoryRegistry) ListIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memoryRegistry) Close(context.Context) error { return nil }

// fakeObjectStore only signs; the server never uploads or downloads.
type fakeObjectStore struct{}

func (fakeObjectStore) Upload(context.Context, string, []byte, string) (string, error) {
	return "", fmt.Errorf("not supported")
}

func (fakeObjectStore) Download(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("not supported")
}

func (fakeObjectStore) SignURL(_ context.Context, key string, expiresInSeconds int) (string, error) {
	return fmt.Sprintf("https://cdn.example.com/%s?token=x&expires=%d", key, expiresInSeconds), nil
}

func seededRegistry(t *testing.T) *memoryRegistry {
	t.Helper()
	reg := newMemoryRegistry()
	err := reg.Upsert(context.Background(), &domain.PodcastRecord{
		Episode: domain.Episode{
			ID:       "abc123",
			Provider: "npr",
			Channel:  "planet-money",
			Title:    "Episode One",
		},
		Stored: domain.StoredObjectRef{
			Key:     "segments/abc123.json",
			Locator: "bucket/segments/abc123.json",
		},
		RegisteredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed registry: %v", err)
	}
	return reg
}

func doRequest(srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, req)
	return recorder
}

func TestDetailNotFound(t *testing.T) {
	srv := New(newMemoryRegistry(), store.NewSigner(fakeObjectStore{}))

	resp := doRequest(srv, http.MethodGet, "/podcast/detail/nope", nil)

	if resp.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.Code)
	}
}

func TestDetailClampsExpires(t *testing.T) {
	srv := New(seededRegistry(t), store.NewSigner(fakeObjectStore{}))

	resp := doRequest(srv, http.MethodGet, "/podcast/detail/abc123?expires=10", nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Podcast struct {
			ID                       string `json:"id"`
			Title                    string `json:"title"`
			SegmentsKey              string `json:"segmentsKey"`
			SegmentsTempURL          string `json:"segmentsTempURL"`
			SegmentsTempURLExpiresIn int    `json:"segmentsTempURLExpiresIn"`
		} `json:"podcast"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if body.Podcast.ID != "abc123" || body.Podcast.Title != "Episode One" {
		t.Errorf("unexpected podcast %+v", body.Podcast)
	}
	if body.Podcast.SegmentsKey != "segments/abc123.json" {
		t.Errorf("unexpected segments key %q", body.Podcast.SegmentsKey)
	}
	if body.Podcast.SegmentsTempURLExpiresIn != 60 {
		t.Errorf("expected expires=10 clamped to 60, got %d", body.Podcast.SegmentsTempURLExpiresIn)
	}
	if body.Podcast.SegmentsTempURL == "" {
		t.Error("expected a signed url")
	}
	if strings.Contains(resp.Body.String(), "locator") {
		t.Error("locator must never appear in responses")
	}
}

func TestDetailSignerNotConfigured(t *testing.T) {
	srv := New(seededRegistry(t), store.NewSigner(nil))

	resp := doRequest(srv, http.MethodGet, "/podcast/detail/abc123", nil)

	if resp.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.Code)
	}
}

func TestSegmentsURLClampsExpires(t *testing.T) {
	srv := New(seededRegistry(t), store.NewSigner(fakeObjectStore{}))

	tests := []struct {
		query string
		want  int
	}{
		{"", 300},
		{"?expires=10", 60},
		{"?expires=300", 300},
		{"?expires=10000", 3600},
	}

	for _, tt := range tests {
		resp := doRequest(srv, http.MethodGet, "/podcast/segments-url/abc123"+tt.query, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("query %q: expected 200, got %d", tt.query, resp.Code)
		}

		var body struct {
			URL       string `json:"url"`
			ExpiresIn int    `json:"expiresIn"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.ExpiresIn != tt.want {
			t.Errorf("query %q: expected expires_in %d, got %d", tt.query, tt.want, body.ExpiresIn)
		}
		if body.URL == "" {
			t.Errorf("query %q: expected a signed url", tt.query)
		}
	}
}

func TestSegmentsURLNotFound(t *testing.T) {
	srv := New(newMemoryRegistry(), store.NewSigner(fakeObjectStore{}))

	resp := doRequest(srv, http.MethodGet, "/podcast/segments-url/nope", nil)

	if resp.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.Code)
	}
}

func TestRegisterAndListIDs(t *testing.T) {
	srv := New(newMemoryRegistry(), store.NewSigner(fakeObjectStore{}))

	payload := []byte(`{
		"episode": {"id": "abc123", "provider": "npr", "channel": "planet-money", "title": "Episode One"},
		"stored": {"key": "segments/abc123.json", "locator": "bucket/segments/abc123.json"}
	}`)

	resp := doRequest(srv, http.MethodPost, "/podcast/register", payload)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doRequest(srv, http.MethodGet, "/podcast/ids", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.IDs) != 1 || body.IDs[0] != "abc123" {
		t.Errorf("unexpected ids %v", body.IDs)
	}
}

func TestRegisterRejectsIncompleteRequests(t *testing.T) {
	srv := New(newMemoryRegistry(), store.NewSigner(fakeObjectStore{}))

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "nope"},
		{"missing episode id", `{"episode": {}, "stored": {"key": "k"}}`},
		{"missing stored key", `{"episode": {"id": "abc123"}, "stored": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(srv, http.MethodPost, "/podcast/register", []byte(tt.payload))
			if resp.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.Code)
			}
		})
	}
}
