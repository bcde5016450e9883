package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podcast-pipeline/pkg/domain"
	"podcast-pipeline/pkg/httpclient"
)

// ErrRegistration marks a registration failure that survived the bounded
// retries. The stored object is already durable at that point, so the next
// run safely re-uploads (idempotent overwrite) and registers again.
var ErrRegistration = errors.New("registration failed")

// Registrar registers processed episodes with the backend registry. The
// Register input requires a StoredObjectRef value, which only the bundle
// writer produces: registration before storage is structurally impossible.
type Registrar struct {
	baseURL  string
	client   *httpclient.HTTPClient
	attempts int
	backoff  time.Duration
}

// New creates a registrar against the backend base URL.
func New(baseURL string, client *httpclient.HTTPClient) *Registrar {
	if client == nil {
		client = httpclient.NewClient("")
	}
	return &Registrar{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		attempts: 3,
		backoff:  2 * time.Second,
	}
}

type registerRequest struct {
	Episode domain.Episode         `json:"episode"`
	Stored  domain.StoredObjectRef `json:"stored"`
}

// Register upserts the episode's metadata and storage pointer, keyed by
// episode ID, retrying transient failures with backoff.
func (r *Registrar) Register(ctx context.Context, episode domain.Episode, stored domain.StoredObjectRef) error {
	body, err := json.Marshal(registerRequest{Episode: episode, Stored: stored})
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrRegistration, err)
	}

	err = httpclient.Retry(ctx, r.attempts, r.backoff, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/podcast/register", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("episode %s: %w: %v", episode.ID, ErrRegistration, err)
	}

	return nil
}

// RegisteredIDs fetches the set of already-registered episode IDs, used by
// discovery to skip episodes processed on earlier runs.
func (r *Registrar) RegisteredIDs(ctx context.Context) (map[string]bool, error) {
	resp, err := r.client.Get(ctx, r.baseURL+"/podcast/ids")
	if err != nil {
		return nil, fmt.Errorf("fetch registered ids: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch registered ids: unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read registered ids: %w", err)
	}

	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse registered ids: %w", err)
	}

	ids := make(map[string]bool, len(payload.IDs))
	for _, id := range payload.IDs {
		ids[id] = true
	}
	return ids, nil
}
