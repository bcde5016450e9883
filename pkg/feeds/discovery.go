package feeds

import (
	"context"
	"fmt"
	"log"
	"time"

	"podcast-pipeline/pkg/domain"
	"podcast-pipeline/pkg/httpclient"
)

// Discovery enumerates undiscovered episodes across all configured sources.
// Each source is fetched with bounded exponential-backoff retries; a source
// that keeps failing is skipped for this run and reattempted on the next
// scheduled run.
type Discovery struct {
	client       *httpclient.HTTPClient
	lookbackDays int
	attempts     int
	backoff      time.Duration
}

// NewDiscovery creates a Discovery with the given lookback window.
func NewDiscovery(client *httpclient.HTTPClient, lookbackDays int) *Discovery {
	if client == nil {
		client = httpclient.NewClient(httpclient.BrowserClient)
	}
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	return &Discovery{
		client:       client,
		lookbackDays: lookbackDays,
		attempts:     3,
		backoff:      2 * time.Second,
	}
}

// Discover fetches every source and returns the deduplicated set of episodes
// published within the lookback window that are not in the processed set.
// Per-source failures are collected and returned alongside the episodes;
// they never abort discovery of the remaining sources.
func (d *Discovery) Discover(ctx context.Context, sources []domain.Source, processed map[string]bool) ([]domain.Episode, []error) {
	lookback := NewLookbackFilter(time.Now(), d.lookbackDays)
	alreadyDone := NewProcessedFilter(processed)

	var all []domain.Episode
	var failures []error
	seen := make(map[string]bool)

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			return all, failures
		}

		episodes, err := d.fetchSource(ctx, source)
		if err != nil {
			log.Printf("Discovery: source %s/%s failed after %d attempts: %v", source.Provider, source.Channel, d.attempts, err)
			failures = append(failures, fmt.Errorf("source %s/%s: %w: %v", source.Provider, source.Channel, ErrSourceFetch, err))
			continue
		}

		fresh := FilterEpisodes(episodes, lookback, alreadyDone)
		log.Printf("Discovery: source %s/%s: %d episodes in feed, %d new within %d days", source.Provider, source.Channel, len(episodes), len(fresh), d.lookbackDays)

		for _, episode := range fresh {
			if seen[episode.ID] {
				continue
			}
			seen[episode.ID] = true
			all = append(all, episode)
		}
	}

	return all, failures
}

func (d *Discovery) fetchSource(ctx context.Context, source domain.Source) ([]domain.Episode, error) {
	fetcher := ForSource(source, d.client)

	var episodes []domain.Episode
	err := httpclient.Retry(ctx, d.attempts, d.backoff, func() error {
		fetched, err := fetcher.Fetch(ctx, source)
		if err != nil {
			return err
		}
		episodes = fetched
		return nil
	})
	return episodes, err
}
