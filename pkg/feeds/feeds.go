package feeds

import (
	"context"
	"errors"

	"podcast-pipeline/pkg/domain"
	"podcast-pipeline/pkg/httpclient"
)

// ErrSourceFetch marks a per-source discovery failure. Source failures are
// isolated: one source failing never prevents the others from being fetched
// in the same run, and the dedup key makes rediscovery on the next run
// idempotent.
var ErrSourceFetch = errors.New("source fetch failed")

// EpisodeFetcher discovers the episodes currently published by one source.
type EpisodeFetcher interface {
	Fetch(ctx context.Context, source domain.Source) ([]domain.Episode, error)
}

// ForSource returns the fetcher variant for the source kind. Unknown kinds
// fall back to RSS, the common case.
func ForSource(source domain.Source, client *httpclient.HTTPClient) EpisodeFetcher {
	switch source.Kind {
	case "html":
		return NewHTMLFetcher(client)
	default:
		return NewRSSFetcher()
	}
}
