package feeds

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"podcast-pipeline/pkg/domain"

	"github.com/mmcdole/gofeed"
)

// RSSFetcher discovers episodes from an RSS/Atom podcast feed.
type RSSFetcher struct {
	parser *gofeed.Parser
}

// NewRSSFetcher creates a new RSS episode fetcher
func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{
		parser: gofeed.NewParser(),
	}
}

// Fetch parses the source's feed and returns one Episode per item that
// carries an audio enclosure and a publish date. Items without either are
// skipped rather than failing the whole feed.
func (f *RSSFetcher) Fetch(ctx context.Context, source domain.Source) ([]domain.Episode, error) {
	feed, err := f.parser.ParseURLWithContext(source.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	if feed == nil || len(feed.Items) == 0 {
		return nil, fmt.Errorf("feed contains no items")
	}

	language := source.Language
	if feed.Language != "" {
		language = feed.Language
	}

	episodes := make([]domain.Episode, 0, len(feed.Items))
	for _, item := range feed.Items {
		audioURL := enclosureAudioURL(item)
		if audioURL == "" || item.PublishedParsed == nil {
			continue
		}

		episode := domain.Episode{
			ID:          domain.EpisodeID(source, audioURL),
			Provider:    source.Provider,
			Channel:     source.Channel,
			AudioURL:    audioURL,
			Title:       item.Title,
			Subtitle:    itemSubtitle(item),
			PublishedAt: *item.PublishedParsed,
			Language:    language,
		}
		if item.ITunesExt != nil {
			episode.DurationSeconds = parseITunesDuration(item.ITunesExt.Duration)
		}

		episodes = append(episodes, episode)
	}

	if len(episodes) == 0 {
		return nil, fmt.Errorf("no playable episodes found in feed items")
	}

	return episodes, nil
}

// enclosureAudioURL picks the first audio enclosure of an item, falling back
// to any enclosure when the feed omits MIME types.
func enclosureAudioURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "audio/") {
			return enc.URL
		}
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

func itemSubtitle(item *gofeed.Item) string {
	if item.ITunesExt != nil && item.ITunesExt.Subtitle != "" {
		return item.ITunesExt.Subtitle
	}
	return strings.TrimSpace(item.Description)
}

// parseITunesDuration accepts "HH:MM:SS", "MM:SS" or plain seconds.
func parseITunesDuration(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	if !strings.Contains(raw, ":") {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return 0
		}
		return seconds
	}

	parts := strings.Split(raw, ":")
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}
