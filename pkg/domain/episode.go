package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Source identifies one podcast feed to ingest. Sources are static
// configuration loaded at startup and never mutated at runtime.
type Source struct {
	// Provider is the hosting platform or network name (e.g. "ximalaya", "npr").
	Provider string `json:"provider"`

	// Channel is the show name within the provider.
	Channel string `json:"channel"`

	// FeedURL is the RSS feed URL or the HTML episode-listing page URL,
	// depending on Kind.
	FeedURL string `json:"feed_url"`

	// Kind selects the fetcher variant: "rss" (default) or "html".
	Kind string `json:"kind,omitempty"`

	// Language is the expected spoken language of the audio, used as a
	// transcription hint when the feed does not declare one.
	Language string `json:"language,omitempty"`
}

// Episode is one podcast installment discovered from a Source. Episodes are
// created by the fetcher and read-only for the rest of the pipeline.
type Episode struct {
	// ID is stable across runs: it is derived only from the source and the
	// audio reference, so rediscovering the same episode is idempotent.
	ID string `json:"id" bson:"id"`

	Provider string `json:"provider" bson:"provider"`
	Channel  string `json:"channel" bson:"channel"`

	// AudioURL points at the downloadable audio for this episode.
	AudioURL string `json:"audio_url" bson:"audio_url"`

	Title           string    `json:"title" bson:"title"`
	Subtitle        string    `json:"subtitle,omitempty" bson:"subtitle,omitempty"`
	PublishedAt     time.Time `json:"published_at" bson:"published_at"`
	Language        string    `json:"language,omitempty" bson:"language,omitempty"`
	DurationSeconds int       `json:"duration_seconds,omitempty" bson:"duration_seconds,omitempty"`
}

// EpisodeID derives the stable episode identifier from a source and the
// episode's audio reference.
func EpisodeID(source Source, audioURL string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s/%s/%s", source.Provider, source.Channel, audioURL)))
	return hex.EncodeToString(sum[:])
}
