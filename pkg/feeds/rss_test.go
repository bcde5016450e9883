package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"podcast-pipeline/pkg/domain"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Test Show</title>
    <language>en</language>
    <item>
      <title>Episode One</title>
      <description>First episode notes.</description>
      <pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
      <enclosure url="https://cdn.example.com/ep1.mp3" type="audio/mpeg" length="1234"/>
      <itunes:duration>01:02:03</itunes:duration>
      <itunes:subtitle>A short teaser.</itunes:subtitle>
    </item>
    <item>
      <title>No Audio Here</title>
      <description>Blog-only post.</description>
      <pubDate>Tue, 25 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>No Publish Date</title>
      <enclosure url="https://cdn.example.com/ep3.mp3" type="audio/mpeg" length="1234"/>
    </item>
  </channel>
</rss>`

func TestRSSFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeedXML))
	}))
	defer server.Close()

	source := domain.Source{Provider: "test", Channel: "show", FeedURL: server.URL}

	episodes, err := NewRSSFetcher().Fetch(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(episodes) != 1 {
		t.Fatalf("expected 1 playable episode, got %d", len(episodes))
	}

	ep := episodes[0]
	if ep.ID != domain.EpisodeID(source, "https://cdn.example.com/ep1.mp3") {
		t.Errorf("unexpected episode id %s", ep.ID)
	}
	if ep.Title != "Episode One" {
		t.Errorf("expected title 'Episode One', got %q", ep.Title)
	}
	if ep.Subtitle != "A short teaser." {
		t.Errorf("expected itunes subtitle, got %q", ep.Subtitle)
	}
	if ep.AudioURL != "https://cdn.example.com/ep1.mp3" {
		t.Errorf("unexpected audio url %q", ep.AudioURL)
	}
	if ep.Language != "en" {
		t.Errorf("expected feed language 'en', got %q", ep.Language)
	}
	if ep.DurationSeconds != 3723 {
		t.Errorf("expected duration 3723s, got %d", ep.DurationSeconds)
	}
}

func TestRSSFetcherFeedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	source := domain.Source{Provider: "test", Channel: "show", FeedURL: server.URL}

	if _, err := NewRSSFetcher().Fetch(context.Background(), source); err == nil {
		t.Error("expected error for failing feed, got nil")
	}
}

func TestParseITunesDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"01:02:03", 3723},
		{"12:34", 754},
		{"90", 90},
		{"", 0},
		{"abc", 0},
	}

	for _, tt := range tests {
		if got := parseITunesDuration(tt.raw); got != tt.want {
			t.Errorf("parseITunesDuration(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
