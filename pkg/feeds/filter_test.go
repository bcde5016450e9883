package feeds

import (
	"testing"
	"time"

	"podcast-pipeline/pkg/domain"
)

func TestLookbackFilter(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	filter := NewLookbackFilter(now, 7)

	recent := domain.Episode{ID: "a", PublishedAt: now.AddDate(0, 0, -3)}
	stale := domain.Episode{ID: "b", PublishedAt: now.AddDate(0, 0, -10)}

	if !filter.Keep(recent) {
		t.Error("expected episode inside lookback window to be kept")
	}
	if filter.Keep(stale) {
		t.Error("expected episode outside lookback window to be dropped")
	}
}

func TestProcessedFilter(t *testing.T) {
	filter := NewProcessedFilter(map[string]bool{"done": true})

	if filter.Keep(domain.Episode{ID: "done"}) {
		t.Error("expected already-registered episode to be dropped")
	}
	if !filter.Keep(domain.Episode{ID: "new"}) {
		t.Error("expected unseen episode to be kept")
	}
}

func TestProcessedFilterNilSet(t *testing.T) {
	filter := NewProcessedFilter(nil)

	if !filter.Keep(domain.Episode{ID: "any"}) {
		t.Error("expected nil processed set to keep everything")
	}
}

func TestFilterEpisodesCombines(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	episodes := []domain.Episode{
		{ID: "fresh", PublishedAt: now.AddDate(0, 0, -1)},
		{ID: "done", PublishedAt: now.AddDate(0, 0, -1)},
		{ID: "old", PublishedAt: now.AddDate(0, 0, -30)},
	}

	kept := FilterEpisodes(episodes,
		NewLookbackFilter(now, 7),
		NewProcessedFilter(map[string]bool{"done": true}),
	)

	if len(kept) != 1 || kept[0].ID != "fresh" {
		t.Errorf("expected only 'fresh' to survive, got %v", kept)
	}
}
