package feeds

import (
	"time"

	"podcast-pipeline/pkg/domain"
)

// EpisodeFilter decides whether a discovered episode should be processed.
type EpisodeFilter interface {
	Keep(episode domain.Episode) bool
}

// FilterEpisodes applies all filters to a list of episodes
func FilterEpisodes(episodes []domain.Episode, filters ...EpisodeFilter) []domain.Episode {
	kept := make([]domain.Episode, 0, len(episodes))
	for _, episode := range episodes {
		keep := true
		for _, f := range filters {
			if !f.Keep(episode) {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, episode)
		}
	}
	return kept
}

// LookbackFilter keeps episodes published within the lookback window.
type LookbackFilter struct {
	cutoff time.Time
}

// NewLookbackFilter creates a filter keeping episodes published in the last
// lookbackDays days.
func NewLookbackFilter(now time.Time, lookbackDays int) *LookbackFilter {
	return &LookbackFilter{
		cutoff: now.AddDate(0, 0, -lookbackDays),
	}
}

// Keep returns true if the episode was published after the cutoff
func (f *LookbackFilter) Keep(episode domain.Episode) bool {
	return episode.PublishedAt.After(f.cutoff)
}

// ProcessedFilter drops episodes whose IDs are already registered.
type ProcessedFilter struct {
	processed map[string]bool
}

// NewProcessedFilter creates a filter from the set of already-registered IDs.
func NewProcessedFilter(processed map[string]bool) *ProcessedFilter {
	return &ProcessedFilter{processed: processed}
}

// Keep returns false if the episode ID is already in the processed set
func (f *ProcessedFilter) Keep(episode domain.Episode) bool {
	return !f.processed[episode.ID]
}
