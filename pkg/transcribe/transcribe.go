package transcribe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"podcast-pipeline/pkg/domain"
)

// ErrTranscriptionFailed marks corrupt/unreadable audio or a decoder error.
// It is episode-fatal for the current run: no partial segment set is ever
// produced or passed downstream. The episode is retried wholesale on the
// next scheduled run.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Transcriber converts an audio reference into an ordered sequence of timed
// text segments with non-decreasing start times.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, language string) ([]domain.Segment, error)
}

// Provider selects the speech-recognition engine variant.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
)

// Options tunes a transcriber. BatchSize, Precision and Devices are
// performance knobs only; they never change the output contract.
type Options struct {
	Model     string
	Prompt    string
	BatchSize int
	Precision string
	Devices   int
}

// Factory creates a Transcriber for the configured provider. Adding a
// provider means adding a variant here, not modifying callers.
func Factory(ctx context.Context, provider Provider, apiKey string, opts Options) (Transcriber, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", provider)
	}
}

// timedText is one raw (start, end, text) triple from a provider.
type timedText struct {
	Start float64
	End   float64
	Text  string
}

// buildSegments turns raw provider output into ordered domain segments:
// empty and zero-length entries are dropped, the rest are sorted by start
// and given ids ascending with start.
func buildSegments(raw []timedText) []domain.Segment {
	kept := make([]timedText, 0, len(raw))
	for _, t := range raw {
		text := strings.TrimSpace(t.Text)
		if text == "" || t.Start >= t.End {
			continue
		}
		t.Text = text
		kept = append(kept, t)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start < kept[j].Start
	})

	segments := make([]domain.Segment, len(kept))
	for i, t := range kept {
		segments[i] = domain.Segment{
			ID:    i + 1,
			Text:  t.Text,
			Start: t.Start,
			End:   t.End,
		}
	}
	return segments
}
