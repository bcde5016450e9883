package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"podcast-pipeline/pkg/domain"
	"podcast-pipeline/pkg/httpclient"
)

// ErrProvider marks a translation provider failure that survived the
// per-batch retry budget. It is episode-fatal: partially translated bundles
// are never produced.
var ErrProvider = errors.New("translation provider failed")

// Item is a single segment text to translate, tagged with its position so
// order survives the provider round trip.
type Item struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Result is one translated text, carrying the originating index.
type Result struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Translator is the capability interface shared by all provider variants:
// input is an ordered sequence of segment texts, output an equal-length,
// order-preserving sequence of translations.
type Translator interface {
	Translate(ctx context.Context, items []Item) ([]Result, error)
}

// Provider selects the translation back-end.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// DefaultBatchSize is the number of items sent per provider request.
const DefaultBatchSize = 50

type Options struct {
	SourceLanguage string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int           // items per API request (default 50)
	MaxAttempts    int           // per-batch retry budget (default 3)
	RetryBase      time.Duration // initial backoff between batch retries
}

// Factory creates a Translator based on provider. Swapping providers never
// changes the ordering or identity contract.
func Factory(ctx context.Context, provider Provider, apiKey string, opts Options) (Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// ItemsFromSegments builds the ordered translation input for a segment set.
func ItemsFromSegments(segments []domain.Segment) []Item {
	items := make([]Item, len(segments))
	for i, seg := range segments {
		items[i] = Item{Index: i, Text: seg.Text}
	}
	return items
}

// Attach writes translations back onto their originating segments by index.
// Segment id, text and timing are never altered. It fails if the result set
// is not an exact, complete cover of the input.
func Attach(segments []domain.Segment, results []Result) error {
	if len(results) != len(segments) {
		return fmt.Errorf("expected %d translations, got %d", len(segments), len(results))
	}

	byIndex := make(map[int]string, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(segments) {
			return fmt.Errorf("translation index %d out of range", r.Index)
		}
		if _, dup := byIndex[r.Index]; dup {
			return fmt.Errorf("duplicate translation index %d", r.Index)
		}
		byIndex[r.Index] = r.Text
	}

	for i := range segments {
		text := byIndex[i]
		segments[i].Translation = &text
	}
	return nil
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o Options) maxAttempts() int {
	if o.MaxAttempts > 0 {
		return o.MaxAttempts
	}
	return 3
}

func (o Options) retryBase() time.Duration {
	if o.RetryBase > 0 {
		return o.RetryBase
	}
	return 2 * time.Second
}

// translateInBatches splits items into batches and runs them through call.
// Each batch retries with exponential backoff up to the attempt budget; one
// exhausted batch fails the whole translation, so callers never see a
// partial result. Output is restored to input order.
func translateInBatches(ctx context.Context, opts Options, items []Item, call func(context.Context, []Item) ([]Result, error)) ([]Result, error) {
	if len(items) == 0 {
		return []Result{}, nil
	}

	batchSize := opts.batchSize()
	var allResults []Result

	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[i:end]

		var results []Result
		err := httpclient.Retry(ctx, opts.maxAttempts(), opts.retryBase(), func() error {
			batchResults, err := call(ctx, batch)
			if err != nil {
				log.Printf("Translate: batch %d failed, will retry within budget: %v", i/batchSize, err)
				return err
			}
			results = batchResults
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w: %v", i/batchSize, ErrProvider, err)
		}

		allResults = append(allResults, results...)
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].Index < allResults[j].Index
	})

	return allResults, nil
}

// BuildPrompt creates the translation prompt for LLM providers.
func BuildPrompt(opts Options, items []Item) string {
	var sb strings.Builder

	if opts.SourceLanguage != "" {
		sb.WriteString(fmt.Sprintf(
			"Translate the following %s podcast transcript lines to %s.\n\n",
			opts.SourceLanguage,
			opts.TargetLanguage,
		))
	} else {
		sb.WriteString(fmt.Sprintf(
			"Translate the following podcast transcript lines to %s.\n\n",
			opts.TargetLanguage,
		))
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the text content, preserving the meaning and tone of spoken language.\n")
	sb.WriteString("2. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("3. Each object must have 'index' and 'text' fields.\n")
	sb.WriteString("4. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("5. Do not merge, split or reorder lines.\n")
	sb.WriteString("6. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		sb.WriteString(fmt.Sprintf("Additional instructions: %s\n\n", opts.Prompt))
	}

	sb.WriteString("Input JSON:\n")

	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)

	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}
