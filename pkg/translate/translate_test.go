package translate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"podcast-pipeline/pkg/domain"
)

func TestAttach(t *testing.T) {
	segments := []domain.Segment{
		{ID: 1, Text: "Hello.", Start: 0, End: 2.5},
		{ID: 2, Text: "World.", Start: 2.5, End: 4},
	}
	results := []Result{
		{Index: 1, Text: "世界"},
		{Index: 0, Text: "你好"},
	}

	if err := Attach(segments, results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if segments[0].Translation == nil || *segments[0].Translation != "你好" {
		t.Errorf("expected first translation 你好, got %v", segments[0].Translation)
	}
	if segments[1].Translation == nil || *segments[1].Translation != "世界" {
		t.Errorf("expected second translation 世界, got %v", segments[1].Translation)
	}
	if segments[0].ID != 1 || segments[0].Text != "Hello." || segments[0].End != 2.5 {
		t.Error("expected segment identity untouched by Attach")
	}
}

func TestAttachRejectsBadResults(t *testing.T) {
	segments := []domain.Segment{
		{ID: 1, Text: "Hello.", Start: 0, End: 1},
		{ID: 2, Text: "World.", Start: 1, End: 2},
	}

	tests := []struct {
		name    string
		results []Result
	}{
		{"missing results", []Result{{Index: 0, Text: "你好"}}},
		{"index out of range", []Result{{Index: 0, Text: "a"}, {Index: 5, Text: "b"}}},
		{"duplicate index", []Result{{Index: 0, Text: "a"}, {Index: 0, Text: "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Attach(segments, tt.results); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestItemsFromSegments(t *testing.T) {
	segments := []domain.Segment{
		{ID: 1, Text: "Hello."},
		{ID: 2, Text: "World."},
	}

	items := ItemsFromSegments(segments)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Index != 0 || items[0].Text != "Hello." {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[1].Index != 1 || items[1].Text != "World." {
		t.Errorf("unexpected second item %+v", items[1])
	}
}

func echoBatch(_ context.Context, batch []Item) ([]Result, error) {
	results := make([]Result, len(batch))
	for i, item := range batch {
		results[i] = Result{Index: item.Index, Text: "译" + item.Text}
	}
	return results, nil
}

func TestTranslateInBatchesSplitsAndReorders(t *testing.T) {
	items := make([]Item, 5)
	for i := range items {
		items[i] = Item{Index: i, Text: fmt.Sprintf("line %d", i)}
	}

	var batches int
	opts := Options{BatchSize: 2, MaxAttempts: 1}
	results, err := translateInBatches(context.Background(), opts, items, func(ctx context.Context, batch []Item) ([]Result, error) {
		batches++
		return echoBatch(ctx, batch)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if batches != 3 {
		t.Errorf("expected 3 batches for 5 items at size 2, got %d", batches)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("expected results in input order, got index %d at position %d", r.Index, i)
		}
	}
}

func TestTranslateInBatchesRetriesThenSucceeds(t *testing.T) {
	items := []Item{{Index: 0, Text: "Hello."}}

	var calls int
	opts := Options{MaxAttempts: 3, RetryBase: 1}
	results, err := translateInBatches(context.Background(), opts, items, func(ctx context.Context, batch []Item) ([]Result, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("rate limited")
		}
		return echoBatch(ctx, batch)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if len(results) != 1 || results[0].Text != "译Hello." {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestTranslateInBatchesExhaustionFailsWhole(t *testing.T) {
	items := []Item{{Index: 0, Text: "Hello."}, {Index: 1, Text: "World."}}

	var calls int
	opts := Options{BatchSize: 1, MaxAttempts: 2, RetryBase: 1}
	_, err := translateInBatches(context.Background(), opts, items, func(context.Context, []Item) ([]Result, error) {
		calls++
		return nil, errors.New("provider down")
	})

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, ErrProvider) {
		t.Errorf("expected ErrProvider, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected retries confined to the first batch, got %d calls", calls)
	}
}

func TestFactoryRequiresTargetLanguage(t *testing.T) {
	if _, err := Factory(context.Background(), ProviderOpenAI, "key", Options{}); err == nil {
		t.Error("expected error when target language is missing")
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	if _, err := Factory(context.Background(), Provider("deepl"), "key", Options{TargetLanguage: "Chinese"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
