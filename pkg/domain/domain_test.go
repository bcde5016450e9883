package domain

import "testing"

func TestEpisodeIDStable(t *testing.T) {
	source := Source{Provider: "npr", Channel: "planet-money"}

	first := EpisodeID(source, "https://cdn.example.com/ep1.mp3")
	second := EpisodeID(source, "https://cdn.example.com/ep1.mp3")

	if first != second {
		t.Errorf("expected stable id, got %s and %s", first, second)
	}
	if len(first) != 32 {
		t.Errorf("expected 32-char hex id, got %q", first)
	}
}

func TestEpisodeIDVariesBySourceAndURL(t *testing.T) {
	source := Source{Provider: "npr", Channel: "planet-money"}
	other := Source{Provider: "npr", Channel: "up-first"}

	base := EpisodeID(source, "https://cdn.example.com/ep1.mp3")
	if got := EpisodeID(other, "https://cdn.example.com/ep1.mp3"); got == base {
		t.Error("expected different ids for different channels")
	}
	if got := EpisodeID(source, "https://cdn.example.com/ep2.mp3"); got == base {
		t.Error("expected different ids for different audio URLs")
	}
}

func TestBundleValidate(t *testing.T) {
	valid := SegmentBundle{
		EpisodeID: "abc123",
		Segments: []Segment{
			{ID: 1, Text: "Hello.", Start: 0.0, End: 2.5},
			{ID: 2, Text: "World.", Start: 2.5, End: 4.0},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid bundle, got %v", err)
	}
}

func TestBundleValidateRejectsBadBundles(t *testing.T) {
	tests := []struct {
		name   string
		bundle SegmentBundle
	}{
		{
			name:   "missing episode id",
			bundle: SegmentBundle{Segments: []Segment{{ID: 1, Start: 0, End: 1}}},
		},
		{
			name: "start not before end",
			bundle: SegmentBundle{
				EpisodeID: "abc123",
				Segments:  []Segment{{ID: 1, Start: 2.0, End: 2.0}},
			},
		},
		{
			name: "duplicate ids",
			bundle: SegmentBundle{
				EpisodeID: "abc123",
				Segments: []Segment{
					{ID: 1, Start: 0, End: 1},
					{ID: 1, Start: 1, End: 2},
				},
			},
		},
		{
			name: "starts out of order",
			bundle: SegmentBundle{
				EpisodeID: "abc123",
				Segments: []Segment{
					{ID: 1, Start: 5, End: 6},
					{ID: 2, Start: 1, End: 2},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.bundle.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
