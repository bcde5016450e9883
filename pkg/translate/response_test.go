package translate

import "testing"

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `[{"index":0,"text":"你好"}]`, `[{"index":0,"text":"你好"}]`},
		{"json fence", "```json\n[{\"index\":0,\"text\":\"你好\"}]\n```", `[{"index":0,"text":"你好"}]`},
		{"bare fence", "```\n[]\n```", "[]"},
		{"surrounding whitespace", "  \n[]\n  ", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFixInvalidEscapes(t *testing.T) {
	in := `{"text": "path \d matches \n fine"}`
	want := `{"text": "path \\d matches \n fine"}`

	if got := fixInvalidEscapes(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractResults(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bare array", `[{"index":0,"text":"你好"},{"index":1,"text":"世界"}]`},
		{"results wrapper", `{"results":[{"index":0,"text":"你好"},{"index":1,"text":"世界"}]}`},
		{"translations wrapper", `{"translations":[{"index":0,"text":"你好"},{"index":1,"text":"世界"}]}`},
		{"preamble before json", "Here you go:\n[{\"index\":0,\"text\":\"你好\"},{\"index\":1,\"text\":\"世界\"}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := extractResults(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(results) != 2 {
				t.Fatalf("expected 2 results, got %d", len(results))
			}
			if results[0].Text != "你好" || results[1].Text != "世界" {
				t.Errorf("unexpected texts %q,%q", results[0].Text, results[1].Text)
			}
		})
	}
}

func TestExtractResultsNoJSON(t *testing.T) {
	if _, err := extractResults("I cannot translate that."); err == nil {
		t.Error("expected error when response has no JSON")
	}
}

func TestCheckCount(t *testing.T) {
	results := []Result{{Index: 0, Text: "你好"}}

	if _, err := checkCount(results, 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := checkCount(results, 2); err == nil {
		t.Error("expected error on count mismatch")
	}
}
