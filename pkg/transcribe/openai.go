package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"podcast-pipeline/pkg/domain"
	"podcast-pipeline/pkg/httpclient"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAITranscriber implements Transcriber using the OpenAI Audio API with
// whisper verbose_json responses.
type OpenAITranscriber struct {
	client  openai.Client
	http    *httpclient.HTTPClient
	model   string
	options Options
}

// segment from the whisper verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

// NewOpenAITranscriber creates the OpenAI transcriber variant.
func NewOpenAITranscriber(ctx context.Context, apiKey string, opts Options) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &OpenAITranscriber{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		http:    httpclient.NewClient(httpclient.CloudflareClient),
		model:   model,
		options: opts,
	}, nil
}

// Transcribe downloads the episode audio and runs it through the Audio API.
// Any audio or decoder failure maps to ErrTranscriptionFailed.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioURL, language string) ([]domain.Segment, error) {
	audioPath, cleanup, err := t.fetchAudio(ctx, audioURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch audio: %v", ErrTranscriptionFailed, err)
	}
	defer cleanup()

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open audio: %v", ErrTranscriptionFailed, err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if language != "" {
		params.Language = openai.String(language)
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	segments, err := parseVerboseJSONResponse(resp.RawJSON())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	return segments, nil
}

// fetchAudio downloads the audio to a temp file so the upload has a name and
// a seekable body. The caller must invoke cleanup.
func (t *OpenAITranscriber) fetchAudio(ctx context.Context, audioURL string) (string, func(), error) {
	resp, err := t.http.Get(ctx, audioURL)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "episode-*.mp3")
	if err != nil {
		return "", nil, err
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}

	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}

func parseVerboseJSONResponse(rawJSON string) ([]domain.Segment, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var verboseResp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &verboseResp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	if len(verboseResp.Segments) == 0 {
		return nil, fmt.Errorf("no segments in response")
	}

	raw := make([]timedText, 0, len(verboseResp.Segments))
	for _, seg := range verboseResp.Segments {
		raw = append(raw, timedText{Start: seg.Start, End: seg.End, Text: seg.Text})
	}

	segments := buildSegments(raw)
	if len(segments) == 0 {
		return nil, fmt.Errorf("no usable segments in response")
	}
	return segments, nil
}
