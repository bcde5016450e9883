// Package pipeline orchestrates one ingestion run: discovered episodes fan
// out into a transcription worker pool sized to the available compute
// devices, which feeds an I/O worker pool handling translation, upload and
// registration. The two pools are separate so slow transcription never
// starves network-bound stages of other episodes.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"podcast-pipeline/pkg/domain"
	"podcast-pipeline/pkg/translate"

	"github.com/google/uuid"
)

// EpisodeDiscoverer enumerates unprocessed episodes across sources.
type EpisodeDiscoverer interface {
	Discover(ctx context.Context, sources []domain.Source, processed map[string]bool) ([]domain.Episode, []error)
}

// Transcriber converts an audio reference into ordered timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, language string) ([]domain.Segment, error)
}

// BundleWriter uploads a complete segment bundle and returns the proof of
// storage the registrar requires.
type BundleWriter interface {
	Write(ctx context.Context, bundle domain.SegmentBundle) (domain.StoredObjectRef, error)
}

// EpisodeRegistrar registers episode metadata plus the storage pointer. Its
// input type takes a StoredObjectRef value that only the writer produces,
// which makes registration-before-storage structurally impossible.
type EpisodeRegistrar interface {
	Register(ctx context.Context, episode domain.Episode, stored domain.StoredObjectRef) error
}

// RegisteredLister provides the set of already-registered episode IDs.
type RegisteredLister interface {
	RegisteredIDs(ctx context.Context) (map[string]bool, error)
}

// Config wires the orchestrator dependencies.
type Config struct {
	Sources    []domain.Source
	Discovery  EpisodeDiscoverer
	Transcribe Transcriber
	Translate  translate.Translator
	Writer     BundleWriter
	Registrar  EpisodeRegistrar

	// Registered is optional; without it every discovered episode within the
	// lookback window is processed (re-runs are idempotent overwrites).
	Registered RegisteredLister

	// TranscribeWorkers is the compute pool size, typically one per device.
	TranscribeWorkers int

	// IOWorkers is the network pool size (translate, upload, register).
	IOWorkers int

	// UploadEnabled false stops each episode after translation (dry run).
	UploadEnabled bool
}

// Orchestrator runs the per-episode stage pipeline over a bounded worker
// pool. It holds no state between runs; an external timer invokes Run.
type Orchestrator struct {
	cfg Config
}

// Report summarizes one run. Per-episode failures never abort the run.
type Report struct {
	RunID         string
	Discovered    int
	Registered    int
	Skipped       int
	Failed        int
	FailedByStage map[string]int
	Failures      []*StageError
	SourceErrors  []error
}

// StageError records which stage failed an episode.
type StageError struct {
	EpisodeID string
	Stage     string
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("episode %s: stage %s: %v", e.EpisodeID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// New validates the wiring and creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Discovery == nil {
		return nil, fmt.Errorf("discovery is required")
	}
	if cfg.Transcribe == nil {
		return nil, fmt.Errorf("transcriber is required")
	}
	if cfg.Translate == nil {
		return nil, fmt.Errorf("translator is required")
	}
	if cfg.UploadEnabled && cfg.Writer == nil {
		return nil, fmt.Errorf("bundle writer is required when upload is enabled")
	}
	if cfg.UploadEnabled && cfg.Registrar == nil {
		return nil, fmt.Errorf("registrar is required when upload is enabled")
	}
	if cfg.TranscribeWorkers <= 0 {
		cfg.TranscribeWorkers = 1
	}
	if cfg.IOWorkers <= 0 {
		cfg.IOWorkers = 4
	}
	return &Orchestrator{cfg: cfg}, nil
}

// transcribed carries an episode between the compute pool and the I/O pool.
type transcribed struct {
	episode  domain.Episode
	segments []domain.Segment
}

// episodeResult is one episode's terminal state for this run.
type episodeResult struct {
	episodeID string
	stage     string // empty on success
	skipped   bool
	err       error
}

// Run executes one full ingestion run and reports processed/failed counts.
// Cancellation between episodes is cooperative: workers stop picking up new
// episodes once ctx is done, and in-flight episodes degrade to Failed.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	report := Report{
		RunID:         uuid.NewString(),
		FailedByStage: make(map[string]int),
	}

	processed := o.registeredSet(ctx)

	episodes, sourceErrs := o.cfg.Discovery.Discover(ctx, o.cfg.Sources, processed)
	report.Discovered = len(episodes)
	report.SourceErrors = sourceErrs
	for _, err := range sourceErrs {
		log.Printf("Run %s: %v", report.RunID, err)
	}

	if len(episodes) == 0 {
		log.Printf("Run %s: no new episodes", report.RunID)
		return report, ctx.Err()
	}

	log.Printf("Run %s: processing %d episodes (%d transcribe workers, %d io workers)",
		report.RunID, len(episodes), o.cfg.TranscribeWorkers, o.cfg.IOWorkers)

	transcribeChan := make(chan domain.Episode, len(episodes))
	ioChan := make(chan transcribed, o.cfg.IOWorkers*2)
	results := make(chan episodeResult, len(episodes))

	// Start I/O workers first so transcribed episodes are drained promptly.
	var ioWg sync.WaitGroup
	o.startIOWorkers(ctx, &ioWg, ioChan, results)

	var transcribeWg sync.WaitGroup
	o.startTranscribeWorkers(ctx, &transcribeWg, transcribeChan, ioChan, results)

	for _, episode := range episodes {
		transcribeChan <- episode
	}
	close(transcribeChan)

	go func() {
		transcribeWg.Wait()
		close(ioChan)
	}()
	go func() {
		ioWg.Wait()
		close(results)
	}()

	for res := range results {
		switch {
		case res.err != nil:
			failure := &StageError{EpisodeID: res.episodeID, Stage: res.stage, Err: res.err}
			report.Failed++
			report.FailedByStage[res.stage]++
			report.Failures = append(report.Failures, failure)
			log.Printf("Run %s: %v", report.RunID, failure)
		case res.skipped:
			report.Skipped++
		default:
			report.Registered++
		}
	}

	log.Printf("Run %s: done: %d discovered, %d registered, %d skipped, %d failed",
		report.RunID, report.Discovered, report.Registered, report.Skipped, report.Failed)

	return report, ctx.Err()
}

func (o *Orchestrator) registeredSet(ctx context.Context) map[string]bool {
	if o.cfg.Registered == nil {
		return nil
	}
	processed, err := o.cfg.Registered.RegisteredIDs(ctx)
	if err != nil {
		// Dedup is an optimization; re-processing is an idempotent overwrite.
		log.Printf("Run: could not list registered episodes, proceeding without dedup: %v", err)
		return nil
	}
	return processed
}

func (o *Orchestrator) startTranscribeWorkers(ctx context.Context, wg *sync.WaitGroup, in <-chan domain.Episode, out chan<- transcribed, results chan<- episodeResult) {
	for i := 0; i < o.cfg.TranscribeWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for {
				select {
				case episode, ok := <-in:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						results <- episodeResult{episodeID: episode.ID, stage: domain.StageTranscribe, err: ctx.Err()}
						continue
					}

					log.Printf("Transcribe worker %d: episode %s (%s)", workerID, episode.ID, episode.Title)
					segments, err := o.cfg.Transcribe.Transcribe(ctx, episode.AudioURL, episode.Language)
					if err != nil {
						results <- episodeResult{episodeID: episode.ID, stage: domain.StageTranscribe, err: err}
						continue
					}

					select {
					case out <- transcribed{episode: episode, segments: segments}:
					case <-ctx.Done():
						results <- episodeResult{episodeID: episode.ID, stage: domain.StageTranscribe, err: ctx.Err()}
						return
					}

				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
}

func (o *Orchestrator) startIOWorkers(ctx context.Context, wg *sync.WaitGroup, in <-chan transcribed, results chan<- episodeResult) {
	for i := 0; i < o.cfg.IOWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for {
				select {
				case item, ok := <-in:
					if !ok {
						return
					}
					results <- o.finishEpisode(ctx, workerID, item)

				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
}

// finishEpisode runs the network-bound stages for one transcribed episode in
// strict order: translate, upload, register. The first failure is terminal
// for the episode this run; nothing partial is ever externally visible.
func (o *Orchestrator) finishEpisode(ctx context.Context, workerID int, item transcribed) episodeResult {
	episode := item.episode
	segments := item.segments

	log.Printf("IO worker %d: translating %d segments for episode %s", workerID, len(segments), episode.ID)
	translations, err := o.cfg.Translate.Translate(ctx, translate.ItemsFromSegments(segments))
	if err != nil {
		return episodeResult{episodeID: episode.ID, stage: domain.StageTranslate, err: err}
	}
	if err := translate.Attach(segments, translations); err != nil {
		return episodeResult{episodeID: episode.ID, stage: domain.StageTranslate, err: err}
	}

	if !o.cfg.UploadEnabled {
		log.Printf("IO worker %d: upload disabled, skipping episode %s after translation", workerID, episode.ID)
		return episodeResult{episodeID: episode.ID, skipped: true}
	}

	bundle := domain.SegmentBundle{EpisodeID: episode.ID, Segments: segments}
	stored, err := o.cfg.Writer.Write(ctx, bundle)
	if err != nil {
		return episodeResult{episodeID: episode.ID, stage: domain.StageUpload, err: err}
	}

	if err := o.cfg.Registrar.Register(ctx, episode, stored); err != nil {
		// The bundle is durable; the next run overwrites and re-registers.
		return episodeResult{episodeID: episode.ID, stage: domain.StageRegister, err: err}
	}

	log.Printf("IO worker %d: episode %s registered with key %s", workerID, episode.ID, stored.Key)
	return episodeResult{episodeID: episode.ID}
}
