package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podcast-pipeline/pkg/config"
	"podcast-pipeline/pkg/feeds"
	"podcast-pipeline/pkg/httpclient"
	"podcast-pipeline/pkg/pipeline"
	"podcast-pipeline/pkg/registrar"
	"podcast-pipeline/pkg/store"
	"podcast-pipeline/pkg/transcribe"
	"podcast-pipeline/pkg/translate"
)

func main() {
	sourcesFile := flag.String("sources", "", "path to the sources JSON file (overrides SOURCES_FILE)")
	lookbackDays := flag.Int("lookback", 0, "only process episodes published in the last N days (overrides LOOKBACK_DAYS)")
	dryRun := flag.Bool("dry-run", false, "transcribe and translate but skip upload and registration")
	timeout := flag.Duration("timeout", 2*time.Hour, "overall run deadline")
	flag.Parse()

	cfg := config.Load()
	if *sourcesFile != "" {
		cfg.SourcesFile = *sourcesFile
	}
	if *lookbackDays > 0 {
		cfg.LookbackDays = *lookbackDays
	}
	if *dryRun {
		cfg.UploadEnabled = false
	}

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		log.Fatalf("Error loading sources: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	transcriber, err := transcribe.Factory(ctx, transcribe.Provider(cfg.Transcribe.Provider), cfg.Transcribe.APIKey, transcribe.Options{
		Model:     cfg.Transcribe.Model,
		BatchSize: cfg.Transcribe.BatchSize,
		Precision: cfg.Transcribe.Precision,
		Devices:   cfg.Transcribe.Devices,
	})
	if err != nil {
		log.Fatalf("Error creating transcriber: %v", err)
	}

	translator, err := translate.Factory(ctx, translate.Provider(cfg.Translate.Provider), cfg.Translate.APIKey, translate.Options{
		TargetLanguage: cfg.Translate.TargetLanguage,
		Model:          cfg.Translate.Model,
		BatchSize:      cfg.Translate.BatchSize,
		MaxAttempts:    cfg.Translate.MaxAttempts,
	})
	if err != nil {
		log.Fatalf("Error creating translator: %v", err)
	}

	client := httpclient.NewClient(httpclient.BrowserClient)
	reg := registrar.New(cfg.BackendBaseURL, client)

	pipelineCfg := pipeline.Config{
		Sources:           sources,
		Discovery:         feeds.NewDiscovery(client, cfg.LookbackDays),
		Transcribe:        transcriber,
		Translate:         translator,
		Registered:        reg,
		TranscribeWorkers: cfg.Transcribe.Devices,
		IOWorkers:         cfg.IOWorkers,
		UploadEnabled:     cfg.UploadEnabled,
	}

	if cfg.UploadEnabled {
		objectStore, err := store.NewSupabaseStore(store.SupabaseConfig{
			URL:          cfg.Storage.URL,
			ServiceKey:   cfg.Storage.ServiceKey,
			Bucket:       cfg.Storage.Bucket,
			CustomDomain: cfg.Storage.CustomDomain,
		})
		if err != nil {
			log.Fatalf("Error creating object store: %v", err)
		}
		pipelineCfg.Writer = store.NewWriter(objectStore)
		pipelineCfg.Registrar = reg
	} else {
		log.Println("Upload disabled, running through translation only")
	}

	orchestrator, err := pipeline.New(pipelineCfg)
	if err != nil {
		log.Fatalf("Error building pipeline: %v", err)
	}

	report, err := orchestrator.Run(ctx)
	if err != nil {
		log.Fatalf("Run %s aborted: %v", report.RunID, err)
	}
	if report.Failed > 0 {
		os.Exit(1)
	}
}
