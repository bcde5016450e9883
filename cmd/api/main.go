package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"podcast-pipeline/pkg/config"
	"podcast-pipeline/pkg/registry"
	"podcast-pipeline/pkg/server"
	"podcast-pipeline/pkg/store"

	"github.com/gorilla/handlers"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	reg, err := newRegistry(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Error connecting to registry: %v", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := reg.Close(closeCtx); err != nil {
			log.Printf("Error closing registry: %v", err)
		}
	}()

	signer := newSigner(cfg)

	srv := server.New(reg, signer)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins(splitOrigins(cfg.AllowedOrigins)),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(srv.Router()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func newRegistry(ctx context.Context, cfg config.Config) (registry.Store, error) {
	switch cfg.Registry.Backend {
	case "mongo":
		mongoStore, err := registry.NewMongoStore(cfg.Registry.MongoURI, cfg.Registry.MongoDatabase, cfg.Registry.MongoCollection)
		if err != nil {
			return nil, err
		}
		if err := mongoStore.Connect(ctx); err != nil {
			return nil, err
		}
		return mongoStore, nil
	default:
		return registry.NewPostgresStore(ctx, registry.PostgresConfig{
			ConnectionString: cfg.Registry.DatabaseURL,
		})
	}
}

// newSigner returns a signer even without storage credentials; it then
// answers every request with a not-configured error so the registry
// endpoints stay usable.
func newSigner(cfg config.Config) *store.Signer {
	if cfg.Storage.URL == "" || cfg.Storage.ServiceKey == "" {
		log.Println("Storage credentials absent, signed URLs disabled")
		return store.NewSigner(nil)
	}

	objectStore, err := store.NewSupabaseStore(store.SupabaseConfig{
		URL:          cfg.Storage.URL,
		ServiceKey:   cfg.Storage.ServiceKey,
		Bucket:       cfg.Storage.Bucket,
		CustomDomain: cfg.Storage.CustomDomain,
	})
	if err != nil {
		log.Printf("Error creating object store, signed URLs disabled: %v", err)
		return store.NewSigner(nil)
	}
	return store.NewSigner(objectStore)
}

func splitOrigins(origins string) []string {
	if origins == "" {
		return []string{"*"}
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
