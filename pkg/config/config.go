package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"podcast-pipeline/pkg/domain"

	"github.com/joho/godotenv"
)

// StorageConfig holds object-store credentials. All fields except
// CustomDomain and Region are required for uploads and signing; when URL or
// ServiceKey are empty the signer reports itself as not configured instead
// of failing each request.
type StorageConfig struct {
	URL          string
	ServiceKey   string
	Bucket       string
	Region       string
	CustomDomain string
}

// TranscribeConfig selects the speech-recognition provider and its tuning
// knobs. BatchSize, Precision and Devices are performance knobs only; they
// never change the output contract.
type TranscribeConfig struct {
	Provider  string
	APIKey    string
	Model     string
	BatchSize int
	Precision string
	Devices   int
}

// TranslateConfig selects the translation provider.
type TranslateConfig struct {
	Provider       string
	APIKey         string
	Model          string
	TargetLanguage string
	BatchSize      int
	MaxAttempts    int
}

// RegistryConfig selects the backend registry store for the API server.
type RegistryConfig struct {
	Backend         string // "postgres" or "mongo"
	DatabaseURL     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Config is the full configuration surface consumed by the pipeline and the
// API server. It is loaded once at startup and read-only afterwards.
type Config struct {
	Storage    StorageConfig
	Transcribe TranscribeConfig
	Translate  TranslateConfig
	Registry   RegistryConfig

	// BackendBaseURL is where the pipeline registers processed episodes.
	BackendBaseURL string

	// SourcesFile is a JSON file holding the static source list.
	SourcesFile string

	LookbackDays  int
	UploadEnabled bool
	IOWorkers     int

	Port           string
	AllowedOrigins string
}

// Load reads configuration from the environment. A .env file is loaded in
// dev only; production injects env vars through infra.
func Load() Config {
	if os.Getenv("APP_ENV") != "production" {
		godotenv.Load()
	}

	return Config{
		Storage: StorageConfig{
			URL:          os.Getenv("STORAGE_URL"),
			ServiceKey:   os.Getenv("STORAGE_SERVICE_KEY"),
			Bucket:       getenv("STORAGE_BUCKET", "podcasts"),
			Region:       os.Getenv("STORAGE_REGION"),
			CustomDomain: os.Getenv("STORAGE_CUSTOM_DOMAIN"),
		},
		Transcribe: TranscribeConfig{
			Provider:  getenv("TRANSCRIBE_PROVIDER", "openai"),
			APIKey:    os.Getenv("TRANSCRIBE_API_KEY"),
			Model:     os.Getenv("TRANSCRIBE_MODEL"),
			BatchSize: getint("TRANSCRIBE_BATCH_SIZE", 16),
			Precision: getenv("TRANSCRIBE_PRECISION", "float16"),
			Devices:   getint("TRANSCRIBE_DEVICES", 1),
		},
		Translate: TranslateConfig{
			Provider:       getenv("TRANSLATE_PROVIDER", "openai"),
			APIKey:         os.Getenv("TRANSLATE_API_KEY"),
			Model:          os.Getenv("TRANSLATE_MODEL"),
			TargetLanguage: getenv("TRANSLATE_TARGET_LANGUAGE", "Chinese"),
			BatchSize:      getint("TRANSLATE_BATCH_SIZE", 50),
			MaxAttempts:    getint("TRANSLATE_MAX_ATTEMPTS", 3),
		},
		Registry: RegistryConfig{
			Backend:         getenv("REGISTRY_BACKEND", "postgres"),
			DatabaseURL:     os.Getenv("DATABASE_URL"),
			MongoURI:        os.Getenv("MONGO_URI"),
			MongoDatabase:   getenv("MONGO_DB", "podcasts"),
			MongoCollection: getenv("MONGO_COLLECTION", "records"),
		},
		BackendBaseURL: getenv("BACKEND_BASE_URL", "http://localhost:8080"),
		SourcesFile:    getenv("SOURCES_FILE", "sources.json"),
		LookbackDays:   getint("LOOKBACK_DAYS", 7),
		UploadEnabled:  getbool("UPLOAD_ENABLED", true),
		IOWorkers:      getint("IO_WORKERS", 4),
		Port:           getenv("PORT", "8080"),
		AllowedOrigins: getenv("ALLOWED_ORIGINS", "http://localhost:5173"),
	}
}

// LoadSources reads the static source list from a JSON file.
func LoadSources(path string) ([]domain.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var sources []domain.Source
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("sources file %s contains no sources", path)
	}

	return sources, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getbool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
