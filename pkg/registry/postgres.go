package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"podcast-pipeline/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresConfig holds connection settings for the Postgres-backed registry.
type PostgresConfig struct {
	// ConnectionString is a standard Postgres URL.
	ConnectionString string

	// Optional tuning knobs for the connection pool.
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxIdle  time.Duration
	ConnMaxLife  time.Duration
}

// PostgresStore implements Store on a podcast_record table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the database and ensures the schema exists.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("postgres connection string is required")
	}

	db, err := sql.Open("pgx", cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdle > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdle)
	}
	if cfg.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLife)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS podcast_record (
	id               TEXT PRIMARY KEY,
	provider         TEXT NOT NULL,
	channel          TEXT NOT NULL,
	audio_url        TEXT NOT NULL,
	title            TEXT NOT NULL DEFAULT '',
	subtitle         TEXT NOT NULL DEFAULT '',
	published_at     TIMESTAMPTZ,
	language         TEXT NOT NULL DEFAULT '',
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	segments_key     TEXT NOT NULL,
	segments_locator TEXT NOT NULL,
	registered_at    TIMESTAMPTZ NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure podcast_record schema: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *PostgresStore) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert inserts or replaces the record for its episode ID.
func (s *PostgresStore) Upsert(ctx context.Context, record *domain.PodcastRecord) error {
	const query = `
INSERT INTO podcast_record (
	id, provider, channel, audio_url, title, subtitle, published_at,
	language, duration_seconds, segments_key, segments_locator, registered_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
	provider = EXCLUDED.provider,
	channel = EXCLUDED.channel,
	audio_url = EXCLUDED.audio_url,
	title = EXCLUDED.title,
	subtitle = EXCLUDED.subtitle,
	published_at = EXCLUDED.published_at,
	language = EXCLUDED.language,
	duration_seconds = EXCLUDED.duration_seconds,
	segments_key = EXCLUDED.segments_key,
	segments_locator = EXCLUDED.segments_locator,
	registered_at = EXCLUDED.registered_at`

	ep := record.Episode
	_, err := s.db.ExecContext(ctx, query,
		ep.ID, ep.Provider, ep.Channel, ep.AudioURL, ep.Title, ep.Subtitle,
		ep.PublishedAt, ep.Language, ep.DurationSeconds,
		record.Stored.Key, record.Stored.Locator, record.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", ep.ID, err)
	}
	return nil
}

// Get fetches the record for an episode ID.
func (s *PostgresStore) Get(ctx context.Context, episodeID string) (*domain.PodcastRecord, error) {
	const query = `
SELECT id, provider, channel, audio_url, title, subtitle, published_at,
	language, duration_seconds, segments_key, segments_locator, registered_at
FROM podcast_record WHERE id = $1`

	var record domain.PodcastRecord
	var publishedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, episodeID).Scan(
		&record.Episode.ID, &record.Episode.Provider, &record.Episode.Channel,
		&record.Episode.AudioURL, &record.Episode.Title, &record.Episode.Subtitle,
		&publishedAt, &record.Episode.Language, &record.Episode.DurationSeconds,
		&record.Stored.Key, &record.Stored.Locator, &record.RegisteredAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query record %s: %w", episodeID, err)
	}

	if publishedAt.Valid {
		record.Episode.PublishedAt = publishedAt.Time
	}
	return &record, nil
}

// ListIDs returns all registered episode IDs.
func (s *PostgresStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM podcast_record`)
	if err != nil {
		return nil, fmt.Errorf("query record ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return ids, nil
}
