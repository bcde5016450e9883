package registry

import (
	"context"
	"fmt"

	"podcast-pipeline/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on a MongoDB collection, one document per
// episode keyed by episode ID.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore creates a Mongo-backed registry store. Call Connect before use.
func NewMongoStore(connectionString, databaseName, collectionName string) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(connectionString)
	client, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(databaseName).Collection(collectionName),
	}, nil
}

// Connect verifies the connection.
func (s *MongoStore) Connect(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return s.client.Ping(ctx, nil)
}

// Close closes the connection.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// Upsert inserts or replaces the record for its episode ID.
func (s *MongoStore) Upsert(ctx context.Context, record *domain.PodcastRecord) error {
	if s.collection == nil {
		return fmt.Errorf("collection not initialized")
	}

	filter := bson.M{"episode.id": record.Episode.ID}
	update := bson.M{"$set": record}
	opts := options.Update().SetUpsert(true)

	_, err := s.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// Get fetches the record for an episode ID.
func (s *MongoStore) Get(ctx context.Context, episodeID string) (*domain.PodcastRecord, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	var record domain.PodcastRecord
	err := s.collection.FindOne(ctx, bson.M{"episode.id": episodeID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	return &record, nil
}

// ListIDs returns all registered episode IDs, fetching only the ID field.
func (s *MongoStore) ListIDs(ctx context.Context) ([]string, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"episode.id": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query IDs: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var result struct {
			Episode struct {
				ID string `bson:"id"`
			} `bson:"episode"`
		}
		if err := cursor.Decode(&result); err != nil {
			continue // Skip invalid documents
		}
		if result.Episode.ID != "" {
			ids = append(ids, result.Episode.ID)
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return ids, nil
}
