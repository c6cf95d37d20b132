package store

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// MongoStore forwards every operation to a MongoDB database.
// The client is connected on first use and cached; a failed connect is retried on the next call.
type MongoStore struct {
	uri    string
	dbName string
	logger *zap.Logger

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore creates a lazily connected MongoDB store
func NewMongoStore(uri, dbName string, logger *zap.Logger) *MongoStore {
	return &MongoStore{
		uri:    uri,
		dbName: dbName,
		logger: logger,
	}
}

func (s *MongoStore) database(ctx context.Context) (*mongo.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}
	if s.uri == "" {
		return nil, ErrNotConfigured
	}

	opts := options.Client().
		ApplyURI(s.uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	s.client = client
	s.db = client.Database(s.dbName)
	s.logger.Info("✅ MongoDB client connected", zap.String("database", s.dbName))
	return s.db, nil
}

// Find returns every document matching filter
func (s *MongoStore) Find(ctx context.Context, collection string, filter Document) ([]Document, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}
	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := db.Collection(collection).Find(ctx, toBSON(filter))
	if err != nil {
		return nil, err
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, Document(m))
	}
	return docs, nil
}

// InsertOne inserts doc
func (s *MongoStore) InsertOne(ctx context.Context, collection string, doc Document) (*InsertResult, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}
	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}

	res, err := db.Collection(collection).InsertOne(ctx, bson.M(doc))
	if err != nil {
		return nil, err
	}
	return &InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

// UpdateOne applies update to the first document matching filter
func (s *MongoStore) UpdateOne(ctx context.Context, collection string, filter, update Document) (*UpdateResult, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}
	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}

	res, err := db.Collection(collection).UpdateOne(ctx, toBSON(filter), bson.M(update))
	if err != nil {
		return nil, err
	}
	return &UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}, nil
}

// DeleteOne removes the first document matching filter
func (s *MongoStore) DeleteOne(ctx context.Context, collection string, filter Document) (*DeleteResult, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}
	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}

	res, err := db.Collection(collection).DeleteOne(ctx, toBSON(filter))
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// Ping checks the primary is reachable
func (s *MongoStore) Ping(ctx context.Context) error {
	db, err := s.database(ctx)
	if err != nil {
		return err
	}
	return db.Client().Ping(ctx, readpref.Primary())
}

// Close disconnects the cached client, if any
func (s *MongoStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client = nil
	s.db = nil
	return err
}

func toBSON(filter Document) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return bson.M(filter)
}
