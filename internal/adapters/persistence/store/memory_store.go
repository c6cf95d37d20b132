package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a process-local document store used in development and tests
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Document
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Document)}
}

// Find returns copies of every document in collection matching filter
func (s *MemoryStore) Find(_ context.Context, collection string, filter Document) ([]Document, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0)
	for _, doc := range s.collections[collection] {
		ok, err := Matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, clone(doc))
		}
	}
	return docs, nil
}

// InsertOne appends doc, assigning an _id when it has none
func (s *MemoryStore) InsertOne(_ context.Context, collection string, doc Document) (*InsertResult, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}

	stored := clone(doc)
	if _, ok := stored["_id"]; !ok {
		stored["_id"] = uuid.NewString()
	}

	s.mu.Lock()
	s.collections[collection] = append(s.collections[collection], stored)
	s.mu.Unlock()

	return &InsertResult{Acknowledged: true, InsertedID: stored["_id"]}, nil
}

// UpdateOne applies update to the first document matching filter
func (s *MemoryStore) UpdateOne(_ context.Context, collection string, filter, update Document) (*UpdateResult, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, doc := range docs {
		ok, err := Matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		updated, err := ApplyUpdate(doc, update)
		if err != nil {
			return nil, err
		}
		var modified int64
		if !equal(doc, updated) {
			modified = 1
		}
		docs[i] = updated
		return &UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: modified}, nil
	}

	return &UpdateResult{Acknowledged: true}, nil
}

// DeleteOne removes the first document matching filter
func (s *MemoryStore) DeleteOne(_ context.Context, collection string, filter Document) (*DeleteResult, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, doc := range docs {
		ok, err := Matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return &DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
		}
	}

	return &DeleteResult{Acknowledged: true}, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close(context.Context) error {
	return nil
}
