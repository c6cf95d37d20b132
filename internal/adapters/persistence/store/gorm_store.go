package store

import (
	"context"
	"encoding/json"
	"fmt"

	"emaihl-library/internal/adapters/persistence/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore keeps documents as JSON rows in a relational database.
// Filtering happens in-process with Matches, which is fine for a single library's collections.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on top of an open GORM connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Find returns every document in collection matching filter, in insertion order
func (s *GormStore) Find(ctx context.Context, collection string, filter Document) ([]Document, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}

	records, err := s.load(s.db.WithContext(ctx), collection)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		doc, err := decodeRecord(rec)
		if err != nil {
			return nil, err
		}
		ok, err := Matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// InsertOne stores doc, assigning an _id when it has none
func (s *GormStore) InsertOne(ctx context.Context, collection string, doc Document) (*InsertResult, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}

	stored := clone(doc)
	if _, ok := stored["_id"]; !ok {
		stored["_id"] = uuid.NewString()
	}

	body, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	rec := &models.DocumentRecord{
		Collection: collection,
		DocID:      fmt.Sprint(stored["_id"]),
		Body:       string(body),
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}

	return &InsertResult{Acknowledged: true, InsertedID: stored["_id"]}, nil
}

// UpdateOne applies update to the first document matching filter
func (s *GormStore) UpdateOne(ctx context.Context, collection string, filter, update Document) (*UpdateResult, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}

	result := &UpdateResult{Acknowledged: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, doc, err := s.first(tx, collection, filter)
		if err != nil || rec == nil {
			return err
		}
		result.MatchedCount = 1

		updated, err := ApplyUpdate(doc, update)
		if err != nil {
			return err
		}
		if equal(doc, updated) {
			return nil
		}

		body, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		if err := tx.Model(rec).Update("body", string(body)).Error; err != nil {
			return err
		}
		result.ModifiedCount = 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteOne removes the first document matching filter
func (s *GormStore) DeleteOne(ctx context.Context, collection string, filter Document) (*DeleteResult, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}

	result := &DeleteResult{Acknowledged: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, _, err := s.first(tx, collection, filter)
		if err != nil || rec == nil {
			return err
		}
		if err := tx.Delete(rec).Error; err != nil {
			return err
		}
		result.DeletedCount = 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Ping checks the underlying connection
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection
func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) load(tx *gorm.DB, collection string) ([]*models.DocumentRecord, error) {
	var records []*models.DocumentRecord
	err := tx.Where("collection = ?", collection).Order("id ASC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStore) first(tx *gorm.DB, collection string, filter Document) (*models.DocumentRecord, Document, error) {
	records, err := s.load(tx, collection)
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range records {
		doc, err := decodeRecord(rec)
		if err != nil {
			return nil, nil, err
		}
		ok, err := Matches(doc, filter)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			return rec, doc, nil
		}
	}
	return nil, nil, nil
}

func decodeRecord(rec *models.DocumentRecord) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(rec.Body), &doc); err != nil {
		return nil, fmt.Errorf("corrupt document %s/%s: %w", rec.Collection, rec.DocID, err)
	}
	return doc, nil
}
