// Package store holds the document stores that back the record gateway.
package store

import (
	"context"
	"errors"
)

// Document is a schemaless record as stored by the backing database
type Document map[string]any

// InsertResult is the acknowledgement of an insertOne
type InsertResult struct {
	Acknowledged bool `json:"acknowledged"`
	InsertedID   any  `json:"insertedId"`
}

// UpdateResult is the acknowledgement of an updateOne
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
	UpsertedCount int64 `json:"upsertedCount"`
	UpsertedID    any   `json:"upsertedId"`
}

// DeleteResult is the acknowledgement of a deleteOne
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// Store errors
var (
	ErrNotConfigured     = errors.New("document store is not configured")
	ErrUnsupportedFilter = errors.New("unsupported filter operator")
	ErrUnsupportedUpdate = errors.New("unsupported update operator")
	ErrImmutableID       = errors.New("the _id field cannot be modified")
	ErrInvalidCollection = errors.New("collection name is required")
)

// Store is the contract every backing document database fulfils
type Store interface {
	Find(ctx context.Context, collection string, filter Document) ([]Document, error)
	InsertOne(ctx context.Context, collection string, doc Document) (*InsertResult, error)
	UpdateOne(ctx context.Context, collection string, filter, update Document) (*UpdateResult, error)
	DeleteOne(ctx context.Context, collection string, filter Document) (*DeleteResult, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// clone returns a shallow copy of doc
func clone(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
