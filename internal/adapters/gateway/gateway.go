// Package gateway implements the record gateway: one generic operation envelope
// (action, collection, body) forwarded to the backing document store.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"emaihl-library/internal/adapters/persistence/store"
)

// Action is a gateway operation name
type Action string

const (
	ActionFind      Action = "find"
	ActionInsertOne Action = "insertOne"
	ActionUpdateOne Action = "updateOne"
	ActionDeleteOne Action = "deleteOne"
)

// Valid reports whether a is one of the four supported actions
func (a Action) Valid() bool {
	switch a {
	case ActionFind, ActionInsertOne, ActionUpdateOne, ActionDeleteOne:
		return true
	}
	return false
}

// Gateway errors
var (
	ErrUnknownAction    = errors.New("invalid action")
	ErrMalformedRequest = errors.New("malformed gateway request")
)

// Body carries the operation-specific payload
type Body struct {
	Filter   store.Document `json:"filter,omitempty"`
	Document store.Document `json:"document,omitempty"`
	Update   store.Document `json:"update,omitempty"`
}

// Request is the gateway envelope
type Request struct {
	Action     Action `json:"action"`
	Collection string `json:"collection"`
	Body       Body   `json:"body"`
}

// Validate checks the envelope carries what its action needs
func (r Request) Validate() error {
	if !r.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
	if r.Collection == "" {
		return fmt.Errorf("%w: collection is required", ErrMalformedRequest)
	}

	switch r.Action {
	case ActionInsertOne:
		if r.Body.Document == nil {
			return fmt.Errorf("%w: insertOne requires body.document", ErrMalformedRequest)
		}
	case ActionUpdateOne:
		if r.Body.Filter == nil || r.Body.Update == nil {
			return fmt.Errorf("%w: updateOne requires body.filter and body.update", ErrMalformedRequest)
		}
	case ActionDeleteOne:
		if r.Body.Filter == nil {
			return fmt.Errorf("%w: deleteOne requires body.filter", ErrMalformedRequest)
		}
	}
	return nil
}

// Result is the decoded gateway response.
// Documents is set for find; the acknowledgement fields for writes.
type Result struct {
	Documents     []store.Document `json:"documents,omitempty"`
	Acknowledged  bool             `json:"acknowledged,omitempty"`
	InsertedID    any              `json:"insertedId,omitempty"`
	MatchedCount  int64            `json:"matchedCount,omitempty"`
	ModifiedCount int64            `json:"modifiedCount,omitempty"`
	UpsertedCount int64            `json:"upsertedCount,omitempty"`
	UpsertedID    any              `json:"upsertedId,omitempty"`
	DeletedCount  int64            `json:"deletedCount,omitempty"`

	// payload is the exact object written back on the wire
	payload any
}

// Payload returns the wire object: {documents} for reads, the store acknowledgement for writes
func (r *Result) Payload() any {
	if r.payload != nil {
		return r.payload
	}
	return r
}

// Executor runs gateway requests; implemented in-process by Service and remotely by Client
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

// APIError is returned by Client when the remote gateway answers with a non-2xx status
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API_ERROR: %d", e.Status)
	}
	return fmt.Sprintf("API_ERROR: %d: %s", e.Status, e.Message)
}
