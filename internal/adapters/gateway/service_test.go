package gateway

import (
	"context"
	"errors"
	"testing"

	"emaihl-library/internal/adapters/persistence/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() *Service {
	return NewService(store.NewMemoryStore(), zap.NewNop())
}

func TestService_InsertFindUpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	ins, err := svc.Execute(ctx, Request{
		Action:     ActionInsertOne,
		Collection: "loans",
		Body:       Body{Document: store.Document{"id": "L-1", "status": "Active"}},
	})
	require.NoError(t, err)
	assert.True(t, ins.Acknowledged)
	assert.IsType(t, &store.InsertResult{}, ins.Payload())

	found, err := svc.Execute(ctx, Request{Action: ActionFind, Collection: "loans"})
	require.NoError(t, err)
	require.Len(t, found.Documents, 1)
	assert.Equal(t, map[string]any{"documents": found.Documents}, found.Payload())

	upd, err := svc.Execute(ctx, Request{
		Action:     ActionUpdateOne,
		Collection: "loans",
		Body: Body{
			Filter: store.Document{"id": "L-1"},
			Update: store.Document{"$set": map[string]any{"status": "Returned"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.ModifiedCount)

	del, err := svc.Execute(ctx, Request{
		Action:     ActionDeleteOne,
		Collection: "loans",
		Body:       Body{Filter: store.Document{"id": "L-1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.DeletedCount)
}

func TestService_FindOnEmptyCollection(t *testing.T) {
	res, err := newTestService().Execute(context.Background(), Request{Action: ActionFind, Collection: "books"})
	require.NoError(t, err)
	assert.NotNil(t, res.Documents)
	assert.Empty(t, res.Documents)
}

func TestService_RejectsUnknownAction(t *testing.T) {
	_, err := newTestService().Execute(context.Background(), Request{Action: "drop", Collection: "books"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestService_RejectsMalformedRequests(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"missing collection", Request{Action: ActionFind}},
		{"insert without document", Request{Action: ActionInsertOne, Collection: "books"}},
		{"update without update", Request{Action: ActionUpdateOne, Collection: "books", Body: Body{Filter: store.Document{}}}},
		{"delete without filter", Request{Action: ActionDeleteOne, Collection: "books"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService().Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrMalformedRequest)
			assert.False(t, errors.Is(err, ErrUnknownAction))
		})
	}
}

type failingStore struct {
	store.MemoryStore
}

func (f *failingStore) Find(context.Context, string, store.Document) ([]store.Document, error) {
	return nil, errors.New("connection refused")
}

func TestService_PropagatesStoreErrors(t *testing.T) {
	svc := NewService(&failingStore{}, zap.NewNop())
	_, err := svc.Execute(context.Background(), Request{Action: ActionFind, Collection: "books"})
	assert.EqualError(t, err, "connection refused")
}
