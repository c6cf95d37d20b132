package gateway

import (
	"context"
	"errors"
	"time"

	"emaihl-library/internal/adapters/persistence/store"
	"emaihl-library/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Service executes gateway requests against a local document store
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates an in-process gateway
func NewService(s store.Store, logger *zap.Logger) *Service {
	return &Service{
		store:  s,
		logger: logger,
	}
}

// Execute validates req and forwards it verbatim to the store. No retries are performed.
func (s *Service) Execute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := s.execute(ctx, req)
	metrics.RecordGatewayOp(string(req.Action), req.Collection, err, time.Since(start))

	if err != nil && !errors.Is(err, ErrUnknownAction) {
		s.logger.Error("❌ Record gateway error",
			zap.String("action", string(req.Action)),
			zap.String("collection", req.Collection),
			zap.Error(err),
		)
	}
	return res, err
}

func (s *Service) execute(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch req.Action {
	case ActionFind:
		docs, err := s.store.Find(ctx, req.Collection, req.Body.Filter)
		if err != nil {
			return nil, err
		}
		if docs == nil {
			docs = []store.Document{}
		}
		return &Result{
			Documents: docs,
			payload:   map[string]any{"documents": docs},
		}, nil

	case ActionInsertOne:
		ack, err := s.store.InsertOne(ctx, req.Collection, req.Body.Document)
		if err != nil {
			return nil, err
		}
		return &Result{
			Acknowledged: ack.Acknowledged,
			InsertedID:   ack.InsertedID,
			payload:      ack,
		}, nil

	case ActionUpdateOne:
		ack, err := s.store.UpdateOne(ctx, req.Collection, req.Body.Filter, req.Body.Update)
		if err != nil {
			return nil, err
		}
		return &Result{
			Acknowledged:  ack.Acknowledged,
			MatchedCount:  ack.MatchedCount,
			ModifiedCount: ack.ModifiedCount,
			UpsertedCount: ack.UpsertedCount,
			UpsertedID:    ack.UpsertedID,
			payload:       ack,
		}, nil

	default: // ActionDeleteOne
		ack, err := s.store.DeleteOne(ctx, req.Collection, req.Body.Filter)
		if err != nil {
			return nil, err
		}
		return &Result{
			Acknowledged: ack.Acknowledged,
			DeletedCount: ack.DeletedCount,
			payload:      ack,
		}, nil
	}
}

// Ping checks the backing store
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
