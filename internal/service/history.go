package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"medrisk.app/console/common/logger"
	"medrisk.app/console/internal/model"
	"medrisk.app/console/internal/queue"
	"medrisk.app/console/internal/store"
)

// HistoryService reads and clears a subject's history log.
type HistoryService interface {
	Snapshot(ctx context.Context, subjectID string) (model.HistorySnapshot, error)

	// ClearAll deletes every entry visible at the start of the operation
	// and returns how many were removed. The read and the delete are two
	// separate steps: entries appended in between survive and show up in
	// the next snapshot. A failed delete surfaces as a PersistenceError
	// and may leave the log partially cleared.
	ClearAll(ctx context.Context, subjectID string) (int, error)
}

type historyService struct {
	history  store.HistoryStore
	producer queue.Producer
}

func NewHistoryService(history store.HistoryStore, producer queue.Producer) HistoryService {
	return &historyService{
		history:  history,
		producer: producer,
	}
}

func (s *historyService) Snapshot(ctx context.Context, subjectID string) (model.HistorySnapshot, error) {
	return s.history.ListBySubject(ctx, subjectID)
}

func (s *historyService) ClearAll(ctx context.Context, subjectID string) (int, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SubjectID: logger.Ptr(subjectID),
		Component: "console.service.history",
	})

	ids, err := s.history.ListIDsBySubject(ctx, subjectID)
	if err != nil {
		return 0, &model.PersistenceError{Op: "clear", Err: err}
	}

	if err := s.history.DeleteByIDs(ctx, subjectID, ids); err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "history cleared", "deleted", len(ids))

	msg := queue.ChangeMessage{SubjectID: subjectID, Kind: queue.ChangeClear}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		msg.TraceID = logger.Ptr(spanCtx.TraceID().String())
	}
	if err := s.producer.Publish(ctx, msg); err != nil {
		slog.WarnContext(ctx, "publishing history change failed", "error", err)
	}

	return len(ids), nil
}
