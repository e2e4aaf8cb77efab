package service

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"medrisk.app/console/common/id"
	"medrisk.app/console/common/logger"
	"medrisk.app/console/internal/model"
	"medrisk.app/console/internal/predictor"
	"medrisk.app/console/internal/queue"
	"medrisk.app/console/internal/store"
)

// SubmissionParams carries one fully-populated submission. Validation
// happens at the HTTP boundary; this service assumes every required field
// of the vector is set.
type SubmissionParams struct {
	SubjectID string
	Category  string
	Vector    model.FeatureVector
}

// SubmissionService coordinates the two backend calls for one submission
// and reconciles their independent outcomes.
type SubmissionService interface {
	// Submit fires the classification and explanation calls concurrently,
	// waits for both to settle, and persists a history entry iff the
	// classification succeeded. It never returns an error: all failure
	// information is inside the result.
	Submit(ctx context.Context, params SubmissionParams) model.SubmissionResult
}

type submissionService struct {
	predictor predictor.Client
	history   store.HistoryStore
	producer  queue.Producer
}

func NewSubmissionService(p predictor.Client, history store.HistoryStore, producer queue.Producer) SubmissionService {
	return &submissionService{
		predictor: p,
		history:   history,
		producer:  producer,
	}
}

func (s *submissionService) Submit(ctx context.Context, params SubmissionParams) model.SubmissionResult {
	submissionID := id.New()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SubjectID:    logger.Ptr(params.SubjectID),
		Category:     logger.Ptr(params.Category),
		SubmissionID: logger.Ptr(submissionID),
		Component:    "console.service.submission",
	})

	result := model.SubmissionResult{SubmissionID: submissionID}

	// Both calls in flight at once; neither waits on, cancels, or
	// inspects the other. Settled only when both have resolved.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cls, err := s.predictor.Predict(ctx, params.Category, params.Vector)
		result.Classification = model.PredictionOutcome{Result: cls, Err: err}
	}()
	go func() {
		defer wg.Done()
		exp, err := s.predictor.Explain(ctx, params.Category, params.Vector)
		result.Explanation = model.ExplanationOutcome{Result: exp, Err: err}
	}()
	wg.Wait()

	// Persist iff classification succeeded. The explanation outcome has
	// no say in persistence, in either direction.
	if result.Classification.OK() {
		entry := &model.HistoryEntry{
			ID:          id.New(),
			SubjectID:   params.SubjectID,
			Category:    params.Category,
			Label:       result.Classification.Result.Label,
			Probability: result.Classification.Result.Probability,
			RawInput:    params.Vector.Clone(),
		}
		if err := s.history.Append(ctx, entry); err != nil {
			// Side channel only: the submitter's result judgment is
			// already made and stays as-is.
			slog.ErrorContext(ctx, "history append failed", "error", err)
		} else {
			result.EntryID = &entry.ID
			s.publish(ctx, queue.ChangeMessage{
				SubjectID: params.SubjectID,
				Kind:      queue.ChangeAppend,
				EntryID:   &entry.ID,
			})
		}
	}

	slog.InfoContext(ctx, "submission settled",
		"classification_ok", result.Classification.OK(),
		"explanation_ok", result.Explanation.OK(),
		"persisted", result.EntryID != nil)

	return result
}

func (s *submissionService) publish(ctx context.Context, msg queue.ChangeMessage) {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		msg.TraceID = logger.Ptr(spanCtx.TraceID().String())
	}
	if err := s.producer.Publish(ctx, msg); err != nil {
		// Subscribers miss one refresh; the next change catches them up.
		slog.WarnContext(ctx, "publishing history change failed", "error", err)
	}
}
