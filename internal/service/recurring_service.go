package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/verification-service/internal/domain"
	"github.com/spec-kit/verification-service/internal/events"
	"github.com/spec-kit/verification-service/internal/lifecycle"
	"github.com/spec-kit/verification-service/internal/repository"
	apperrors "github.com/spec-kit/verification-service/pkg/util"
)

// RecurringService tracks the occurrence plan of recurring requests:
// starting the cycle after completion, resolving individual occurrences,
// and closing the cycle when every occurrence has completed.
type RecurringService struct {
	occurrences repository.OccurrenceRepository
	requests    *RequestService
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// NewRecurringService constructs the service.
func NewRecurringService(occurrences repository.OccurrenceRepository, requests *RequestService, dispatcher events.Dispatcher, logger *zap.Logger) *RecurringService {
	return &RecurringService{
		occurrences: occurrences,
		requests:    requests,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// RecurringProgress summarizes completion state of a recurrence plan.
type RecurringProgress struct {
	TotalOccurrences     int
	CompletedCount       int
	PendingCount         int
	CompletionPercentage float64
	NextScheduledDate    *time.Time
	IsComplete           bool
}

// StartRecurring activates the recurring cycle of a completed request.
func (s *RecurringService) StartRecurring(ctx context.Context, actor ActionActor, requestID string) (*domain.Request, error) {
	return s.requests.ExecuteAction(ctx, actor, requestID, lifecycle.ActionStartRecurring, ActionInput{})
}

// PauseRecurring pauses an active recurring cycle.
func (s *RecurringService) PauseRecurring(ctx context.Context, actor ActionActor, requestID string) (*domain.Request, error) {
	return s.requests.ExecuteAction(ctx, actor, requestID, lifecycle.ActionPauseRecurring, ActionInput{})
}

// ResumeRecurring resumes a paused recurring cycle.
func (s *RecurringService) ResumeRecurring(ctx context.Context, actor ActionActor, requestID string) (*domain.Request, error) {
	return s.requests.ExecuteAction(ctx, actor, requestID, lifecycle.ActionResumeRecurring, ActionInput{})
}

// CompleteOccurrence marks an occurrence COMPLETED and, when it was the
// last outstanding one, closes the recurring cycle.
func (s *RecurringService) CompleteOccurrence(ctx context.Context, actor ActionActor, requestID string, number int, agentID, deliverableRef *string) (*domain.Occurrence, error) {
	occurrence, err := s.resolveOccurrence(ctx, requestID, number, domain.OccurrenceCompleted, agentID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	occurrence.CompletedAt = &now
	occurrence.DeliverableRef = deliverableRef
	if err := s.occurrences.Update(ctx, occurrence); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishOccurrenceEvent(ctx, actor, occurrence)

	if err := s.maybeCompleteCycle(ctx, requestID); err != nil {
		return nil, err
	}
	return occurrence, nil
}

// FailOccurrence marks an occurrence FAILED.
func (s *RecurringService) FailOccurrence(ctx context.Context, actor ActionActor, requestID string, number int, agentID *string) (*domain.Occurrence, error) {
	occurrence, err := s.resolveOccurrence(ctx, requestID, number, domain.OccurrenceFailed, agentID)
	if err != nil {
		return nil, err
	}
	if err := s.occurrences.Update(ctx, occurrence); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishOccurrenceEvent(ctx, actor, occurrence)
	return occurrence, nil
}

// SkipOccurrence marks an occurrence SKIPPED.
func (s *RecurringService) SkipOccurrence(ctx context.Context, actor ActionActor, requestID string, number int) (*domain.Occurrence, error) {
	occurrence, err := s.resolveOccurrence(ctx, requestID, number, domain.OccurrenceSkipped, nil)
	if err != nil {
		return nil, err
	}
	if err := s.occurrences.Update(ctx, occurrence); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishOccurrenceEvent(ctx, actor, occurrence)
	return occurrence, nil
}

// Progress reports completion state over the persisted occurrence plan.
func (s *RecurringService) Progress(ctx context.Context, requestID string) (*RecurringProgress, error) {
	occurrences, err := s.occurrences.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(occurrences) == 0 {
		return nil, apperrors.NewNotFound("recurring plan", map[string]any{"request_id": requestID})
	}

	progress := &RecurringProgress{TotalOccurrences: len(occurrences)}
	for i := range occurrences {
		switch occurrences[i].Status {
		case domain.OccurrenceCompleted:
			progress.CompletedCount++
		case domain.OccurrencePending:
			progress.PendingCount++
			if progress.NextScheduledDate == nil {
				progress.NextScheduledDate = &occurrences[i].ScheduledDate
			}
		}
	}
	progress.CompletionPercentage = float64(progress.CompletedCount) / float64(progress.TotalOccurrences) * 100
	progress.IsComplete = progress.CompletedCount == progress.TotalOccurrences
	return progress, nil
}

func (s *RecurringService) resolveOccurrence(ctx context.Context, requestID string, number int, status domain.OccurrenceStatus, agentID *string) (*domain.Occurrence, error) {
	occurrence, err := s.occurrences.GetByNumber(ctx, requestID, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("occurrence", map[string]any{"request_id": requestID, "occurrence_number": number})
		}
		return nil, apperrors.MapError(err)
	}
	if occurrence.Status != domain.OccurrencePending {
		return nil, apperrors.NewConflict("occurrence already resolved", map[string]any{
			"request_id":        requestID,
			"occurrence_number": number,
			"status":            occurrence.Status,
		})
	}
	occurrence.Status = status
	if agentID != nil {
		occurrence.AgentID = agentID
	}
	return occurrence, nil
}

func (s *RecurringService) maybeCompleteCycle(ctx context.Context, requestID string) error {
	progress, err := s.Progress(ctx, requestID)
	if err != nil {
		return err
	}
	if !progress.IsComplete {
		return nil
	}
	request, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.Status != domain.StatusRecurringActive {
		return nil
	}
	if _, err := s.requests.ExecuteAction(ctx, SystemActor(), requestID, lifecycle.ActionCompleteRecurring, ActionInput{}); err != nil {
		s.logger.Warn("failed to complete recurring cycle", zap.String("request_id", requestID), zap.Error(err))
	}
	return nil
}

func (s *RecurringService) publishOccurrenceEvent(ctx context.Context, actor ActionActor, occurrence *domain.Occurrence) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventOccurrenceUpdated,
		RequestID: occurrence.RequestID,
		Actor:     eventActor(actor),
		Timestamp: time.Now(),
		Payload: events.OccurrenceUpdatedPayload{
			OccurrenceNumber: occurrence.Number,
			Status:           occurrence.Status,
			AgentID:          occurrence.AgentID,
		},
	})
}
