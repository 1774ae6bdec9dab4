package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/verification-service/internal/domain"
	"github.com/spec-kit/verification-service/internal/events"
	"github.com/spec-kit/verification-service/internal/lifecycle"
	"github.com/spec-kit/verification-service/internal/observability"
	"github.com/spec-kit/verification-service/internal/repository"
)

// monitoredStatuses are the only states subject to SLA deadlines.
var monitoredStatuses = []domain.RequestStatus{
	domain.StatusPendingAssignment,
	domain.StatusAssigned,
	domain.StatusInProgress,
	domain.StatusExtended,
}

// SLAMonitor periodically checks active requests for deadline breaches
// and fires the corresponding expiry action through the request service.
type SLAMonitor struct {
	requests   repository.RequestRepository
	service    *RequestService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	batchSize  int
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(requests repository.RequestRepository, service *RequestService, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, batchSize int) *SLAMonitor {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &SLAMonitor{
		requests:   requests,
		service:    service,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		batchSize:  batchSize,
	}
}

// Scan evaluates every monitored request against the overdue detector and
// fires SLA_EXPIRED or COMPLETION_SLA_EXPIRED for each breach. It returns
// the number of expiry actions that committed. A failed action is logged
// and skipped; the next scan will pick the request up again.
func (m *SLAMonitor) Scan(ctx context.Context) (int, error) {
	candidates, err := m.requests.ListByStatuses(ctx, monitoredStatuses, m.batchSize)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	fired := 0
	for i := range candidates {
		request := &candidates[i]
		verdict := lifecycle.IsOverdue(request.Status, request.FindAgentDeadline, request.CompletionDeadline, now)
		if !verdict.Overdue {
			continue
		}

		m.metrics.RecordSLABreach(verdict.Reason)

		action := lifecycle.ActionCompletionSLAExpired
		deadline := request.CompletionDeadline
		if verdict.Reason == lifecycle.ReasonFindAgentSLA {
			action = lifecycle.ActionSLAExpired
			deadline = request.FindAgentDeadline
		}

		if m.dispatcher != nil {
			_ = m.dispatcher.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventSLABreached,
				RequestID: request.ID,
				Actor:     events.Actor{Type: domain.ActorTypeSystem},
				Timestamp: now,
				Payload: events.SLABreachedPayload{
					Status:   request.Status,
					Reason:   verdict.Reason,
					Deadline: deadline,
				},
			})
		}

		_, err := m.service.ExecuteAction(ctx, SystemActor(), request.ID, action, ActionInput{})
		m.metrics.RecordAction(string(action), err == nil)
		if err != nil {
			m.logger.Warn("failed to expire request",
				zap.String("request_id", request.ID),
				zap.String("action", string(action)),
				zap.Error(err))
			continue
		}
		fired++
	}
	return fired, nil
}
