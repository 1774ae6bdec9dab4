package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/verification-service/internal/domain"
	"github.com/spec-kit/verification-service/internal/events"
	"github.com/spec-kit/verification-service/internal/lifecycle"
	"github.com/spec-kit/verification-service/internal/persistence"
	"github.com/spec-kit/verification-service/internal/repository"
	apperrors "github.com/spec-kit/verification-service/pkg/util"
)

// RequestService coordinates the verification-request lifecycle: creation
// with SLA deadlines and pricing, action execution through the transition
// engine, and persistence of the outcome.
type RequestService struct {
	requests     repository.RequestRepository
	requestTypes repository.RequestTypeRepository
	occurrences  repository.OccurrenceRepository
	agents       repository.AgentRepository
	history      repository.RequestHistoryRepository
	dispatcher   events.Dispatcher
	engine       *lifecycle.Engine
	cache        *persistence.RequestCache
	logger       *zap.Logger
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo     repository.RequestRepository
	RequestTypeRepo repository.RequestTypeRepository
	OccurrenceRepo  repository.OccurrenceRepository
	AgentRepo       repository.AgentRepository
	HistoryRepo     repository.RequestHistoryRepository
	Dispatcher      events.Dispatcher
	Engine          *lifecycle.Engine
	Cache           *persistence.RequestCache
	Logger          *zap.Logger
}

// RecurringInput describes a recurrence plan supplied at creation.
type RecurringInput struct {
	Frequency        domain.RecurringFrequency
	StartDate        time.Time
	TotalOccurrences int
}

// RequestCreateInput describes request creation payload.
type RequestCreateInput struct {
	RequestTypeID string
	Tier          *string
	IsUrgent      bool
	ScheduledAt   *time.Time
	Recurring     *RecurringInput
	Metadata      map[string]any
}

// ActionActor identifies who triggered a lifecycle action.
type ActionActor struct {
	Type domain.ActorType
	ID   *string
}

// SystemActor is used by internal schedulers such as the SLA monitor.
func SystemActor() ActionActor {
	return ActionActor{Type: domain.ActorTypeSystem}
}

// CustomerActor identifies a customer-initiated action.
func CustomerActor(customerID string) ActionActor {
	return ActionActor{Type: domain.ActorTypeCustomer, ID: &customerID}
}

// AgentActor identifies an agent-initiated action.
func AgentActor(agentID string) ActionActor {
	return ActionActor{Type: domain.ActorTypeAgent, ID: &agentID}
}

// ActionInput carries optional parameters for an action.
type ActionInput struct {
	// AgentID assigns the accepting agent on AGENT_ACCEPTED.
	AgentID *string
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:     deps.RequestRepo,
		requestTypes: deps.RequestTypeRepo,
		occurrences:  deps.OccurrenceRepo,
		agents:       deps.AgentRepo,
		history:      deps.HistoryRepo,
		dispatcher:   deps.Dispatcher,
		engine:       deps.Engine,
		cache:        deps.Cache,
		logger:       deps.Logger,
	}
}

// Engine exposes the transition engine for table-only queries.
func (s *RequestService) Engine() *lifecycle.Engine {
	return s.engine
}

// CreateRequest creates a request for a customer, computing SLA deadlines
// from the request type and urgency, resolving the tier price, and
// generating the recurring occurrence plan when present.
func (s *RequestService) CreateRequest(ctx context.Context, customerID string, input RequestCreateInput) (*domain.Request, error) {
	requestType, err := s.requestTypes.GetByID(ctx, input.RequestTypeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request type", map[string]any{"request_type_id": input.RequestTypeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !requestType.IsActive {
		return nil, apperrors.NewConflict("request type inactive", map[string]any{"request_type_id": requestType.ID})
	}

	var price *float64
	var tier *string
	if input.Tier != nil && strings.TrimSpace(*input.Tier) != "" {
		pricing, err := domain.NewTieredPricing(requestType.PricingTiers)
		if err != nil {
			return nil, err
		}
		resolved, err := pricing.PriceForTier(*input.Tier)
		if err != nil {
			return nil, err
		}
		price = &resolved
		tier = input.Tier
	}

	// validate the recurrence plan before the request row exists
	var schedule *domain.RecurringSchedule
	if input.Recurring != nil {
		schedule, err = domain.NewRecurringSchedule(
			input.Recurring.Frequency,
			input.Recurring.StartDate,
			input.Recurring.TotalOccurrences,
		)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	deadlines := lifecycle.CalculateDeadlines(lifecycle.PolicyFromRequestType(requestType), now, input.IsUrgent)

	request := &domain.Request{
		ExternalKey:        generateRequestKey(),
		CustomerID:         customerID,
		RequestTypeID:      requestType.ID,
		Status:             domain.StatusCreated,
		Tier:               tier,
		Price:              price,
		IsUrgent:           input.IsUrgent,
		IsRecurring:        schedule != nil,
		ScheduledAt:        input.ScheduledAt,
		FindAgentDeadline:  &deadlines.FindAgentDeadline,
		CompletionDeadline: &deadlines.CompletionDeadline,
		Metadata:           input.Metadata,
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	if schedule != nil {
		occurrences := schedule.Occurrences()
		for i := range occurrences {
			occurrences[i].RequestID = request.ID
		}
		if err := s.occurrences.BulkCreate(ctx, occurrences); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.cache.Set(ctx, request)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: request.ID,
		Actor:     eventActor(CustomerActor(customerID)),
		Payload: events.RequestCreatedPayload{
			RequestTypeID: request.RequestTypeID,
			Tier:          request.Tier,
			Price:         request.Price,
			IsUrgent:      request.IsUrgent,
			IsRecurring:   request.IsRecurring,
			ScheduledAt:   request.ScheduledAt,
		},
	})
	return request, nil
}

// ExecuteAction runs a lifecycle action against a request through the
// transition engine and persists the outcome under the request's version
// stamp. The transition is treated as not having occurred when the engine
// fails or when a concurrent writer won the version race.
func (s *RequestService) ExecuteAction(ctx context.Context, actor ActionActor, requestID string, action lifecycle.Action, input ActionInput) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	requestType, err := s.requestTypes.GetByID(ctx, request.RequestTypeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	oldAgent := request.AgentID
	if action == lifecycle.ActionAgentAccepted && input.AgentID != nil {
		agent, err := s.agents.GetByID(ctx, *input.AgentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": *input.AgentID})
			}
			return nil, apperrors.MapError(err)
		}
		if !agent.Active {
			return nil, apperrors.NewConflict("agent inactive", map[string]any{"agent_id": agent.ID})
		}
		request.AgentID = &agent.ID
	}

	newStatus, err := s.engine.Transition(ctx, s.contextFor(request, requestType), action)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	oldStatus := request.Status
	request.Status = newStatus
	if newStatus.IsTerminal() {
		now := time.Now()
		request.ClosedAt = &now
	} else if request.ClosedAt != nil {
		request.ClosedAt = nil
	}

	// deadline recomputation on extension lives here, outside the engine
	if action == lifecycle.ActionExtendSLA && request.CompletionDeadline != nil {
		oldDeadline := *request.CompletionDeadline
		extended := oldDeadline.Add(time.Duration(requestType.ExtensionHours * float64(time.Hour)))
		request.CompletionDeadline = &extended
		s.recordDeadlineChange(ctx, actor, request.ID, oldDeadline, extended)
	}

	if err := s.requests.Update(ctx, request); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("request was modified concurrently", map[string]any{"request_id": request.ID})
		}
		return nil, apperrors.MapError(err)
	}

	s.cache.Invalidate(ctx, request.ID)
	s.cache.Set(ctx, request)

	s.recordStatusChange(ctx, actor, request.ID, oldStatus, newStatus, string(action))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestStatusChanged,
		RequestID: request.ID,
		Actor:     eventActor(actor),
		Payload: events.RequestStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Action:    string(action),
		},
	})
	if action == lifecycle.ActionAgentAccepted && !ptrEqual(oldAgent, request.AgentID) {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventRequestAssigned,
			RequestID: request.ID,
			Actor:     eventActor(actor),
			Payload:   events.RequestAssignedPayload{AgentID: request.AgentID},
		})
	}
	return request, nil
}

// GetRequest fetches a request, serving cached snapshots when available.
func (s *RequestService) GetRequest(ctx context.Context, requestID string) (*domain.Request, error) {
	if cached, ok := s.cache.Get(ctx, requestID); ok {
		return cached, nil
	}
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	s.cache.Set(ctx, request)
	return request, nil
}

// ListRequests returns requests matching the filter.
func (s *RequestService) ListRequests(ctx context.Context, filter repository.RequestFilter) ([]domain.Request, error) {
	return s.requests.ListWithFilter(ctx, filter)
}

// PossibleActions lists the legal next actions for a request's current
// status, without attempting any of them.
func (s *RequestService) PossibleActions(ctx context.Context, requestID string) ([]lifecycle.Action, error) {
	request, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.engine.PossibleActions(request.Status), nil
}

// ListHistory returns audit entries for a request.
func (s *RequestService) ListHistory(ctx context.Context, requestID string, limit, offset int) ([]domain.RequestHistory, error) {
	if s.history == nil {
		return []domain.RequestHistory{}, nil
	}
	return s.history.ListByRequest(ctx, requestID, limit, offset)
}

func (s *RequestService) contextFor(request *domain.Request, requestType *domain.RequestType) lifecycle.Context {
	agentID := ""
	if request.AgentID != nil {
		agentID = *request.AgentID
	}
	return lifecycle.Context{
		RequestID:   request.ID,
		Status:      request.Status,
		Policy:      lifecycle.PolicyFromRequestType(requestType),
		AgentID:     agentID,
		CustomerID:  request.CustomerID,
		CreatedAt:   request.CreatedAt,
		ScheduledAt: request.ScheduledAt,
		IsUrgent:    request.IsUrgent,
		IsRecurring: request.IsRecurring,
		Metadata:    request.Metadata,
	}
}

func (s *RequestService) recordStatusChange(ctx context.Context, actor ActionActor, requestID string, oldStatus, newStatus domain.RequestStatus, action string) {
	if s.history == nil {
		return
	}
	entry := &domain.RequestHistory{
		RequestID:     requestID,
		ChangedByType: actor.Type,
		ChangedByID:   actor.ID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue: map[string]any{
			"status": oldStatus,
		},
		NewValue: map[string]any{
			"status": newStatus,
			"action": action,
		},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record status change", zap.String("request_id", requestID), zap.Error(err))
	}
}

func (s *RequestService) recordDeadlineChange(ctx context.Context, actor ActionActor, requestID string, oldDeadline, newDeadline time.Time) {
	if s.history == nil {
		return
	}
	entry := &domain.RequestHistory{
		RequestID:     requestID,
		ChangedByType: actor.Type,
		ChangedByID:   actor.ID,
		ChangeType:    domain.ChangeTypeDeadline,
		OldValue: map[string]any{
			"completion_deadline": oldDeadline,
		},
		NewValue: map[string]any{
			"completion_deadline": newDeadline,
		},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record deadline change", zap.String("request_id", requestID), zap.Error(err))
	}
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor ActionActor) events.Actor {
	out := events.Actor{Type: actor.Type}
	switch actor.Type {
	case domain.ActorTypeCustomer:
		out.CustomerID = actor.ID
	case domain.ActorTypeAgent:
		out.AgentID = actor.ID
	}
	return out
}

func generateRequestKey() string {
	return "VRQ-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
