package events

import (
	"time"

	"github.com/spec-kit/verification-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventRequestAssigned      EventType = "request_assigned"
	EventSLABreached          EventType = "sla_breached"
	EventOccurrenceUpdated    EventType = "occurrence_updated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type       domain.ActorType `json:"type"`
	CustomerID *string          `json:"customer_id,omitempty"`
	AgentID    *string          `json:"agent_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	RequestTypeID string     `json:"request_type_id"`
	Tier          *string    `json:"tier,omitempty"`
	Price         *float64   `json:"price,omitempty"`
	IsUrgent      bool       `json:"is_urgent"`
	IsRecurring   bool       `json:"is_recurring"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
	Action    string               `json:"action"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	AgentID *string `json:"agent_id,omitempty"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	Status   domain.RequestStatus `json:"status"`
	Reason   string               `json:"reason"`
	Deadline *time.Time           `json:"deadline,omitempty"`
}

// OccurrenceUpdatedPayload payload.
type OccurrenceUpdatedPayload struct {
	OccurrenceNumber int                     `json:"occurrence_number"`
	Status           domain.OccurrenceStatus `json:"status"`
	AgentID          *string                 `json:"agent_id,omitempty"`
}
