package dto

import "time"

// RecurringPlanRequest describes an optional recurrence plan at creation.
type RecurringPlanRequest struct {
	Frequency        string    `json:"frequency"`
	StartDate        time.Time `json:"start_date"`
	TotalOccurrences int       `json:"total_occurrences"`
}

// CreateRequestRequest is the request-creation payload.
type CreateRequestRequest struct {
	RequestTypeID string                `json:"request_type_id"`
	Tier          *string               `json:"tier,omitempty"`
	IsUrgent      bool                  `json:"is_urgent"`
	ScheduledAt   *time.Time            `json:"scheduled_at,omitempty"`
	Recurring     *RecurringPlanRequest `json:"recurring,omitempty"`
	Metadata      map[string]any        `json:"metadata,omitempty"`
}

// ExecuteActionRequest triggers a lifecycle action.
type ExecuteActionRequest struct {
	Action  string  `json:"action"`
	AgentID *string `json:"agent_id,omitempty"`
}

// ResolveOccurrenceRequest resolves a single occurrence.
type ResolveOccurrenceRequest struct {
	AgentID        *string `json:"agent_id,omitempty"`
	DeliverableRef *string `json:"deliverable_ref,omitempty"`
}

// RequestSummary is the list/detail projection of a request.
type RequestSummary struct {
	ID                 string         `json:"id"`
	ExternalKey        string         `json:"external_key"`
	CustomerID         string         `json:"customer_id"`
	RequestTypeID      string         `json:"request_type_id"`
	AgentID            *string        `json:"agent_id,omitempty"`
	Status             string         `json:"status"`
	Tier               *string        `json:"tier,omitempty"`
	Price              *float64       `json:"price,omitempty"`
	IsUrgent           bool           `json:"is_urgent"`
	IsRecurring        bool           `json:"is_recurring"`
	ScheduledAt        *time.Time     `json:"scheduled_at,omitempty"`
	FindAgentDeadline  *time.Time     `json:"find_agent_deadline,omitempty"`
	CompletionDeadline *time.Time     `json:"completion_deadline,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	ClosedAt           *time.Time     `json:"closed_at,omitempty"`
}

// RequestDetail augments the summary with legal next actions.
type RequestDetail struct {
	RequestSummary
	PossibleActions []string `json:"possible_actions"`
}

// RecurringProgressResponse reports recurrence completion state.
type RecurringProgressResponse struct {
	TotalOccurrences     int        `json:"total_occurrences"`
	CompletedCount       int        `json:"completed_count"`
	PendingCount         int        `json:"pending_count"`
	CompletionPercentage float64    `json:"completion_percentage"`
	NextScheduledDate    *time.Time `json:"next_scheduled_date,omitempty"`
	IsComplete           bool       `json:"is_complete"`
}
