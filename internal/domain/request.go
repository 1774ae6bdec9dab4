package domain

import "time"

// RequestStatus enumerates lifecycle states for verification requests.
type RequestStatus string

const (
	StatusCreated            RequestStatus = "CREATED"
	StatusPendingAssignment  RequestStatus = "PENDING_ASSIGNMENT"
	StatusScheduled          RequestStatus = "SCHEDULED"
	StatusAssigned           RequestStatus = "ASSIGNED"
	StatusInProgress         RequestStatus = "IN_PROGRESS"
	StatusExtended           RequestStatus = "EXTENDED"
	StatusReassignmentNeeded RequestStatus = "REASSIGNMENT_NEEDED"
	StatusCompleted          RequestStatus = "COMPLETED"
	StatusCancelled          RequestStatus = "CANCELLED"
	StatusExpired            RequestStatus = "EXPIRED"
	StatusRefunded           RequestStatus = "REFUNDED"
	StatusRecurringActive    RequestStatus = "RECURRING_ACTIVE"
	StatusRecurringPaused    RequestStatus = "RECURRING_PAUSED"
	StatusRecurringCompleted RequestStatus = "RECURRING_COMPLETED"
)

// AllStatuses lists every lifecycle state.
var AllStatuses = []RequestStatus{
	StatusCreated,
	StatusPendingAssignment,
	StatusScheduled,
	StatusAssigned,
	StatusInProgress,
	StatusExtended,
	StatusReassignmentNeeded,
	StatusCompleted,
	StatusCancelled,
	StatusExpired,
	StatusRefunded,
	StatusRecurringActive,
	StatusRecurringPaused,
	StatusRecurringCompleted,
}

var terminalStatuses = map[RequestStatus]struct{}{
	StatusCompleted:          {},
	StatusCancelled:          {},
	StatusExpired:            {},
	StatusRefunded:           {},
	StatusRecurringCompleted: {},
}

// IsTerminal reports whether the status admits no further transitions
// other than the recurring follow-up on COMPLETED.
func (s RequestStatus) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// Request is the aggregate for service-verification requests.
type Request struct {
	ID                 string
	ExternalKey        string
	CustomerID         string
	RequestTypeID      string
	AgentID            *string
	Status             RequestStatus
	Tier               *string
	Price              *float64
	IsUrgent           bool
	IsRecurring        bool
	ScheduledAt        *time.Time
	FindAgentDeadline  *time.Time
	CompletionDeadline *time.Time
	Metadata           map[string]any
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ClosedAt           *time.Time
}
