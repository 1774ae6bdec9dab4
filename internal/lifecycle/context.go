package lifecycle

import (
	"time"

	"github.com/spec-kit/verification-service/internal/domain"
)

// SLAPolicy mirrors the SLA configuration of a request type, supplied
// per call and never retained.
type SLAPolicy struct {
	SLAHours           float64
	CompletionSLAHours float64
	AllowExtension     bool
	ExtensionHours     float64
}

// PolicyFromRequestType extracts the SLA policy from a request type.
func PolicyFromRequestType(rt *domain.RequestType) SLAPolicy {
	return SLAPolicy{
		SLAHours:           rt.SLAHours,
		CompletionSLAHours: rt.CompletionSLAHours,
		AllowExtension:     rt.AllowExtension,
		ExtensionHours:     rt.ExtensionHours,
	}
}

// Context is the snapshot of a request the engine operates on. It is owned
// by the caller; the engine reads it during a single Transition call and
// never holds a reference across calls.
type Context struct {
	RequestID   string
	Status      domain.RequestStatus
	Policy      SLAPolicy
	AgentID     string
	CustomerID  string
	CreatedAt   time.Time
	ScheduledAt *time.Time
	IsUrgent    bool
	IsRecurring bool
	Metadata    map[string]any
}
