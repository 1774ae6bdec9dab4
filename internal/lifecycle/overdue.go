package lifecycle

import (
	"time"

	"github.com/spec-kit/verification-service/internal/domain"
)

// Breach reasons reported by IsOverdue.
const (
	ReasonFindAgentSLA  = "failed to find agent within SLA"
	ReasonCompletionSLA = "failed to complete within SLA"
)

// OverdueResult is the verdict of a breach check.
type OverdueResult struct {
	Overdue bool
	Reason  string
}

// completionBound lists statuses subject to the completion deadline.
var completionBound = map[domain.RequestStatus]struct{}{
	domain.StatusAssigned:   {},
	domain.StatusInProgress: {},
	domain.StatusExtended:   {},
}

// IsOverdue maps (status, deadlines, now) to a breach verdict. Only two
// conditions breach: PENDING_ASSIGNMENT past the find-agent deadline, and
// ASSIGNED/IN_PROGRESS/EXTENDED past the completion deadline. First match
// wins; all other statuses are never overdue. Pure function; the caller
// decides whether to fire an expiry action through the engine.
func IsOverdue(status domain.RequestStatus, findAgentDeadline, completionDeadline *time.Time, now time.Time) OverdueResult {
	if status == domain.StatusPendingAssignment && findAgentDeadline != nil && now.After(*findAgentDeadline) {
		return OverdueResult{Overdue: true, Reason: ReasonFindAgentSLA}
	}
	if _, ok := completionBound[status]; ok && completionDeadline != nil && now.After(*completionDeadline) {
		return OverdueResult{Overdue: true, Reason: ReasonCompletionSLA}
	}
	return OverdueResult{}
}
