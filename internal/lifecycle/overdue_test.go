package lifecycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/verification-service/internal/domain"
	"github.com/spec-kit/verification-service/internal/lifecycle"
)

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name               string
		status             domain.RequestStatus
		findAgentDeadline  *time.Time
		completionDeadline *time.Time
		wantOverdue        bool
		wantReason         string
	}{
		{
			name:              "pending assignment past find-agent deadline",
			status:            domain.StatusPendingAssignment,
			findAgentDeadline: &past,
			wantOverdue:       true,
			wantReason:        lifecycle.ReasonFindAgentSLA,
		},
		{
			name:              "pending assignment within deadline",
			status:            domain.StatusPendingAssignment,
			findAgentDeadline: &future,
		},
		{
			name:               "assigned past completion deadline",
			status:             domain.StatusAssigned,
			completionDeadline: &past,
			wantOverdue:        true,
			wantReason:         lifecycle.ReasonCompletionSLA,
		},
		{
			name:               "in progress past completion deadline",
			status:             domain.StatusInProgress,
			completionDeadline: &past,
			wantOverdue:        true,
			wantReason:         lifecycle.ReasonCompletionSLA,
		},
		{
			name:               "extended past completion deadline",
			status:             domain.StatusExtended,
			completionDeadline: &past,
			wantOverdue:        true,
			wantReason:         lifecycle.ReasonCompletionSLA,
		},
		{
			name:               "extended within deadline",
			status:             domain.StatusExtended,
			completionDeadline: &future,
		},
		{
			name:               "completed never overdue",
			status:             domain.StatusCompleted,
			findAgentDeadline:  &past,
			completionDeadline: &past,
		},
		{
			name:               "created never overdue",
			status:             domain.StatusCreated,
			findAgentDeadline:  &past,
			completionDeadline: &past,
		},
		{
			name:               "cancelled never overdue",
			status:             domain.StatusCancelled,
			findAgentDeadline:  &past,
			completionDeadline: &past,
		},
		{
			name:   "nil deadlines never breach",
			status: domain.StatusPendingAssignment,
		},
		{
			name:               "find-agent reason wins when pending",
			status:             domain.StatusPendingAssignment,
			findAgentDeadline:  &past,
			completionDeadline: &past,
			wantOverdue:        true,
			wantReason:         lifecycle.ReasonFindAgentSLA,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := lifecycle.IsOverdue(tc.status, tc.findAgentDeadline, tc.completionDeadline, now)
			assert.Equal(t, tc.wantOverdue, result.Overdue)
			assert.Equal(t, tc.wantReason, result.Reason)
		})
	}
}

func TestIsOverdueExactDeadlineIsNotBreached(t *testing.T) {
	deadline := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	result := lifecycle.IsOverdue(domain.StatusPendingAssignment, &deadline, nil, deadline)
	assert.False(t, result.Overdue)
}
