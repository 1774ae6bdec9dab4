package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/verification-service/internal/domain"
	"github.com/spec-kit/verification-service/internal/events"
	"github.com/spec-kit/verification-service/internal/lifecycle"
	"github.com/spec-kit/verification-service/internal/service"
	apperrors "github.com/spec-kit/verification-service/pkg/util"
)

func newRecurringEnv(t *testing.T) (*testEnv, *service.RecurringService, *domain.Request) {
	t.Helper()
	env := newTestEnv(t)
	recurring := service.NewRecurringService(env.occurrences, env.service, env.dispatcher, zap.NewNop())

	ctx := context.Background()
	request, err := env.service.CreateRequest(ctx, "cust-1", service.RequestCreateInput{
		RequestTypeID: "rt-1",
		Recurring: &service.RecurringInput{
			Frequency:        domain.FrequencyWeekly,
			StartDate:        time.Now().AddDate(0, 0, 7),
			TotalOccurrences: 2,
		},
	})
	require.NoError(t, err)
	return env, recurring, request
}

// walkToRecurringActive drives the request through its first completion
// and into the recurring cycle.
func walkToRecurringActive(t *testing.T, env *testEnv, recurring *service.RecurringService, requestID string) {
	t.Helper()
	ctx := context.Background()

	steps := []lifecycle.Action{
		lifecycle.ActionStartSearch,
		lifecycle.ActionAgentAccepted,
		lifecycle.ActionStartWork,
		lifecycle.ActionComplete,
	}
	for _, action := range steps {
		input := service.ActionInput{}
		if action == lifecycle.ActionAgentAccepted {
			input.AgentID = strPtr("agent-1")
		}
		_, err := env.service.ExecuteAction(ctx, service.SystemActor(), requestID, action, input)
		require.NoError(t, err)
	}

	_, err := recurring.StartRecurring(ctx, service.CustomerActor("cust-1"), requestID)
	require.NoError(t, err)
}

func TestCompleteOccurrence(t *testing.T) {
	env, recurring, request := newRecurringEnv(t)
	ctx := context.Background()
	walkToRecurringActive(t, env, recurring, request.ID)

	occurrence, err := recurring.CompleteOccurrence(ctx, service.AgentActor("agent-1"), request.ID, 1, strPtr("agent-1"), strPtr("report-1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, domain.OccurrenceCompleted, occurrence.Status)
	assert.NotNil(t, occurrence.CompletedAt)
	require.NotNil(t, occurrence.DeliverableRef)
	assert.Equal(t, "report-1.pdf", *occurrence.DeliverableRef)

	updates := env.eventsOfType(events.EventOccurrenceUpdated)
	require.Len(t, updates, 1)

	// One of two completed; cycle stays active.
	reloaded, err := env.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRecurringActive, reloaded.Status)
}

func TestCompletingLastOccurrenceClosesCycle(t *testing.T) {
	env, recurring, request := newRecurringEnv(t)
	ctx := context.Background()
	walkToRecurringActive(t, env, recurring, request.ID)

	_, err := recurring.CompleteOccurrence(ctx, service.AgentActor("agent-1"), request.ID, 1, strPtr("agent-1"), nil)
	require.NoError(t, err)
	_, err = recurring.CompleteOccurrence(ctx, service.AgentActor("agent-1"), request.ID, 2, strPtr("agent-1"), nil)
	require.NoError(t, err)

	reloaded, err := env.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRecurringCompleted, reloaded.Status)
	assert.NotNil(t, reloaded.ClosedAt)
}

func TestResolvedOccurrenceCannotBeResolvedAgain(t *testing.T) {
	env, recurring, request := newRecurringEnv(t)
	ctx := context.Background()
	walkToRecurringActive(t, env, recurring, request.ID)

	_, err := recurring.SkipOccurrence(ctx, service.SystemActor(), request.ID, 1)
	require.NoError(t, err)

	_, err = recurring.CompleteOccurrence(ctx, service.AgentActor("agent-1"), request.ID, 1, strPtr("agent-1"), nil)
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestFailOccurrence(t *testing.T) {
	env, recurring, request := newRecurringEnv(t)
	ctx := context.Background()
	walkToRecurringActive(t, env, recurring, request.ID)

	occurrence, err := recurring.FailOccurrence(ctx, service.AgentActor("agent-1"), request.ID, 2, strPtr("agent-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.OccurrenceFailed, occurrence.Status)
	assert.Nil(t, occurrence.CompletedAt)
}

func TestFailedOccurrencePreventsCycleCompletion(t *testing.T) {
	env, recurring, request := newRecurringEnv(t)
	ctx := context.Background()
	walkToRecurringActive(t, env, recurring, request.ID)

	_, err := recurring.FailOccurrence(ctx, service.AgentActor("agent-1"), request.ID, 1, strPtr("agent-1"))
	require.NoError(t, err)
	_, err = recurring.CompleteOccurrence(ctx, service.AgentActor("agent-1"), request.ID, 2, strPtr("agent-1"), nil)
	require.NoError(t, err)

	// Only one of two completed; the cycle stays open.
	reloaded, err := env.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRecurringActive, reloaded.Status)
}

func TestUnknownOccurrenceNumber(t *testing.T) {
	env, recurring, request := newRecurringEnv(t)
	ctx := context.Background()
	walkToRecurringActive(t, env, recurring, request.ID)

	_, err := recurring.SkipOccurrence(ctx, service.SystemActor(), request.ID, 99)
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestProgress(t *testing.T) {
	env, recurring, request := newRecurringEnv(t)
	ctx := context.Background()
	walkToRecurringActive(t, env, recurring, request.ID)

	progress, err := recurring.Progress(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.TotalOccurrences)
	assert.Equal(t, 0, progress.CompletedCount)
	assert.Equal(t, 2, progress.PendingCount)
	assert.False(t, progress.IsComplete)
	require.NotNil(t, progress.NextScheduledDate)

	_, err = recurring.CompleteOccurrence(ctx, service.AgentActor("agent-1"), request.ID, 1, strPtr("agent-1"), nil)
	require.NoError(t, err)

	progress, err = recurring.Progress(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.CompletedCount)
	assert.Equal(t, 50.0, progress.CompletionPercentage)
}

func TestPauseAndResumeRecurring(t *testing.T) {
	env, recurring, request := newRecurringEnv(t)
	ctx := context.Background()
	walkToRecurringActive(t, env, recurring, request.ID)

	paused, err := recurring.PauseRecurring(ctx, service.CustomerActor("cust-1"), request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRecurringPaused, paused.Status)

	resumed, err := recurring.ResumeRecurring(ctx, service.CustomerActor("cust-1"), request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRecurringActive, resumed.Status)
}

func TestProgressForNonRecurringRequest(t *testing.T) {
	env := newTestEnv(t)
	recurring := service.NewRecurringService(env.occurrences, env.service, env.dispatcher, zap.NewNop())
	ctx := context.Background()

	request, err := env.service.CreateRequest(ctx, "cust-1", service.RequestCreateInput{RequestTypeID: "rt-1"})
	require.NoError(t, err)

	_, err = recurring.Progress(ctx, request.ID)
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}
