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
	"github.com/spec-kit/verification-service/internal/observability"
	"github.com/spec-kit/verification-service/internal/service"
)

func newMonitor(env *testEnv) *service.SLAMonitor {
	return service.NewSLAMonitor(env.requests, env.service, env.dispatcher, observability.NewMetrics(), zap.NewNop(), 100)
}

func TestScanExpiresPendingAssignmentPastFindAgentDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request, err := env.service.CreateRequest(ctx, "cust-1", service.RequestCreateInput{RequestTypeID: "rt-1"})
	require.NoError(t, err)
	_, err = env.service.ExecuteAction(ctx, service.CustomerActor("cust-1"), request.ID, lifecycle.ActionStartSearch, service.ActionInput{})
	require.NoError(t, err)

	expireDeadlines(t, env, request.ID)

	fired, err := newMonitor(env).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	reloaded, err := env.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, reloaded.Status)

	breaches := env.eventsOfType(events.EventSLABreached)
	require.Len(t, breaches, 1)
	payload, ok := breaches[0].Payload.(events.SLABreachedPayload)
	require.True(t, ok)
	assert.Equal(t, lifecycle.ReasonFindAgentSLA, payload.Reason)
}

func TestScanExpiresAssignedPastCompletionDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request := advanceToAssigned(t, env)
	expireDeadlines(t, env, request.ID)

	fired, err := newMonitor(env).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	reloaded, err := env.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, reloaded.Status)

	breaches := env.eventsOfType(events.EventSLABreached)
	require.Len(t, breaches, 1)
	payload, ok := breaches[0].Payload.(events.SLABreachedPayload)
	require.True(t, ok)
	assert.Equal(t, lifecycle.ReasonCompletionSLA, payload.Reason)
}

func TestScanLeavesHealthyRequestsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request, err := env.service.CreateRequest(ctx, "cust-1", service.RequestCreateInput{RequestTypeID: "rt-1"})
	require.NoError(t, err)
	_, err = env.service.ExecuteAction(ctx, service.CustomerActor("cust-1"), request.ID, lifecycle.ActionStartSearch, service.ActionInput{})
	require.NoError(t, err)

	fired, err := newMonitor(env).Scan(ctx)
	require.NoError(t, err)
	assert.Zero(t, fired)

	reloaded, err := env.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingAssignment, reloaded.Status)
}

func TestScanIgnoresUnmonitoredStatuses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request, err := env.service.CreateRequest(ctx, "cust-1", service.RequestCreateInput{RequestTypeID: "rt-1"})
	require.NoError(t, err)
	expireDeadlines(t, env, request.ID)

	// Still CREATED, which the monitor never scans.
	fired, err := newMonitor(env).Scan(ctx)
	require.NoError(t, err)
	assert.Zero(t, fired)
}

// expireDeadlines rewinds both deadlines so the request reads as overdue.
func expireDeadlines(t *testing.T, env *testEnv, requestID string) {
	t.Helper()
	ctx := context.Background()

	request, err := env.requests.GetByID(ctx, requestID)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	request.FindAgentDeadline = &past
	request.CompletionDeadline = &past
	require.NoError(t, env.requests.Update(ctx, request))
}
