package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/verification-service/internal/domain"
	"github.com/spec-kit/verification-service/internal/repository"
)

// In-memory repository fakes backing the service tests. They mimic the
// postgres-backed implementations closely enough to exercise version
// guarding and pgx.ErrNoRows mapping.

type fakeRequestRepo struct {
	mu       sync.Mutex
	seq      int
	requests map[string]domain.Request
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]domain.Request)}
}

func (r *fakeRequestRepo) Create(_ context.Context, request *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	request.ID = fmt.Sprintf("req-%d", r.seq)
	request.Version = 1
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	r.requests[request.ID] = *request
	return nil
}

func (r *fakeRequestRepo) Update(_ context.Context, request *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[request.ID]
	if !ok || stored.Version != request.Version {
		return repository.ErrVersionConflict
	}
	request.Version++
	request.UpdatedAt = time.Now()
	r.requests[request.ID] = *request
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (r *fakeRequestRepo) GetByExternalKey(_ context.Context, key string) (*domain.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.requests {
		if stored.ExternalKey == key {
			copied := stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRequestRepo) ListWithFilter(_ context.Context, filter repository.RequestFilter) ([]domain.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Request{}
	for _, stored := range r.requests {
		if filter.CustomerID != nil && stored.CustomerID != *filter.CustomerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, stored.Status) {
			continue
		}
		out = append(out, stored)
	}
	return out, nil
}

func (r *fakeRequestRepo) ListByStatuses(_ context.Context, statuses []domain.RequestStatus, _ int) ([]domain.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Request{}
	for _, stored := range r.requests {
		if containsStatus(statuses, stored.Status) {
			out = append(out, stored)
		}
	}
	return out, nil
}

func containsStatus(statuses []domain.RequestStatus, status domain.RequestStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeRequestTypeRepo struct {
	types map[string]domain.RequestType
}

func newFakeRequestTypeRepo(types ...domain.RequestType) *fakeRequestTypeRepo {
	repo := &fakeRequestTypeRepo{types: make(map[string]domain.RequestType)}
	for _, rt := range types {
		repo.types[rt.ID] = rt
	}
	return repo
}

func (r *fakeRequestTypeRepo) Create(_ context.Context, requestType *domain.RequestType) error {
	r.types[requestType.ID] = *requestType
	return nil
}

func (r *fakeRequestTypeRepo) GetByID(_ context.Context, id string) (*domain.RequestType, error) {
	rt, ok := r.types[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := rt
	return &copied, nil
}

func (r *fakeRequestTypeRepo) ListActive(_ context.Context) ([]domain.RequestType, error) {
	out := []domain.RequestType{}
	for _, rt := range r.types {
		if rt.IsActive {
			out = append(out, rt)
		}
	}
	return out, nil
}

type fakeOccurrenceRepo struct {
	mu          sync.Mutex
	seq         int
	occurrences []domain.Occurrence
}

func newFakeOccurrenceRepo() *fakeOccurrenceRepo {
	return &fakeOccurrenceRepo{}
}

func (r *fakeOccurrenceRepo) BulkCreate(_ context.Context, occurrences []domain.Occurrence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range occurrences {
		r.seq++
		occurrences[i].ID = fmt.Sprintf("occ-%d", r.seq)
		r.occurrences = append(r.occurrences, occurrences[i])
	}
	return nil
}

func (r *fakeOccurrenceRepo) ListByRequest(_ context.Context, requestID string) ([]domain.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Occurrence{}
	for _, occ := range r.occurrences {
		if occ.RequestID == requestID {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (r *fakeOccurrenceRepo) GetByNumber(_ context.Context, requestID string, number int) (*domain.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, occ := range r.occurrences {
		if occ.RequestID == requestID && occ.Number == number {
			copied := occ
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeOccurrenceRepo) Update(_ context.Context, occurrence *domain.Occurrence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.occurrences {
		if r.occurrences[i].ID == occurrence.ID {
			r.occurrences[i] = *occurrence
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeAgentRepo struct {
	agents map[string]domain.Agent
}

func newFakeAgentRepo(agents ...domain.Agent) *fakeAgentRepo {
	repo := &fakeAgentRepo{agents: make(map[string]domain.Agent)}
	for _, agent := range agents {
		repo.agents[agent.ID] = agent
	}
	return repo
}

func (r *fakeAgentRepo) Create(_ context.Context, agent *domain.Agent) error {
	r.agents[agent.ID] = *agent
	return nil
}

func (r *fakeAgentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	agent, ok := r.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := agent
	return &copied, nil
}

func (r *fakeAgentRepo) ListActive(_ context.Context, _ int) ([]domain.Agent, error) {
	out := []domain.Agent{}
	for _, agent := range r.agents {
		if agent.Active {
			out = append(out, agent)
		}
	}
	return out, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.RequestHistory
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.RequestHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByRequest(_ context.Context, requestID string, _, _ int) ([]domain.RequestHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.RequestHistory{}
	for _, entry := range r.entries {
		if entry.RequestID == requestID {
			out = append(out, entry)
		}
	}
	return out, nil
}
