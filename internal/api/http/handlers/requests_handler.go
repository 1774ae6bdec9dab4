package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/verification-service/internal/api/dto"
	"github.com/spec-kit/verification-service/internal/auth"
	"github.com/spec-kit/verification-service/internal/domain"
	"github.com/spec-kit/verification-service/internal/lifecycle"
	"github.com/spec-kit/verification-service/internal/repository"
	"github.com/spec-kit/verification-service/internal/service"
	apperrors "github.com/spec-kit/verification-service/pkg/util"
)

// actionsByRole restricts which lifecycle actions each role may trigger
// over HTTP. Ops may trigger anything; system-only expiry actions are
// reserved for the SLA monitor.
var actionsByRole = map[auth.Role]map[lifecycle.Action]struct{}{
	auth.RoleCustomer: {
		lifecycle.ActionStartSearch:      {},
		lifecycle.ActionSchedule:         {},
		lifecycle.ActionCancelByCustomer: {},
		lifecycle.ActionStartRecurring:   {},
		lifecycle.ActionPauseRecurring:   {},
		lifecycle.ActionResumeRecurring:  {},
	},
	auth.RoleAgent: {
		lifecycle.ActionAgentAccepted: {},
		lifecycle.ActionStartWork:     {},
		lifecycle.ActionExtendSLA:     {},
		lifecycle.ActionComplete:      {},
		lifecycle.ActionResumeWork:    {},
		lifecycle.ActionAgentFailed:   {},
	},
}

// RequestsHandler manages verification-request endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// CreateRequest POST /requests.
func (h *RequestsHandler) CreateRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.RequestTypeID) == "" {
		return apperrors.NewValidationError("request_type_id required", nil)
	}

	input := service.RequestCreateInput{
		RequestTypeID: req.RequestTypeID,
		Tier:          req.Tier,
		IsUrgent:      req.IsUrgent,
		ScheduledAt:   req.ScheduledAt,
		Metadata:      req.Metadata,
	}
	if req.Recurring != nil {
		input.Recurring = &service.RecurringInput{
			Frequency:        domain.RecurringFrequency(strings.ToUpper(req.Recurring.Frequency)),
			StartDate:        req.Recurring.StartDate,
			TotalOccurrences: req.Recurring.TotalOccurrences,
		}
	}

	request, err := h.service.CreateRequest(c.UserContext(), principal.SubjectID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestSummary(request)})
}

// ListRequests GET /requests.
func (h *RequestsHandler) ListRequests(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseRequestQuery(c)
	switch principal.Role {
	case auth.RoleCustomer:
		customerID := principal.SubjectID
		filter.CustomerID = &customerID
	case auth.RoleAgent:
		agentID := principal.SubjectID
		filter.AgentID = &agentID
	}

	requests, err := h.service.ListRequests(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.RequestSummary, 0, len(requests))
	for i := range requests {
		items = append(items, requestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetRequest GET /requests/:id.
func (h *RequestsHandler) GetRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	request, err := h.service.GetRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if !canViewRequest(principal, request) {
		return apperrors.NewForbidden("access denied")
	}
	actions := h.service.Engine().PossibleActions(request.Status)
	return c.JSON(fiber.Map{"data": requestDetail(request, actions)})
}

// ExecuteAction POST /requests/:id/actions.
func (h *RequestsHandler) ExecuteAction(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ExecuteActionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	action := lifecycle.Action(strings.ToUpper(strings.TrimSpace(req.Action)))
	if action == "" {
		return apperrors.NewValidationError("action required", nil)
	}
	if err := requireActionAllowed(principal, action); err != nil {
		return err
	}

	request, err := h.service.ExecuteAction(c.UserContext(), actorFor(principal), c.Params("id"), action, service.ActionInput{
		AgentID: req.AgentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// ListHistory GET /requests/:id/history.
func (h *RequestsHandler) ListHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	request, err := h.service.GetRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if !canViewRequest(principal, request) {
		return apperrors.NewForbidden("access denied")
	}
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	history, err := h.service.ListHistory(c.UserContext(), request.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": history})
}

// PossibleActions GET /requests/:id/actions.
func (h *RequestsHandler) PossibleActions(c *fiber.Ctx) error {
	actions, err := h.service.PossibleActions(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	names := make([]string, len(actions))
	for i, action := range actions {
		names[i] = string(action)
	}
	return c.JSON(fiber.Map{"data": names})
}

func requireActionAllowed(principal *auth.Principal, action lifecycle.Action) error {
	if principal.Role == auth.RoleOps {
		return nil
	}
	allowed, ok := actionsByRole[principal.Role]
	if !ok {
		return apperrors.NewForbidden("unknown role")
	}
	if _, ok := allowed[action]; !ok {
		return apperrors.NewForbidden("action not permitted for role")
	}
	return nil
}

func actorFor(principal *auth.Principal) service.ActionActor {
	switch principal.Role {
	case auth.RoleAgent:
		return service.AgentActor(principal.SubjectID)
	case auth.RoleCustomer:
		return service.CustomerActor(principal.SubjectID)
	default:
		return service.SystemActor()
	}
}

func canViewRequest(principal *auth.Principal, request *domain.Request) bool {
	switch principal.Role {
	case auth.RoleOps:
		return true
	case auth.RoleCustomer:
		return request.CustomerID == principal.SubjectID
	case auth.RoleAgent:
		return request.AgentID != nil && *request.AgentID == principal.SubjectID
	}
	return false
}

func parseRequestQuery(c *fiber.Ctx) repository.RequestFilter {
	filter := repository.RequestFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.RequestStatus(strings.ToUpper(strings.TrimSpace(part)))
			if status != "" {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if raw := c.Query("request_type_id"); raw != "" {
		filter.RequestTypeID = &raw
	}
	if raw := c.Query("recurring"); raw != "" {
		recurring := raw == "true" || raw == "1"
		filter.IsRecurring = &recurring
	}
	return filter
}

func requestSummary(request *domain.Request) dto.RequestSummary {
	return dto.RequestSummary{
		ID:                 request.ID,
		ExternalKey:        request.ExternalKey,
		CustomerID:         request.CustomerID,
		RequestTypeID:      request.RequestTypeID,
		AgentID:            request.AgentID,
		Status:             string(request.Status),
		Tier:               request.Tier,
		Price:              request.Price,
		IsUrgent:           request.IsUrgent,
		IsRecurring:        request.IsRecurring,
		ScheduledAt:        request.ScheduledAt,
		FindAgentDeadline:  request.FindAgentDeadline,
		CompletionDeadline: request.CompletionDeadline,
		Metadata:           request.Metadata,
		CreatedAt:          request.CreatedAt,
		UpdatedAt:          request.UpdatedAt,
		ClosedAt:           request.ClosedAt,
	}
}

func requestDetail(request *domain.Request, actions []lifecycle.Action) dto.RequestDetail {
	names := make([]string, len(actions))
	for i, action := range actions {
		names[i] = string(action)
	}
	return dto.RequestDetail{
		RequestSummary:  requestSummary(request),
		PossibleActions: names,
	}
}
