package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/verification-service/internal/api/dto"
	"github.com/spec-kit/verification-service/internal/auth"
	"github.com/spec-kit/verification-service/internal/domain"
	"github.com/spec-kit/verification-service/internal/service"
	apperrors "github.com/spec-kit/verification-service/pkg/util"
)

// RecurringHandler manages occurrence endpoints for recurring requests.
type RecurringHandler struct {
	recurring *service.RecurringService
	requests  *service.RequestService
}

// NewRecurringHandler constructs handler.
func NewRecurringHandler(recurring *service.RecurringService, requests *service.RequestService) *RecurringHandler {
	return &RecurringHandler{recurring: recurring, requests: requests}
}

// Progress GET /requests/:id/recurring/progress.
func (h *RecurringHandler) Progress(c *fiber.Ctx) error {
	_, request, err := h.authorize(c)
	if err != nil {
		return err
	}
	progress, err := h.recurring.Progress(c.UserContext(), request.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RecurringProgressResponse{
		TotalOccurrences:     progress.TotalOccurrences,
		CompletedCount:       progress.CompletedCount,
		PendingCount:         progress.PendingCount,
		CompletionPercentage: progress.CompletionPercentage,
		NextScheduledDate:    progress.NextScheduledDate,
		IsComplete:           progress.IsComplete,
	}})
}

// CompleteOccurrence POST /requests/:id/occurrences/:number/complete.
func (h *RecurringHandler) CompleteOccurrence(c *fiber.Ctx) error {
	principal, request, err := h.authorize(c)
	if err != nil {
		return err
	}
	number, err := occurrenceNumber(c)
	if err != nil {
		return err
	}
	var req dto.ResolveOccurrenceRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	agentID := resolveAgentID(principal, req.AgentID)
	occurrence, err := h.recurring.CompleteOccurrence(c.UserContext(), actorFor(principal), request.ID, number, agentID, req.DeliverableRef)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": occurrence})
}

// FailOccurrence POST /requests/:id/occurrences/:number/fail.
func (h *RecurringHandler) FailOccurrence(c *fiber.Ctx) error {
	principal, request, err := h.authorize(c)
	if err != nil {
		return err
	}
	number, err := occurrenceNumber(c)
	if err != nil {
		return err
	}
	var req dto.ResolveOccurrenceRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	agentID := resolveAgentID(principal, req.AgentID)
	occurrence, err := h.recurring.FailOccurrence(c.UserContext(), actorFor(principal), request.ID, number, agentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": occurrence})
}

// SkipOccurrence POST /requests/:id/occurrences/:number/skip.
func (h *RecurringHandler) SkipOccurrence(c *fiber.Ctx) error {
	principal, request, err := h.authorize(c)
	if err != nil {
		return err
	}
	number, err := occurrenceNumber(c)
	if err != nil {
		return err
	}
	occurrence, err := h.recurring.SkipOccurrence(c.UserContext(), actorFor(principal), request.ID, number)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": occurrence})
}

func (h *RecurringHandler) authorize(c *fiber.Ctx) (*auth.Principal, *domain.Request, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, nil, apperrors.NewUnauthorized("authentication required")
	}
	request, err := h.requests.GetRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, nil, err
	}
	if !canViewRequest(principal, request) {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	if !request.IsRecurring {
		return nil, nil, apperrors.NewValidationError("request is not recurring", map[string]any{"request_id": request.ID})
	}
	return principal, request, nil
}

func occurrenceNumber(c *fiber.Ctx) (int, error) {
	number, err := c.ParamsInt("number")
	if err != nil || number < 1 {
		return 0, apperrors.NewValidationError("invalid occurrence number", nil)
	}
	return number, nil
}

func resolveAgentID(principal *auth.Principal, explicit *string) *string {
	if explicit != nil {
		return explicit
	}
	if principal.Role == auth.RoleAgent {
		agentID := principal.SubjectID
		return &agentID
	}
	return nil
}
