package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/bcgov/digital-marketplace-sub005/internal/dto"
	"github.com/bcgov/digital-marketplace-sub005/internal/service"
	"github.com/bcgov/digital-marketplace-sub005/internal/utils"
)

// EvaluationHandler wires panel evaluation HTTP routes.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches evaluation endpoints to the router group.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:proposalID", h.read)
	router.Patch("/:proposalID", h.update)
	router.Post("/:proposalID/submit", h.submit)
	router.Get("/:proposalID/panel", h.listForProposal)
}

// RegisterOpportunityRoutes attaches the opportunity-scoped listings.
func (h *EvaluationHandler) RegisterOpportunityRoutes(router fiber.Router) {
	router.Get("/:id/evaluations", h.list)
	router.Get("/:id/evaluations/completion", h.completion)
}

func (h *EvaluationHandler) create(c *fiber.Ctx) error {
	var payload dto.EvaluationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.service.Create(c.UserContext(), principalFromContext(c), evaluationRole(c), payload)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evaluation created", evaluation)
}

func (h *EvaluationHandler) read(c *fiber.Ctx) error {
	proposalID, err := parseUintParam(c, "proposalID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	principal := principalFromContext(c)
	memberID := principal.UserID
	if raw := strings.TrimSpace(c.Query("member_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid member_id")
		}
		memberID = uint(parsed)
	}

	evaluation, err := h.service.ReadOne(c.UserContext(), principal, evaluationRole(c), proposalID, memberID)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SendSuccess(c, "evaluation retrieved", evaluation)
}

func (h *EvaluationHandler) update(c *fiber.Ctx) error {
	proposalID, err := parseUintParam(c, "proposalID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluationUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.service.Update(c.UserContext(), principalFromContext(c), evaluationRole(c), proposalID, payload)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SendSuccess(c, "evaluation updated", evaluation)
}

func (h *EvaluationHandler) submit(c *fiber.Ctx) error {
	proposalID, err := parseUintParam(c, "proposalID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluation, err := h.service.Submit(c.UserContext(), principalFromContext(c), evaluationRole(c), proposalID)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SendSuccess(c, "evaluation submitted", evaluation)
}

func (h *EvaluationHandler) list(c *fiber.Ctx) error {
	opportunityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	principal := principalFromContext(c)
	role := evaluationRole(c)

	// ?all=true lists every member's records, chair only.
	if strings.EqualFold(c.Query("all"), "true") {
		evaluations, err := h.service.ListForOpportunity(c.UserContext(), principal, role, opportunityID)
		if err != nil {
			return handleError(c, err)
		}
		return utils.SendSuccess(c, "evaluations retrieved", evaluations)
	}

	evaluations, err := h.service.ListMine(c.UserContext(), principal, role, opportunityID)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SendSuccess(c, "evaluations retrieved", evaluations)
}

// listForProposal returns every member's records for one proposal, the
// chair's view going into the consensus discussion.
func (h *EvaluationHandler) listForProposal(c *fiber.Ctx) error {
	proposalID, err := parseUintParam(c, "proposalID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluations, err := h.service.ListForProposal(c.UserContext(), principalFromContext(c), evaluationRole(c), proposalID)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SendSuccess(c, "evaluations retrieved", evaluations)
}

func (h *EvaluationHandler) completion(c *fiber.Ctx) error {
	opportunityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.Completion(c.UserContext(), opportunityID)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SendSuccess(c, "completion retrieved", report)
}
