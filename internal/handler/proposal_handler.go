package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/bcgov/digital-marketplace-sub005/internal/dto"
	"github.com/bcgov/digital-marketplace-sub005/internal/observability"
	"github.com/bcgov/digital-marketplace-sub005/internal/service"
	"github.com/bcgov/digital-marketplace-sub005/internal/utils"
)

// ProposalHandler wires proposal HTTP routes.
type ProposalHandler struct {
	service service.ProposalService
	logger  zerolog.Logger
}

// NewProposalHandler constructs the handler.
func NewProposalHandler(service service.ProposalService, logger zerolog.Logger) *ProposalHandler {
	return &ProposalHandler{
		service: service,
		logger:  logger.With().Str("component", "proposal_handler").Logger(),
	}
}

// Register attaches proposal endpoints to the router group.
func (h *ProposalHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Patch("/:id/status", h.updateStatus)
}

// RegisterOpportunityRoutes attaches the opportunity-scoped listing.
func (h *ProposalHandler) RegisterOpportunityRoutes(router fiber.Router) {
	router.Get("/:id/proposals", h.list)
}

func (h *ProposalHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	proposal, err := h.service.Get(c.UserContext(), principalFromContext(c), id)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SendSuccess(c, "proposal retrieved", proposal)
}

func (h *ProposalHandler) list(c *fiber.Ctx) error {
	opportunityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	proposals, err := h.service.ListForOpportunity(c.UserContext(), principalFromContext(c), opportunityID)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SendSuccess(c, "proposals retrieved", proposals)
}

func (h *ProposalHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ProposalStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	proposal, err := h.service.UpdateStatus(c.UserContext(), principalFromContext(c), id, payload)
	if err != nil {
		return handleError(c, err)
	}

	observability.StatusChanges().WithLabelValues("proposal", string(proposal.Status)).Inc()
	return utils.SendSuccess(c, "proposal status updated", proposal)
}
