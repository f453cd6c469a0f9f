package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/bcgov/digital-marketplace-sub005/internal/dto"
	"github.com/bcgov/digital-marketplace-sub005/internal/observability"
	"github.com/bcgov/digital-marketplace-sub005/internal/service"
	"github.com/bcgov/digital-marketplace-sub005/internal/utils"
)

// OpportunityHandler wires opportunity HTTP routes.
type OpportunityHandler struct {
	service service.OpportunityService
	reports service.ReportService
	logger  zerolog.Logger
}

// NewOpportunityHandler constructs the handler.
func NewOpportunityHandler(service service.OpportunityService, reports service.ReportService, logger zerolog.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		service: service,
		reports: reports,
		logger:  logger.With().Str("component", "opportunity_handler").Logger(),
	}
}

// Register attaches opportunity endpoints to the router group.
func (h *OpportunityHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Patch("/:id/status", h.updateStatus)
	router.Get("/:id/report", h.report)
}

func (h *OpportunityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	opportunity, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SendSuccess(c, "opportunity retrieved", opportunity)
}

func (h *OpportunityHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.OpportunityStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	opportunity, err := h.service.UpdateStatus(c.UserContext(), principalFromContext(c), id, payload)
	if err != nil {
		return handleError(c, err)
	}

	observability.StatusChanges().WithLabelValues("opportunity", string(opportunity.Status)).Inc()
	return utils.SendSuccess(c, "opportunity status updated", opportunity)
}

func (h *OpportunityHandler) report(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.reports.ScoreSummary(c.UserContext(), id)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SendSuccess(c, "score report retrieved", summary)
}
