package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/bcgov/digital-marketplace-sub005/internal/models"
	"github.com/bcgov/digital-marketplace-sub005/internal/repository"
	"github.com/bcgov/digital-marketplace-sub005/internal/service"
	"github.com/bcgov/digital-marketplace-sub005/internal/utils"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(parsed), nil
}

func principalFromContext(c *fiber.Ctx) service.Principal {
	principal := service.Principal{}
	if id, ok := c.Locals("user_id").(uint); ok {
		principal.UserID = id
	}
	if role, ok := c.Locals("user_role").(string); ok {
		principal.Role = role
	}
	return principal
}

// evaluationRole reads the ?consensus query flag: the chair's consensus
// record when set, the caller's individual record otherwise.
func evaluationRole(c *fiber.Ctx) models.EvaluationRole {
	if strings.EqualFold(c.Query("consensus"), "true") {
		return models.RoleChair
	}
	return models.RoleEvaluator
}

// handleError maps service errors onto HTTP status codes. Anything unmapped
// is a 500 with a generic message so internals never leak to clients.
func handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fieldError := range validationErrors {
			fields[strings.ToLower(fieldError.Field())] = fieldError.Tag()
		}
		return utils.SendValidationError(c, fields)
	}

	switch {
	case errors.Is(err, service.ErrOpportunityNotFound),
		errors.Is(err, service.ErrProposalNotFound),
		errors.Is(err, service.ErrEvaluationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotPanelEvaluator),
		errors.Is(err, service.ErrNotPanelChair):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrEvaluationExists),
		errors.Is(err, service.ErrEvaluationImmutable),
		errors.Is(err, repository.ErrEvaluationsIncomplete):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrScoreOutOfRange),
		errors.Is(err, service.ErrQuestionSetMismatch),
		errors.Is(err, service.ErrInvalidStatusChange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
