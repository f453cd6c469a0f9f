package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/bcgov/digital-marketplace-sub005/internal/utils"
)

// RequireRole ensures the authenticated user holds one of the allowed roles.
// Unknown or missing roles never pass: there is no default allow.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		role = strings.ToLower(strings.TrimSpace(role))
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
