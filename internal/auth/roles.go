package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/violation-service/internal/domain"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

// RequireRole ensures the principal has one of the allowed roles. With no
// roles it only requires authentication.
func RequireRole(allowed ...domain.UserRole) fiber.Handler {
	allowedSet := make(map[domain.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role()]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAdmin admits admin and super_admin.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.UserRoleAdmin, domain.UserRoleSuperAdmin)
}
