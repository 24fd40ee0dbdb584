package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/violation-service/internal/auth"
	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/validation"
	"github.com/spec-kit/violation-service/pkg/util"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func message(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"success": true, "message": msg})
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, found := auth.PrincipalFromContext(c)
	if !found || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parsePage(c *fiber.Ctx) util.Page {
	return util.NewPage(parseInt(c.Query("page"), util.DefaultPage), parseInt(c.Query("limit"), util.DefaultLimit))
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseList[T ~string](val string) []T {
	if val == "" {
		return nil
	}
	var out []T
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, T(part))
		}
	}
	return out
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := validation.ParseDate(val)
	if err != nil {
		return nil
	}
	return &t
}

func parseBool(val string) *bool {
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &b
}

func parseFloat(val string) *float64 {
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil
	}
	return &f
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}
