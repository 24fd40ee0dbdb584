package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/violation-service/internal/api/dto"
	"github.com/spec-kit/violation-service/internal/service"
)

// AdminUsersHandler manages accounts on behalf of administrators.
type AdminUsersHandler struct {
	users *service.UserService
}

// NewAdminUsersHandler constructs handler.
func NewAdminUsersHandler(users *service.UserService) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

// List handles GET /admin/users.
func (h *AdminUsersHandler) List(c *fiber.Ctx) error {
	filter := service.UserListFilter{
		UserFilter:          userFilterFromQuery(c),
		HasViolations:       parseBool(c.Query("hasViolations")),
		HasOutstandingFines: parseBool(c.Query("hasOutstandingFines")),
	}
	res, err := h.users.List(c.UserContext(), filter, parsePage(c))
	if err != nil {
		return err
	}
	return ok(c, res)
}

// Create handles POST /admin/users.
func (h *AdminUsersHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), actor, service.UserCreateInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		NumberPlate:   req.NumberPlate,
		Role:          req.Role,
		Phone:         req.Phone,
		Address:       req.Address,
		Notes:         req.Notes,
		EmailVerified: req.EmailVerified,
	})
	if err != nil {
		return err
	}
	return created(c, user)
}

// Get handles GET /admin/users/:id.
func (h *AdminUsersHandler) Get(c *fiber.Ctx) error {
	detail, err := h.users.GetDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, detail)
}

// Update handles PATCH /admin/users/:id.
func (h *AdminUsersHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), actor, c.Params("id"), service.UserUpdateInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		NumberPlate:   req.NumberPlate,
		Role:          req.Role,
		Phone:         req.Phone,
		Address:       req.Address,
		Notes:         req.Notes,
		EmailVerified: req.EmailVerified,
		PhoneVerified: req.PhoneVerified,
	})
	if err != nil {
		return err
	}
	return ok(c, user)
}

// Action handles POST /admin/users/:id/actions.
func (h *AdminUsersHandler) Action(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UserActionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.ApplyAction(c.UserContext(), actor, c.Params("id"), req.Action, req.Reason)
	if err != nil {
		return err
	}
	return ok(c, user)
}

// Bulk handles POST /admin/users/bulk.
func (h *AdminUsersHandler) Bulk(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.BulkUserActionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.users.BulkAction(c.UserContext(), actor, req.UserIDs, req.Action, req.Reason)
	if err != nil {
		return err
	}
	return ok(c, res)
}

// Delete handles DELETE /admin/users/:id.
func (h *AdminUsersHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return message(c, "user deleted")
}
