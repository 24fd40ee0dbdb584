package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/violation-service/internal/api/dto"
	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/service"
)

// AdminQueriesHandler handles the support desk.
type AdminQueriesHandler struct {
	queries *service.QueryService
}

// NewAdminQueriesHandler constructs handler.
func NewAdminQueriesHandler(queries *service.QueryService) *AdminQueriesHandler {
	return &AdminQueriesHandler{queries: queries}
}

// List handles GET /admin/queries.
func (h *AdminQueriesHandler) List(c *fiber.Ctx) error {
	res, err := h.queries.List(c.UserContext(), queryFilterFromQuery(c), parsePage(c))
	if err != nil {
		return err
	}
	return ok(c, res)
}

// Get handles GET /admin/queries/:id.
func (h *AdminQueriesHandler) Get(c *fiber.Ctx) error {
	q, err := h.queries.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, q)
}

// Update handles PATCH /admin/queries/:id.
func (h *AdminQueriesHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateQueryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	q, err := h.queries.Update(c.UserContext(), actor, c.Params("id"), service.QueryUpdateInput{
		Subject:  req.Subject,
		Message:  req.Message,
		Category: req.Category,
		Priority: req.Priority,
		Status:   req.Status,
		IsUrgent: req.IsUrgent,
	})
	if err != nil {
		return err
	}
	return ok(c, q)
}

// BulkStatus handles POST /admin/queries/bulk-status.
func (h *AdminQueriesHandler) BulkStatus(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.BulkQueryStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		req.Status = domain.QueryStatusResolved
	}
	res, err := h.queries.BulkStatus(c.UserContext(), actor, req.QueryIDs, req.Status)
	if err != nil {
		return err
	}
	return ok(c, res)
}

// Delete handles DELETE /admin/queries/:id.
func (h *AdminQueriesHandler) Delete(c *fiber.Ctx) error {
	if err := h.queries.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return message(c, "query deleted")
}

// AddResponse handles POST /admin/queries/:id/responses.
func (h *AdminQueriesHandler) AddResponse(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ResponseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	resp, err := h.queries.AddResponse(c.UserContext(), actor, c.Params("id"), responseInput(req))
	if err != nil {
		return err
	}
	return created(c, resp)
}

// EditResponse handles PATCH /admin/queries/responses/:id.
func (h *AdminQueriesHandler) EditResponse(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ResponseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	resp, err := h.queries.EditResponse(c.UserContext(), actor, c.Params("id"), responseInput(req))
	if err != nil {
		return err
	}
	return ok(c, resp)
}

// DeleteResponse handles DELETE /admin/queries/responses/:id.
func (h *AdminQueriesHandler) DeleteResponse(c *fiber.Ctx) error {
	if err := h.queries.DeleteResponse(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return message(c, "response deleted")
}

// Upload handles POST /admin/uploads.
func (h *AdminQueriesHandler) Upload(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	return uploadAttachment(c, h.queries, actor)
}

// DeleteAttachment handles DELETE /admin/attachments/:id.
func (h *AdminQueriesHandler) DeleteAttachment(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.queries.DeleteAttachment(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return message(c, "attachment deleted")
}

func responseInput(req dto.ResponseRequest) service.ResponseInput {
	return service.ResponseInput{
		Message:        req.Message,
		MarkAsResolved: req.MarkAsResolved,
		Template:       req.Template,
		Priority:       req.Priority,
		InternalNotes:  req.InternalNotes,
	}
}
