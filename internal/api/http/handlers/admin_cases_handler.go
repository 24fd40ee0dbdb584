package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/violation-service/internal/api/dto"
	"github.com/spec-kit/violation-service/internal/service"
)

// AdminCasesHandler manages violation cases and payments.
type AdminCasesHandler struct {
	cases    *service.CaseService
	payments *service.PaymentService
}

// NewAdminCasesHandler constructs handler.
func NewAdminCasesHandler(cases *service.CaseService, payments *service.PaymentService) *AdminCasesHandler {
	return &AdminCasesHandler{cases: cases, payments: payments}
}

// List handles GET /admin/cases.
func (h *AdminCasesHandler) List(c *fiber.Ctx) error {
	res, err := h.cases.List(c.UserContext(), caseFilterFromQuery(c), parsePage(c))
	if err != nil {
		return err
	}
	return ok(c, res)
}

// Create handles POST /admin/cases.
func (h *AdminCasesHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateCaseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	record, err := h.cases.Create(c.UserContext(), actor, service.CaseCreateInput{
		UserID:        req.UserID,
		ViolationType: req.ViolationType,
		Violation:     req.Violation,
		Fine:          req.Fine,
		ProofURL:      req.ProofURL,
		Location:      req.Location,
		Date:          req.Date,
		DueDate:       req.DueDate,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return created(c, record)
}

// Get handles GET /admin/cases/:id.
func (h *AdminCasesHandler) Get(c *fiber.Ctx) error {
	found, err := h.cases.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, found)
}

// Update handles PATCH /admin/cases/:id.
func (h *AdminCasesHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCaseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	updated, err := h.cases.Update(c.UserContext(), actor, c.Params("id"), service.CaseUpdateInput{
		ViolationType: req.ViolationType,
		Violation:     req.Violation,
		Fine:          req.Fine,
		ProofURL:      req.ProofURL,
		Location:      req.Location,
		Date:          req.Date,
		DueDate:       req.DueDate,
		Status:        req.Status,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return ok(c, updated)
}

// BulkStatus handles POST /admin/cases/bulk-status.
func (h *AdminCasesHandler) BulkStatus(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.BulkCaseStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.cases.BulkStatus(c.UserContext(), actor, req.CaseIDs, req.Status)
	if err != nil {
		return err
	}
	return ok(c, res)
}

// Delete handles DELETE /admin/cases/:id.
func (h *AdminCasesHandler) Delete(c *fiber.Ctx) error {
	if err := h.cases.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return message(c, "case deleted")
}

// Payments handles GET /admin/cases/:id/payments.
func (h *AdminCasesHandler) Payments(c *fiber.Ctx) error {
	if _, err := h.cases.GetByID(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	items, err := h.payments.ListForCase(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, items)
}

// ListPayments handles GET /admin/payments.
func (h *AdminCasesHandler) ListPayments(c *fiber.Ctx) error {
	res, err := h.payments.List(c.UserContext(), paymentFilterFromQuery(c), parsePage(c))
	if err != nil {
		return err
	}
	return ok(c, res)
}
