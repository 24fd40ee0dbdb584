package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/violation-service/internal/api/dto"
	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/service"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

const defaultNotificationLimit = 20

// MeHandler serves the signed-in citizen's own resources.
type MeHandler struct {
	users         *service.UserService
	cases         *service.CaseService
	queries       *service.QueryService
	payments      *service.PaymentService
	stats         *service.StatsService
	notifications *service.NotificationService
}

// MeDependencies wires the services used by MeHandler.
type MeDependencies struct {
	Users         *service.UserService
	Cases         *service.CaseService
	Queries       *service.QueryService
	Payments      *service.PaymentService
	Stats         *service.StatsService
	Notifications *service.NotificationService
}

// NewMeHandler constructs handler.
func NewMeHandler(deps MeDependencies) *MeHandler {
	return &MeHandler{
		users:         deps.Users,
		cases:         deps.Cases,
		queries:       deps.Queries,
		payments:      deps.Payments,
		stats:         deps.Stats,
		notifications: deps.Notifications,
	}
}

// Profile returns the caller's account.
func (h *MeHandler) Profile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return ok(c, user)
}

// Stats returns the caller's violation rollup and case breakdown.
func (h *MeHandler) Stats(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	rollup, err := h.users.ViolationRollup(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	caseStats, err := h.stats.CaseStatsForUser(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"violations": rollup, "cases": caseStats})
}

// ListCases returns the caller's cases.
func (h *MeHandler) ListCases(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	res, err := h.cases.ListForUser(c.UserContext(), user.ID, caseFilterFromQuery(c), parsePage(c))
	if err != nil {
		return err
	}
	return ok(c, res)
}

// GetCase returns one of the caller's cases.
func (h *MeHandler) GetCase(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	found, err := h.cases.GetForUser(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, found)
}

// DisputeCase contests a pending case.
func (h *MeHandler) DisputeCase(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.DisputeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	updated, err := h.cases.Dispute(c.UserContext(), user, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return ok(c, updated)
}

// PayCase settles the fine of one of the caller's cases.
func (h *MeHandler) PayCase(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	payment, err := h.payments.RecordPayment(c.UserContext(), user, c.Params("id"), service.PaymentInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Method: domain.PaymentMethod{
			Type:  strings.TrimSpace(req.Method),
			Brand: req.Brand,
			Last4: req.Last4,
		},
		TransactionRef: req.TransactionRef,
	})
	if err != nil {
		return err
	}
	return created(c, payment)
}

// ListQueries returns the caller's support queries.
func (h *MeHandler) ListQueries(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	res, err := h.queries.ListForUser(c.UserContext(), user.ID, queryFilterFromQuery(c), parsePage(c))
	if err != nil {
		return err
	}
	return ok(c, res)
}

// CreateQuery opens a support query.
func (h *MeHandler) CreateQuery(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateQueryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	q, err := h.queries.Create(c.UserContext(), user, service.QueryCreateInput{
		CaseID:   req.CaseID,
		Subject:  req.Subject,
		Message:  req.Message,
		Category: req.Category,
		Priority: req.Priority,
		IsUrgent: req.IsUrgent,
	})
	if err != nil {
		return err
	}
	return created(c, q)
}

// GetQuery returns one of the caller's queries without admin-only fields.
func (h *MeHandler) GetQuery(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	q, err := h.queries.GetForUser(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, q)
}

// RespondToQuery appends a citizen reply to their own query.
func (h *MeHandler) RespondToQuery(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ResponseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	resp, err := h.queries.AddResponse(c.UserContext(), user, c.Params("id"), service.ResponseInput{
		Message:        req.Message,
		MarkAsResolved: req.MarkAsResolved,
	})
	if err != nil {
		return err
	}
	return created(c, resp.PublicView())
}

// UploadAttachment stores a file against one of the caller's queries.
func (h *MeHandler) UploadAttachment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return uploadAttachment(c, h.queries, user)
}

// DeleteAttachment removes an attachment the caller uploaded.
func (h *MeHandler) DeleteAttachment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.queries.DeleteAttachment(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return message(c, "attachment deleted")
}

// Notifications returns the caller's most recent notifications.
func (h *MeHandler) Notifications(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.notifications.ListForUser(c.UserContext(), user.ID, parseInt(c.Query("limit"), defaultNotificationLimit))
	if err != nil {
		return err
	}
	return ok(c, items)
}

func uploadAttachment(c *fiber.Ctx, queries *service.QueryService, actor *domain.User) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file is required", nil)
	}
	body, err := fh.Open()
	if err != nil {
		return apperrors.NewValidationError("file is unreadable", nil)
	}
	defer body.Close()

	att, err := queries.AddAttachment(c.UserContext(), actor, service.AttachmentInput{
		QueryID:      formValue(c, "queryId"),
		ResponseID:   formValue(c, "responseId"),
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get(fiber.HeaderContentType),
		Size:         fh.Size,
		Body:         body,
		IsPublic:     c.FormValue("isPublic") == "true",
	})
	if err != nil {
		return err
	}
	return created(c, att)
}

func formValue(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.FormValue(key))
	if val == "" {
		return nil
	}
	return &val
}
