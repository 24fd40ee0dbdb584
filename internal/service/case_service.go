package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/events"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/internal/validation"
	"github.com/spec-kit/violation-service/pkg/util"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

const defaultDueAfter = 30 * 24 * time.Hour

// CaseService records violations and drives their lifecycle.
type CaseService struct {
	cases      repository.CaseRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	dueAfter   time.Duration
	now        Clock
}

// CaseDependencies bundles collaborators for CaseService.
type CaseDependencies struct {
	CaseRepo   repository.CaseRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	DueAfter   time.Duration
	Clock      Clock
}

// NewCaseService constructs the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	dueAfter := deps.DueAfter
	if dueAfter <= 0 {
		dueAfter = defaultDueAfter
	}
	return &CaseService{
		cases:      deps.CaseRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		dueAfter:   dueAfter,
		now:        clockOrDefault(deps.Clock),
	}
}

// CaseCreateInput describes a new violation case.
type CaseCreateInput struct {
	UserID        string
	ViolationType domain.ViolationType
	Violation     string
	Fine          float64
	ProofURL      string
	Location      string
	Date          string
	DueDate       *string
	Notes         *string
}

// CaseUpdateInput carries the fields to change on a case.
type CaseUpdateInput struct {
	ViolationType *domain.ViolationType
	Violation     *string
	Fine          *float64
	ProofURL      *string
	Location      *string
	Date          *string
	DueDate       *string
	Status        *domain.CaseStatus
	Notes         *string
}

// Create records a violation against an existing user.
func (s *CaseService) Create(ctx context.Context, actor *domain.User, in CaseCreateInput) (*domain.Case, error) {
	result := validation.ValidateCase(validation.CaseInput{
		Violation: in.Violation,
		Fine:      in.Fine,
		ProofURL:  in.ProofURL,
		Location:  in.Location,
		Date:      in.Date,
	})
	if !result.IsValid {
		return nil, apperrors.NewValidationErrors(result.Errors)
	}
	violationType := in.ViolationType
	if violationType == "" {
		violationType = domain.ViolationOther
	}
	if !violationType.Valid() {
		return nil, apperrors.NewValidationError("Invalid violation type", map[string]any{"violationType": violationType})
	}

	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, apperrors.NewValidationError("User id is required", nil)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, "User", userID)
	}

	date, _ := validation.ParseDate(in.Date)
	dueDate := date.Add(s.dueAfter)
	if in.DueDate != nil && strings.TrimSpace(*in.DueDate) != "" {
		parsed, err := validation.ParseDate(*in.DueDate)
		if err != nil {
			return nil, apperrors.NewValidationError("Please provide a valid due date", nil)
		}
		dueDate = parsed
	}

	now := s.now()
	c := &domain.Case{
		ID:            util.GenerateID(util.PrefixCase),
		UserID:        userID,
		ViolationType: violationType,
		Violation:     strings.TrimSpace(in.Violation),
		Fine:          validation.RoundCents(in.Fine),
		ProofURL:      strings.TrimSpace(in.ProofURL),
		Location:      strings.TrimSpace(in.Location),
		Date:          date,
		Status:        domain.CaseStatusPending,
		DueDate:       &dueDate,
		Notes:         trimmedOptional(in.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if actor != nil {
		createdBy := actor.ID
		c.CreatedBy = &createdBy
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventCaseCreated, c.UserID, c.ID, actorID(actor),
		events.CaseCreatedPayload{ViolationType: c.ViolationType, Fine: c.Fine, Location: c.Location}))
	s.logger.Info("case created", zap.String("case_id", c.ID), zap.String("user_id", c.UserID))
	return c, nil
}

// GetByID returns one case.
func (s *CaseService) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Case", id)
	}
	return c, nil
}

// GetForUser returns a case owned by userID. Cases of other users are reported as missing.
func (s *CaseService) GetForUser(ctx context.Context, userID, id string) (*domain.Case, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, apperrors.NewNotFound("Case", map[string]any{"id": id})
	}
	return c, nil
}

// Update merges the given fields and revalidates the resulting case.
func (s *CaseService) Update(ctx context.Context, actor *domain.User, id string, in CaseUpdateInput) (*domain.Case, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := validation.CaseInput{
		Violation: c.Violation,
		Fine:      c.Fine,
		ProofURL:  c.ProofURL,
		Location:  c.Location,
		Date:      c.Date.Format(time.RFC3339Nano),
	}
	if in.Violation != nil {
		merged.Violation = *in.Violation
	}
	if in.Fine != nil {
		merged.Fine = *in.Fine
	}
	if in.ProofURL != nil {
		merged.ProofURL = *in.ProofURL
	}
	if in.Location != nil {
		merged.Location = *in.Location
	}
	if in.Date != nil {
		merged.Date = *in.Date
	}
	if result := validation.ValidateCase(merged); !result.IsValid {
		return nil, apperrors.NewValidationErrors(result.Errors)
	}
	if in.ViolationType != nil && !in.ViolationType.Valid() {
		return nil, apperrors.NewValidationError("Invalid violation type", map[string]any{"violationType": *in.ViolationType})
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperrors.NewValidationError("Invalid status", map[string]any{"status": *in.Status})
	}

	now := s.now()
	oldStatus := c.Status
	if in.Status != nil {
		if err := c.TransitionTo(*in.Status, now); err != nil {
			return nil, transitionConflict(err, c.Status, *in.Status)
		}
	}
	if in.DueDate != nil {
		if strings.TrimSpace(*in.DueDate) == "" {
			c.DueDate = nil
		} else {
			due, err := validation.ParseDate(*in.DueDate)
			if err != nil {
				return nil, apperrors.NewValidationError("Please provide a valid due date", nil)
			}
			c.DueDate = &due
		}
	}
	if in.ViolationType != nil {
		c.ViolationType = *in.ViolationType
	}
	c.Violation = strings.TrimSpace(merged.Violation)
	c.Fine = validation.RoundCents(merged.Fine)
	c.ProofURL = strings.TrimSpace(merged.ProofURL)
	c.Location = strings.TrimSpace(merged.Location)
	if in.Date != nil {
		c.Date, _ = validation.ParseDate(*in.Date)
	}
	if in.Notes != nil {
		c.Notes = trimmedOptional(in.Notes)
	}
	c.UpdatedAt = now

	if err := s.cases.Update(ctx, c); err != nil {
		return nil, notFoundOr(err, "Case", id)
	}
	s.statusChanged(ctx, actor, c, oldStatus)
	return c, nil
}

// ChangeStatus moves a case along the transition table.
func (s *CaseService) ChangeStatus(ctx context.Context, actor *domain.User, id string, status domain.CaseStatus) (*domain.Case, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("Invalid status", map[string]any{"status": status})
	}
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := c.Status
	if err := c.TransitionTo(status, s.now()); err != nil {
		return nil, transitionConflict(err, oldStatus, status)
	}
	if oldStatus == status {
		return c, nil
	}
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, notFoundOr(err, "Case", id)
	}
	s.statusChanged(ctx, actor, c, oldStatus)
	return c, nil
}

// BulkStatus applies status to every id independently.
func (s *CaseService) BulkStatus(ctx context.Context, actor *domain.User, ids []string, status domain.CaseStatus) (BulkResult, error) {
	if !status.Valid() {
		return BulkResult{}, apperrors.NewValidationError("Invalid status", map[string]any{"status": status})
	}
	ids, err := requireIDs(ids)
	if err != nil {
		return BulkResult{}, err
	}
	result := newBulkResult(ids)
	for _, id := range ids {
		_, err := s.ChangeStatus(ctx, actor, id, status)
		result.record(id, err)
	}
	return result, nil
}

// Dispute lets the owner contest a pending case.
func (s *CaseService) Dispute(ctx context.Context, actor *domain.User, id, reason string) (*domain.Case, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("Dispute reason is required", nil)
	}
	c, err := s.GetForUser(ctx, actorID(actor), id)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.CaseStatusPending {
		return nil, apperrors.NewConflict("Only pending cases can be disputed", map[string]any{"status": c.Status})
	}
	oldStatus := c.Status
	if err := c.TransitionTo(domain.CaseStatusDisputed, s.now()); err != nil {
		return nil, transitionConflict(err, oldStatus, domain.CaseStatusDisputed)
	}
	c.DisputeReason = &reason
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, notFoundOr(err, "Case", id)
	}
	s.statusChanged(ctx, actor, c, oldStatus)
	return c, nil
}

// Delete removes a case.
func (s *CaseService) Delete(ctx context.Context, id string) error {
	if err := s.cases.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Case", id)
	}
	s.logger.Info("case deleted", zap.String("case_id", id))
	return nil
}

// List returns a page of cases matching filter.
func (s *CaseService) List(ctx context.Context, filter repository.CaseFilter, page util.Page) (util.Paginated[domain.Case], error) {
	cases, total, err := s.cases.List(ctx, filter, page)
	if err != nil {
		return util.Paginated[domain.Case]{}, err
	}
	return util.NewPaginated(cases, total, page), nil
}

// ListForUser restricts List to the cases of userID.
func (s *CaseService) ListForUser(ctx context.Context, userID string, filter repository.CaseFilter, page util.Page) (util.Paginated[domain.Case], error) {
	filter.UserIDs = []string{userID}
	return s.List(ctx, filter, page)
}

func (s *CaseService) statusChanged(ctx context.Context, actor *domain.User, c *domain.Case, oldStatus domain.CaseStatus) {
	if c.Status == oldStatus {
		return
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventCaseStatusChanged, c.UserID, c.ID, actorID(actor),
		events.CaseStatusChangedPayload{OldStatus: oldStatus, NewStatus: c.Status}))
}

// transitionConflict reports a rejected status change as a ConflictError.
func transitionConflict[S ~string](err error, from, to S) error {
	if errors.Is(err, domain.ErrInvalidTransition) {
		return apperrors.NewConflict("Invalid status transition", map[string]any{
			"from": string(from),
			"to":   string(to),
		})
	}
	return err
}
