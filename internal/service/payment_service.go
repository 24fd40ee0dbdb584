package service

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/events"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/pkg/util"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

const amountTolerance = 0.005

var payableStatuses = []domain.CaseStatus{domain.CaseStatusPending, domain.CaseStatusDisputed}

// PaymentService settles fines.
type PaymentService struct {
	payments   repository.PaymentRepository
	cases      repository.CaseRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	currency   string
	now        Clock
}

// PaymentDependencies bundles collaborators for PaymentService.
type PaymentDependencies struct {
	PaymentRepo repository.PaymentRepository
	CaseRepo    repository.CaseRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Currency    string
	Clock       Clock
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "USD"
	}
	return &PaymentService{
		payments:   deps.PaymentRepo,
		cases:      deps.CaseRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		currency:   currency,
		now:        clockOrDefault(deps.Clock),
	}
}

// PaymentInput describes a payment against one case.
type PaymentInput struct {
	Amount         float64
	Currency       string
	Method         domain.PaymentMethod
	TransactionRef *string
}

// RecordPayment settles the payer's case in full and marks it paid.
func (s *PaymentService) RecordPayment(ctx context.Context, payer *domain.User, caseID string, in PaymentInput) (*domain.PaymentTransaction, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, notFoundOr(err, "Case", caseID)
	}
	if c.UserID != actorID(payer) {
		return nil, apperrors.NewNotFound("Case", map[string]any{"id": caseID})
	}
	if !slices.Contains(payableStatuses, c.Status) {
		return nil, apperrors.NewConflict("Case is not payable", map[string]any{"status": c.Status})
	}
	if math.Abs(in.Amount-c.Fine) > amountTolerance {
		return nil, apperrors.NewValidationError("Payment amount must equal the fine", map[string]any{
			"fine":   c.Fine,
			"amount": in.Amount,
		})
	}
	methodType := strings.TrimSpace(in.Method.Type)
	if methodType == "" {
		return nil, apperrors.NewValidationError("Payment method is required", nil)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.currency
	}

	now := s.now()
	payment := &domain.PaymentTransaction{
		ID:          util.GenerateID(util.PrefixPayment),
		ViolationID: c.ID,
		UserID:      c.UserID,
		Amount:      c.Fine,
		Currency:    currency,
		Status:      domain.PaymentStatusCompleted,
		Method: domain.PaymentMethod{
			Type:  methodType,
			Brand: trimmedOptional(in.Method.Brand),
			Last4: trimmedOptional(in.Method.Last4),
		},
		TransactionRef: trimmedOptional(in.TransactionRef),
		PaidAt:         &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	oldStatus := c.Status
	paid, err := s.cases.MarkPaid(ctx, c.ID, payableStatuses, now)
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, apperrors.NewConflict("Case is not payable", map[string]any{"id": caseID})
		}
		return nil, notFoundOr(err, "Case", caseID)
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		if restoreErr := s.cases.Update(ctx, c); restoreErr != nil {
			s.logger.Error("case status restore after failed payment",
				zap.String("case_id", c.ID),
				zap.String("payment_id", payment.ID),
				zap.Error(restoreErr))
		}
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventPaymentRecorded, c.UserID, c.ID, actorID(payer),
		events.PaymentRecordedPayload{PaymentID: payment.ID, Amount: payment.Amount, Currency: payment.Currency}))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventCaseStatusChanged, c.UserID, c.ID, actorID(payer),
		events.CaseStatusChangedPayload{OldStatus: oldStatus, NewStatus: paid.Status}))
	return payment, nil
}

// ListForCase returns every payment recorded against a case.
func (s *PaymentService) ListForCase(ctx context.Context, caseID string) ([]domain.PaymentTransaction, error) {
	return s.payments.Find(ctx, repository.PaymentFilter{ViolationIDs: []string{caseID}})
}

// List returns a page of payments.
func (s *PaymentService) List(ctx context.Context, filter repository.PaymentFilter, page util.Page) (util.Paginated[domain.PaymentTransaction], error) {
	payments, total, err := s.payments.List(ctx, filter, page)
	if err != nil {
		return util.Paginated[domain.PaymentTransaction]{}, err
	}
	return util.NewPaginated(payments, total, page), nil
}
