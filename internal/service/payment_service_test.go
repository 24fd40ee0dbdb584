package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/pkg/util"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

var card = domain.PaymentMethod{Type: "card", Brand: ptr("visa"), Last4: ptr("4242")}

func TestPaymentService_RecordPaymentSettlesCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	c := f.violation(t, ann.ID, 150)

	payment, err := f.payments.RecordPayment(ctx, ann, c.ID, PaymentInput{Amount: 150, Method: card})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "USD", payment.Currency)
	assert.Equal(t, c.ID, payment.ViolationID)
	assert.NotNil(t, payment.PaidAt)

	settled, err := f.cases.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusPaid, settled.Status)
	assert.NotNil(t, settled.PaidAt)

	history, err := f.payments.ListForCase(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, payment.ID, history[0].ID)

	_, err = f.payments.RecordPayment(ctx, ann, c.ID, PaymentInput{Amount: 150, Method: card})
	assert.True(t, apperrors.IsConflict(err))

	notes, err := f.inbox.List(ctx, ann.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Violation status updated", notes[0].Title)
	assert.Equal(t, "Payment received", notes[1].Title)
}

func TestPaymentService_RejectsWrongAmountAndForeignCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	bob := f.citizen(t, "Bob Ray", "bob@x.com", nil)
	c := f.violation(t, ann.ID, 150)

	_, err := f.payments.RecordPayment(ctx, ann, c.ID, PaymentInput{Amount: 149.5, Method: card})
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.payments.RecordPayment(ctx, ann, c.ID, PaymentInput{Amount: 150})
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.payments.RecordPayment(ctx, bob, c.ID, PaymentInput{Amount: 150, Method: card})
	assert.True(t, apperrors.IsNotFound(err))

	untouched, err := f.cases.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusPending, untouched.Status)

	res, err := f.payments.List(ctx, repository.PaymentFilter{UserIDs: []string{ann.ID}}, util.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
}

func TestPaymentService_DisputedCaseIsPayable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	c := f.violation(t, ann.ID, 80)
	_, err := f.cases.Dispute(ctx, ann, c.ID, "wrong plate")
	require.NoError(t, err)

	_, err = f.payments.RecordPayment(ctx, ann, c.ID, PaymentInput{Amount: 80.001, Currency: "eur", Method: card})
	require.NoError(t, err)

	res, err := f.payments.List(ctx, repository.PaymentFilter{Statuses: []domain.PaymentStatus{domain.PaymentStatusCompleted}}, util.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "EUR", res.Data[0].Currency)
	assert.InDelta(t, 80, res.Data[0].Amount, 0.0001)
}

// slowCaseReads widens the gap between reading a case and writing the payment.
type slowCaseReads struct {
	repository.CaseRepository
}

func (r slowCaseReads) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	c, err := r.CaseRepository.GetByID(ctx, id)
	time.Sleep(5 * time.Millisecond)
	return c, err
}

func TestPaymentService_ConcurrentPaymentsChargeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	c := f.violation(t, ann.ID, 100)

	payments := NewPaymentService(PaymentDependencies{
		PaymentRepo: f.repos.Payments,
		CaseRepo:    slowCaseReads{f.repos.Cases},
		Clock:       f.clock.Now,
	})

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = payments.RecordPayment(ctx, ann, c.ID, PaymentInput{Amount: 100, Method: card})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperrors.IsConflict(err), err)
	}
	assert.Equal(t, 1, succeeded)

	history, err := payments.ListForCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	settled, err := f.repos.Cases.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusPaid, settled.Status)
}

// failingPayments rejects every insert.
type failingPayments struct {
	repository.PaymentRepository
}

func (failingPayments) Create(context.Context, *domain.PaymentTransaction) error {
	return errors.New("insert failed")
}

func TestPaymentService_FailedInsertRestoresCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	c := f.violation(t, ann.ID, 60)

	payments := NewPaymentService(PaymentDependencies{
		PaymentRepo: failingPayments{f.repos.Payments},
		CaseRepo:    f.repos.Cases,
		Clock:       f.clock.Now,
	})
	_, err := payments.RecordPayment(ctx, ann, c.ID, PaymentInput{Amount: 60, Method: card})
	require.Error(t, err)

	restored, err := f.repos.Cases.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusPending, restored.Status)
	assert.Nil(t, restored.PaidAt)
}
