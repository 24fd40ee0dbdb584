package memory

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/pkg/util"
)

type paymentRepository struct {
	store *Store
}

// NewPaymentRepository returns a PaymentRepository over store.
func NewPaymentRepository(store *Store) repository.PaymentRepository {
	return &paymentRepository{store: store}
}

func (r *paymentRepository) Create(_ context.Context, p *domain.PaymentTransaction) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; ok {
		return pkgerrors.Wrap(repository.ErrDuplicate, "create payment")
	}
	s.payments[p.ID] = *p
	return nil
}

func (r *paymentRepository) GetByID(_ context.Context, id string) (*domain.PaymentTransaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, pkgerrors.Wrap(repository.ErrNotFound, "get payment")
	}
	return &p, nil
}

func (r *paymentRepository) List(ctx context.Context, filter repository.PaymentFilter, p util.Page) ([]domain.PaymentTransaction, int, error) {
	all, err := r.Find(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return util.Slice(all, p), len(all), nil
}

func (r *paymentRepository) Find(_ context.Context, filter repository.PaymentFilter) ([]domain.PaymentTransaction, error) {
	s := r.store
	s.mu.RLock()
	out := make([]domain.PaymentTransaction, 0, len(s.payments))
	for _, p := range s.payments {
		if filter.Matches(&p) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()
	sortNewestFirst(out, func(p *domain.PaymentTransaction) (time.Time, string) { return p.CreatedAt, p.ID })
	return out, nil
}
