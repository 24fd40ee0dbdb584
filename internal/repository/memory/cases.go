package memory

import (
	"context"
	"slices"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/pkg/util"
)

type caseRepository struct {
	store *Store
}

// NewCaseRepository returns a CaseRepository over store.
func NewCaseRepository(store *Store) repository.CaseRepository {
	return &caseRepository{store: store}
}

func (r *caseRepository) Create(_ context.Context, c *domain.Case) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return pkgerrors.Wrap(repository.ErrDuplicate, "create case")
	}
	s.cases[c.ID] = *c
	return nil
}

func (r *caseRepository) Update(_ context.Context, c *domain.Case) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; !ok {
		return pkgerrors.Wrap(repository.ErrNotFound, "update case")
	}
	s.cases[c.ID] = *c
	return nil
}

func (r *caseRepository) MarkPaid(_ context.Context, id string, from []domain.CaseStatus, at time.Time) (*domain.Case, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, pkgerrors.Wrap(repository.ErrNotFound, "mark case paid")
	}
	if !slices.Contains(from, c.Status) {
		return nil, pkgerrors.Wrap(repository.ErrStaleState, "mark case paid")
	}
	c.Status = domain.CaseStatusPaid
	c.PaidAt = &at
	c.UpdatedAt = at
	s.cases[id] = c
	return &c, nil
}

func (r *caseRepository) GetByID(_ context.Context, id string) (*domain.Case, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, pkgerrors.Wrap(repository.ErrNotFound, "get case")
	}
	return &c, nil
}

func (r *caseRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[id]; !ok {
		return pkgerrors.Wrap(repository.ErrNotFound, "delete case")
	}
	delete(s.cases, id)
	return nil
}

func (r *caseRepository) DeleteByUser(_ context.Context, userID string) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, c := range s.cases {
		if c.UserID == userID {
			delete(s.cases, id)
			removed++
		}
	}
	return removed, nil
}

func (r *caseRepository) List(ctx context.Context, filter repository.CaseFilter, p util.Page) ([]domain.Case, int, error) {
	all, err := r.Find(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return util.Slice(all, p), len(all), nil
}

func (r *caseRepository) Find(_ context.Context, filter repository.CaseFilter) ([]domain.Case, error) {
	s := r.store
	s.mu.RLock()
	out := make([]domain.Case, 0, len(s.cases))
	for _, c := range s.cases {
		if filter.Matches(&c) {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()
	sortNewestFirst(out, func(c *domain.Case) (time.Time, string) { return c.CreatedAt, c.ID })
	return out, nil
}
