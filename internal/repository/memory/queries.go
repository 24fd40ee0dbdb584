package memory

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/pkg/util"
)

type queryRepository struct {
	store *Store
}

// NewQueryRepository returns a QueryRepository over store.
func NewQueryRepository(store *Store) repository.QueryRepository {
	return &queryRepository{store: store}
}

// storedQuery drops the enrichment views, which are never persisted.
func storedQuery(q *domain.Query) domain.Query {
	out := *q
	out.Responses = nil
	out.Attachments = nil
	return out
}

func (r *queryRepository) Create(_ context.Context, q *domain.Query) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queries[q.ID]; ok {
		return pkgerrors.Wrap(repository.ErrDuplicate, "create query")
	}
	s.queries[q.ID] = storedQuery(q)
	return nil
}

func (r *queryRepository) Update(_ context.Context, q *domain.Query) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queries[q.ID]; !ok {
		return pkgerrors.Wrap(repository.ErrNotFound, "update query")
	}
	s.queries[q.ID] = storedQuery(q)
	return nil
}

func (r *queryRepository) GetByID(_ context.Context, id string) (*domain.Query, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.queries[id]
	if !ok {
		return nil, pkgerrors.Wrap(repository.ErrNotFound, "get query")
	}
	return &q, nil
}

func (r *queryRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queries[id]; !ok {
		return pkgerrors.Wrap(repository.ErrNotFound, "delete query")
	}
	delete(s.queries, id)
	return nil
}

func (r *queryRepository) List(ctx context.Context, filter repository.QueryFilter, p util.Page) ([]domain.Query, int, error) {
	all, err := r.Find(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return util.Slice(all, p), len(all), nil
}

func (r *queryRepository) Find(_ context.Context, filter repository.QueryFilter) ([]domain.Query, error) {
	s := r.store
	s.mu.RLock()
	out := make([]domain.Query, 0, len(s.queries))
	for _, q := range s.queries {
		if filter.Matches(&q) {
			out = append(out, q)
		}
	}
	s.mu.RUnlock()
	sortNewestFirst(out, func(q *domain.Query) (time.Time, string) { return q.CreatedAt, q.ID })
	return out, nil
}
