package memory

import (
	"context"
	"sort"

	pkgerrors "github.com/pkg/errors"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
)

type queryResponseRepository struct {
	store *Store
}

// NewQueryResponseRepository returns a QueryResponseRepository over store.
func NewQueryResponseRepository(store *Store) repository.QueryResponseRepository {
	return &queryResponseRepository{store: store}
}

func storedResponse(resp *domain.QueryResponse) domain.QueryResponse {
	out := *resp
	out.Attachments = nil
	return out
}

func (r *queryResponseRepository) Create(_ context.Context, resp *domain.QueryResponse) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[resp.ID]; ok {
		return pkgerrors.Wrap(repository.ErrDuplicate, "create response")
	}
	s.responses[resp.ID] = storedResponse(resp)
	return nil
}

func (r *queryResponseRepository) Update(_ context.Context, resp *domain.QueryResponse) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[resp.ID]; !ok {
		return pkgerrors.Wrap(repository.ErrNotFound, "update response")
	}
	s.responses[resp.ID] = storedResponse(resp)
	return nil
}

func (r *queryResponseRepository) GetByID(_ context.Context, id string) (*domain.QueryResponse, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.responses[id]
	if !ok {
		return nil, pkgerrors.Wrap(repository.ErrNotFound, "get response")
	}
	return &resp, nil
}

func (r *queryResponseRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[id]; !ok {
		return pkgerrors.Wrap(repository.ErrNotFound, "delete response")
	}
	delete(s.responses, id)
	return nil
}

func (r *queryResponseRepository) ListByQueryIDs(_ context.Context, queryIDs []string) ([]domain.QueryResponse, error) {
	s := r.store
	s.mu.RLock()
	out := make([]domain.QueryResponse, 0)
	for _, resp := range s.responses {
		if contains(queryIDs, resp.QueryID) {
			out = append(out, resp)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RespondedAt.Equal(out[j].RespondedAt) {
			return out[i].RespondedAt.Before(out[j].RespondedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *queryResponseRepository) DeleteByQuery(_ context.Context, queryID string) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, resp := range s.responses {
		if resp.QueryID == queryID {
			delete(s.responses, id)
			removed++
		}
	}
	return removed, nil
}
