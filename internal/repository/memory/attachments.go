package memory

import (
	"context"
	"sort"

	pkgerrors "github.com/pkg/errors"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
)

type queryAttachmentRepository struct {
	store *Store
}

// NewQueryAttachmentRepository returns a QueryAttachmentRepository over store.
func NewQueryAttachmentRepository(store *Store) repository.QueryAttachmentRepository {
	return &queryAttachmentRepository{store: store}
}

func (r *queryAttachmentRepository) Create(_ context.Context, a *domain.QueryAttachment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attachments[a.ID]; ok {
		return pkgerrors.Wrap(repository.ErrDuplicate, "create attachment")
	}
	s.seq++
	s.attachments[a.ID] = attachmentRecord{seq: s.seq, attachment: *a}
	return nil
}

func (r *queryAttachmentRepository) GetByID(_ context.Context, id string) (*domain.QueryAttachment, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.attachments[id]
	if !ok {
		return nil, pkgerrors.Wrap(repository.ErrNotFound, "get attachment")
	}
	a := rec.attachment
	return &a, nil
}

func (r *queryAttachmentRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attachments[id]; !ok {
		return pkgerrors.Wrap(repository.ErrNotFound, "delete attachment")
	}
	delete(s.attachments, id)
	return nil
}

func (r *queryAttachmentRepository) ListByQueryIDs(_ context.Context, queryIDs []string) ([]domain.QueryAttachment, error) {
	return r.listWhere(func(a *domain.QueryAttachment) bool {
		return a.QueryID != nil && contains(queryIDs, *a.QueryID)
	}), nil
}

func (r *queryAttachmentRepository) ListByResponseIDs(_ context.Context, responseIDs []string) ([]domain.QueryAttachment, error) {
	return r.listWhere(func(a *domain.QueryAttachment) bool {
		return a.ResponseID != nil && contains(responseIDs, *a.ResponseID)
	}), nil
}

func (r *queryAttachmentRepository) listWhere(match func(*domain.QueryAttachment) bool) []domain.QueryAttachment {
	s := r.store
	s.mu.RLock()
	records := make([]attachmentRecord, 0)
	for _, rec := range s.attachments {
		if match(&rec.attachment) {
			records = append(records, rec)
		}
	}
	s.mu.RUnlock()
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })
	out := make([]domain.QueryAttachment, len(records))
	for i, rec := range records {
		out[i] = rec.attachment
	}
	return out
}

func (r *queryAttachmentRepository) DeleteByQuery(_ context.Context, queryID string, responseIDs []string) (int, error) {
	return r.deleteWhere(func(a *domain.QueryAttachment) bool {
		return (a.QueryID != nil && *a.QueryID == queryID) ||
			(a.ResponseID != nil && contains(responseIDs, *a.ResponseID))
	}), nil
}

func (r *queryAttachmentRepository) DeleteByResponse(_ context.Context, responseID string) (int, error) {
	return r.deleteWhere(func(a *domain.QueryAttachment) bool {
		return a.ResponseID != nil && *a.ResponseID == responseID
	}), nil
}

func (r *queryAttachmentRepository) deleteWhere(match func(*domain.QueryAttachment) bool) int {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.attachments {
		if match(&rec.attachment) {
			delete(s.attachments, id)
			removed++
		}
	}
	return removed
}
