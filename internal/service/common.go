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
	"github.com/spec-kit/violation-service/pkg/util"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

// Clock returns the current instant. Services default to util.Now.
type Clock func() time.Time

// BulkResult reports the outcome of a multi-id operation. Failed maps ids to reasons.
type BulkResult struct {
	Requested int               `json:"requested"`
	Updated   int               `json:"updated"`
	Failed    map[string]string `json:"failed"`
}

func newBulkResult(ids []string) BulkResult {
	return BulkResult{Requested: len(ids), Failed: map[string]string{}}
}

func (r *BulkResult) record(id string, err error) {
	if err == nil {
		r.Updated++
		return
	}
	r.Failed[id] = apperrors.ToDomainError(err).Message
}

// uniqueIDs trims ids and drops blanks and repeats, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func requireIDs(ids []string) ([]string, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("At least one id is required", nil)
	}
	return ids, nil
}

// notFoundOr converts a repository miss into a NotFoundError for resource.
func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil && logger != nil {
		logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return util.Now
	}
	return c
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// trimmedOptional trims v and maps blanks to nil.
func trimmedOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func stringPreview(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}

func isAdmin(actor *domain.User) bool {
	return actor != nil && actor.Role.IsAdmin()
}

func actorID(actor *domain.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
