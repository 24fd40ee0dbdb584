package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/pkg/util"
)

const queryColumns = `id, user_id, case_id, subject, message, category, priority, status, is_urgent,
               last_response_at, resolved_at, created_at, updated_at`

type queryRepository struct {
	pool *pgxpool.Pool
}

// NewQueryRepository builds repository.
func NewQueryRepository(pool *pgxpool.Pool) QueryRepository {
	return &queryRepository{pool: pool}
}

func (r *queryRepository) Create(ctx context.Context, q *domain.Query) error {
	const query = `
        INSERT INTO queries (id, user_id, case_id, subject, message, category, priority, status, is_urgent,
            last_response_at, resolved_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := r.pool.Exec(ctx, query,
		q.ID,
		q.UserID,
		q.CaseID,
		q.Subject,
		q.Message,
		q.Category,
		q.Priority,
		q.Status,
		q.IsUrgent,
		q.LastResponseAt,
		q.ResolvedAt,
		q.CreatedAt,
		q.UpdatedAt,
	)
	return mapError(err, "create query")
}

func (r *queryRepository) Update(ctx context.Context, q *domain.Query) error {
	const query = `
        UPDATE queries SET case_id=$1, subject=$2, message=$3, category=$4, priority=$5, status=$6,
            is_urgent=$7, last_response_at=$8, resolved_at=$9, updated_at=$10
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		q.CaseID,
		q.Subject,
		q.Message,
		q.Category,
		q.Priority,
		q.Status,
		q.IsUrgent,
		q.LastResponseAt,
		q.ResolvedAt,
		q.UpdatedAt,
		q.ID,
	)
	if err != nil {
		return mapError(err, "update query")
	}
	return requireAffected(cmd, "update query")
}

func (r *queryRepository) GetByID(ctx context.Context, id string) (*domain.Query, error) {
	q, err := scanQuery(r.pool.QueryRow(ctx, "SELECT "+queryColumns+" FROM queries WHERE id=$1", id))
	if err != nil {
		return nil, mapError(err, "get query")
	}
	return &q, nil
}

func (r *queryRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM queries WHERE id=$1`, id)
	if err != nil {
		return mapError(err, "delete query")
	}
	return requireAffected(cmd, "delete query")
}

func (r *queryRepository) List(ctx context.Context, filter QueryFilter, page util.Page) ([]domain.Query, int, error) {
	w := queryWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM queries WHERE "+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, "count queries")
	}

	sql := fmt.Sprintf(`SELECT %s FROM queries WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		queryColumns, w.String(), page.Limit, page.Skip())
	rows, err := r.pool.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, 0, mapError(err, "list queries")
	}
	queries, err := collect(rows, scanQuery)
	if err != nil {
		return nil, 0, mapError(err, "list queries")
	}
	return queries, total, nil
}

func (r *queryRepository) Find(ctx context.Context, filter QueryFilter) ([]domain.Query, error) {
	w := queryWhere(filter)
	rows, err := r.pool.Query(ctx,
		"SELECT "+queryColumns+" FROM queries WHERE "+w.String()+" ORDER BY created_at DESC, id DESC", w.args...)
	if err != nil {
		return nil, mapError(err, "find queries")
	}
	queries, err := collect(rows, scanQuery)
	return queries, mapError(err, "find queries")
}

func queryWhere(filter QueryFilter) *where {
	w := &where{}
	w.anyOf("id", filter.IDs)
	w.anyOf("user_id", filter.UserIDs)
	if filter.CaseID != nil {
		w.add("case_id=$%[1]d", *filter.CaseID)
	}
	w.anyOf("status", strs(filter.Statuses))
	w.anyOf("category", strs(filter.Categories))
	w.anyOf("priority", strs(filter.Priorities))
	if filter.IsUrgent != nil {
		w.add("is_urgent=$%[1]d", *filter.IsUrgent)
	}
	w.timeRange("created_at", filter.CreatedFrom, filter.CreatedTo)
	w.search(filter.SearchTerm, "subject", "message")
	return w
}

func scanQuery(row scanner) (domain.Query, error) {
	var q domain.Query
	err := row.Scan(
		&q.ID,
		&q.UserID,
		&q.CaseID,
		&q.Subject,
		&q.Message,
		&q.Category,
		&q.Priority,
		&q.Status,
		&q.IsUrgent,
		&q.LastResponseAt,
		&q.ResolvedAt,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	return q, err
}
