package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/violation-service/internal/domain"
)

const responseColumns = `id, query_id, message, responded_by, responded_at, is_from_admin, template, priority,
               internal_notes, is_edited, edited_at, created_at, updated_at`

type queryResponseRepository struct {
	pool *pgxpool.Pool
}

// NewQueryResponseRepository builds repository.
func NewQueryResponseRepository(pool *pgxpool.Pool) QueryResponseRepository {
	return &queryResponseRepository{pool: pool}
}

func (r *queryResponseRepository) Create(ctx context.Context, resp *domain.QueryResponse) error {
	const query = `
        INSERT INTO query_responses (id, query_id, message, responded_by, responded_at, is_from_admin, template,
            priority, internal_notes, is_edited, edited_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := r.pool.Exec(ctx, query,
		resp.ID,
		resp.QueryID,
		resp.Message,
		resp.RespondedBy,
		resp.RespondedAt,
		resp.IsFromAdmin,
		resp.Template,
		resp.Priority,
		resp.InternalNotes,
		resp.IsEdited,
		resp.EditedAt,
		resp.CreatedAt,
		resp.UpdatedAt,
	)
	return mapError(err, "create response")
}

func (r *queryResponseRepository) Update(ctx context.Context, resp *domain.QueryResponse) error {
	const query = `
        UPDATE query_responses SET message=$1, template=$2, priority=$3, internal_notes=$4,
            is_edited=$5, edited_at=$6, updated_at=$7
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		resp.Message,
		resp.Template,
		resp.Priority,
		resp.InternalNotes,
		resp.IsEdited,
		resp.EditedAt,
		resp.UpdatedAt,
		resp.ID,
	)
	if err != nil {
		return mapError(err, "update response")
	}
	return requireAffected(cmd, "update response")
}

func (r *queryResponseRepository) GetByID(ctx context.Context, id string) (*domain.QueryResponse, error) {
	resp, err := scanResponse(r.pool.QueryRow(ctx, "SELECT "+responseColumns+" FROM query_responses WHERE id=$1", id))
	if err != nil {
		return nil, mapError(err, "get response")
	}
	return &resp, nil
}

func (r *queryResponseRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM query_responses WHERE id=$1`, id)
	if err != nil {
		return mapError(err, "delete response")
	}
	return requireAffected(cmd, "delete response")
}

func (r *queryResponseRepository) ListByQueryIDs(ctx context.Context, queryIDs []string) ([]domain.QueryResponse, error) {
	if len(queryIDs) == 0 {
		return []domain.QueryResponse{}, nil
	}
	rows, err := r.pool.Query(ctx,
		"SELECT "+responseColumns+" FROM query_responses WHERE query_id = ANY($1) ORDER BY responded_at ASC, id ASC",
		queryIDs)
	if err != nil {
		return nil, mapError(err, "list responses")
	}
	responses, err := collect(rows, scanResponse)
	return responses, mapError(err, "list responses")
}

func (r *queryResponseRepository) DeleteByQuery(ctx context.Context, queryID string) (int, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM query_responses WHERE query_id=$1`, queryID)
	if err != nil {
		return 0, mapError(err, "delete query responses")
	}
	return int(cmd.RowsAffected()), nil
}

func scanResponse(row scanner) (domain.QueryResponse, error) {
	var resp domain.QueryResponse
	err := row.Scan(
		&resp.ID,
		&resp.QueryID,
		&resp.Message,
		&resp.RespondedBy,
		&resp.RespondedAt,
		&resp.IsFromAdmin,
		&resp.Template,
		&resp.Priority,
		&resp.InternalNotes,
		&resp.IsEdited,
		&resp.EditedAt,
		&resp.CreatedAt,
		&resp.UpdatedAt,
	)
	return resp, err
}
