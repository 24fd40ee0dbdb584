package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/violation-service/internal/domain"
)

const attachmentColumns = `id, query_id, response_id, file_name, original_name, file_size, file_type,
               url, public_id, uploaded_at, uploaded_by, is_public`

type queryAttachmentRepository struct {
	pool *pgxpool.Pool
}

// NewQueryAttachmentRepository constructs repository.
func NewQueryAttachmentRepository(pool *pgxpool.Pool) QueryAttachmentRepository {
	return &queryAttachmentRepository{pool: pool}
}

func (r *queryAttachmentRepository) Create(ctx context.Context, a *domain.QueryAttachment) error {
	const query = `
        INSERT INTO query_attachments (id, query_id, response_id, file_name, original_name, file_size, file_type,
            url, public_id, uploaded_at, uploaded_by, is_public)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.QueryID,
		a.ResponseID,
		a.FileName,
		a.OriginalName,
		a.FileSize,
		a.FileType,
		a.URL,
		a.PublicID,
		a.UploadedAt,
		a.UploadedBy,
		a.IsPublic,
	)
	return mapError(err, "create attachment")
}

func (r *queryAttachmentRepository) GetByID(ctx context.Context, id string) (*domain.QueryAttachment, error) {
	a, err := scanAttachment(r.pool.QueryRow(ctx, "SELECT "+attachmentColumns+" FROM query_attachments WHERE id=$1", id))
	if err != nil {
		return nil, mapError(err, "get attachment")
	}
	return &a, nil
}

func (r *queryAttachmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM query_attachments WHERE id=$1`, id)
	if err != nil {
		return mapError(err, "delete attachment")
	}
	return requireAffected(cmd, "delete attachment")
}

func (r *queryAttachmentRepository) ListByQueryIDs(ctx context.Context, queryIDs []string) ([]domain.QueryAttachment, error) {
	return r.listBy(ctx, "query_id", queryIDs)
}

func (r *queryAttachmentRepository) ListByResponseIDs(ctx context.Context, responseIDs []string) ([]domain.QueryAttachment, error) {
	return r.listBy(ctx, "response_id", responseIDs)
}

func (r *queryAttachmentRepository) listBy(ctx context.Context, column string, ids []string) ([]domain.QueryAttachment, error) {
	if len(ids) == 0 {
		return []domain.QueryAttachment{}, nil
	}
	rows, err := r.pool.Query(ctx,
		"SELECT "+attachmentColumns+" FROM query_attachments WHERE "+column+" = ANY($1) ORDER BY seq ASC", ids)
	if err != nil {
		return nil, mapError(err, "list attachments")
	}
	attachments, err := collect(rows, scanAttachment)
	return attachments, mapError(err, "list attachments")
}

func (r *queryAttachmentRepository) DeleteByQuery(ctx context.Context, queryID string, responseIDs []string) (int, error) {
	if responseIDs == nil {
		responseIDs = []string{}
	}
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM query_attachments WHERE query_id=$1 OR response_id = ANY($2)`, queryID, responseIDs)
	if err != nil {
		return 0, mapError(err, "delete query attachments")
	}
	return int(cmd.RowsAffected()), nil
}

func (r *queryAttachmentRepository) DeleteByResponse(ctx context.Context, responseID string) (int, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM query_attachments WHERE response_id=$1`, responseID)
	if err != nil {
		return 0, mapError(err, "delete response attachments")
	}
	return int(cmd.RowsAffected()), nil
}

func scanAttachment(row scanner) (domain.QueryAttachment, error) {
	var a domain.QueryAttachment
	err := row.Scan(
		&a.ID,
		&a.QueryID,
		&a.ResponseID,
		&a.FileName,
		&a.OriginalName,
		&a.FileSize,
		&a.FileType,
		&a.URL,
		&a.PublicID,
		&a.UploadedAt,
		&a.UploadedBy,
		&a.IsPublic,
	)
	return a, err
}
