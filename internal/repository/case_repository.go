package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/pkg/util"
)

const caseColumns = `id, user_id, violation_type, violation, fine, proof_url, location, date, status,
               due_date, paid_at, disputed_at, resolved_at, dispute_reason, notes, created_by, created_at, updated_at`

type caseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository instantiates repository.
func NewCaseRepository(pool *pgxpool.Pool) CaseRepository {
	return &caseRepository{pool: pool}
}

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	const query = `
        INSERT INTO cases (id, user_id, violation_type, violation, fine, proof_url, location, date, status,
            due_date, paid_at, disputed_at, resolved_at, dispute_reason, notes, created_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.ViolationType,
		c.Violation,
		c.Fine,
		c.ProofURL,
		c.Location,
		c.Date,
		c.Status,
		c.DueDate,
		c.PaidAt,
		c.DisputedAt,
		c.ResolvedAt,
		c.DisputeReason,
		c.Notes,
		c.CreatedBy,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return mapError(err, "create case")
}

func (r *caseRepository) Update(ctx context.Context, c *domain.Case) error {
	const query = `
        UPDATE cases SET violation_type=$1, violation=$2, fine=$3, proof_url=$4, location=$5, date=$6,
            status=$7, due_date=$8, paid_at=$9, disputed_at=$10, resolved_at=$11, dispute_reason=$12,
            notes=$13, updated_at=$14
        WHERE id=$15`
	cmd, err := r.pool.Exec(ctx, query,
		c.ViolationType,
		c.Violation,
		c.Fine,
		c.ProofURL,
		c.Location,
		c.Date,
		c.Status,
		c.DueDate,
		c.PaidAt,
		c.DisputedAt,
		c.ResolvedAt,
		c.DisputeReason,
		c.Notes,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return mapError(err, "update case")
	}
	return requireAffected(cmd, "update case")
}

func (r *caseRepository) MarkPaid(ctx context.Context, id string, from []domain.CaseStatus, at time.Time) (*domain.Case, error) {
	const query = `
        UPDATE cases SET status=$2, paid_at=$3, updated_at=$3
        WHERE id=$1 AND status = ANY($4)
        RETURNING ` + caseColumns
	c, err := scanCase(r.pool.QueryRow(ctx, query, id, domain.CaseStatusPaid, at, strs(from)))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, pkgerrors.Wrap(ErrStaleState, "mark case paid")
	}
	if err != nil {
		return nil, mapError(err, "mark case paid")
	}
	return &c, nil
}

func (r *caseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	c, err := scanCase(r.pool.QueryRow(ctx, "SELECT "+caseColumns+" FROM cases WHERE id=$1", id))
	if err != nil {
		return nil, mapError(err, "get case")
	}
	return &c, nil
}

func (r *caseRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cases WHERE id=$1`, id)
	if err != nil {
		return mapError(err, "delete case")
	}
	return requireAffected(cmd, "delete case")
}

func (r *caseRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cases WHERE user_id=$1`, userID)
	if err != nil {
		return 0, mapError(err, "delete user cases")
	}
	return int(cmd.RowsAffected()), nil
}

func (r *caseRepository) List(ctx context.Context, filter CaseFilter, page util.Page) ([]domain.Case, int, error) {
	w := caseWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM cases WHERE "+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, "count cases")
	}

	query := fmt.Sprintf(`SELECT %s FROM cases WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		caseColumns, w.String(), page.Limit, page.Skip())
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, mapError(err, "list cases")
	}
	cases, err := collect(rows, scanCase)
	if err != nil {
		return nil, 0, mapError(err, "list cases")
	}
	return cases, total, nil
}

func (r *caseRepository) Find(ctx context.Context, filter CaseFilter) ([]domain.Case, error) {
	w := caseWhere(filter)
	rows, err := r.pool.Query(ctx,
		"SELECT "+caseColumns+" FROM cases WHERE "+w.String()+" ORDER BY created_at DESC, id DESC", w.args...)
	if err != nil {
		return nil, mapError(err, "find cases")
	}
	cases, err := collect(rows, scanCase)
	return cases, mapError(err, "find cases")
}

func caseWhere(filter CaseFilter) *where {
	w := &where{}
	w.anyOf("id", filter.IDs)
	w.anyOf("user_id", filter.UserIDs)
	w.anyOf("status", strs(filter.Statuses))
	w.anyOf("violation_type", strs(filter.ViolationTypes))
	if filter.MinFine != nil {
		w.add("fine >= $%[1]d", *filter.MinFine)
	}
	if filter.MaxFine != nil {
		w.add("fine <= $%[1]d", *filter.MaxFine)
	}
	w.timeRange("date", filter.DateFrom, filter.DateTo)
	w.search(filter.SearchTerm, "violation", "location")
	return w
}

func scanCase(row scanner) (domain.Case, error) {
	var c domain.Case
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.ViolationType,
		&c.Violation,
		&c.Fine,
		&c.ProofURL,
		&c.Location,
		&c.Date,
		&c.Status,
		&c.DueDate,
		&c.PaidAt,
		&c.DisputedAt,
		&c.ResolvedAt,
		&c.DisputeReason,
		&c.Notes,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}
