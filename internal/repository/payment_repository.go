package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/pkg/util"
)

const paymentColumns = `id, violation_id, user_id, amount, currency, status, method_type, method_brand,
               method_last4, transaction_ref, paid_at, created_at, updated_at`

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository builds repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.PaymentTransaction) error {
	const query = `
        INSERT INTO payments (id, violation_id, user_id, amount, currency, status, method_type, method_brand,
            method_last4, transaction_ref, paid_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.ViolationID,
		p.UserID,
		p.Amount,
		p.Currency,
		p.Status,
		p.Method.Type,
		p.Method.Brand,
		p.Method.Last4,
		p.TransactionRef,
		p.PaidAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return mapError(err, "create payment")
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.PaymentTransaction, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, "SELECT "+paymentColumns+" FROM payments WHERE id=$1", id))
	if err != nil {
		return nil, mapError(err, "get payment")
	}
	return &p, nil
}

func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter, page util.Page) ([]domain.PaymentTransaction, int, error) {
	w := paymentWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM payments WHERE "+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, "count payments")
	}

	query := fmt.Sprintf(`SELECT %s FROM payments WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		paymentColumns, w.String(), page.Limit, page.Skip())
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, mapError(err, "list payments")
	}
	payments, err := collect(rows, scanPayment)
	if err != nil {
		return nil, 0, mapError(err, "list payments")
	}
	return payments, total, nil
}

func (r *paymentRepository) Find(ctx context.Context, filter PaymentFilter) ([]domain.PaymentTransaction, error) {
	w := paymentWhere(filter)
	rows, err := r.pool.Query(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE "+w.String()+" ORDER BY created_at DESC, id DESC", w.args...)
	if err != nil {
		return nil, mapError(err, "find payments")
	}
	payments, err := collect(rows, scanPayment)
	return payments, mapError(err, "find payments")
}

func paymentWhere(filter PaymentFilter) *where {
	w := &where{}
	w.anyOf("violation_id", filter.ViolationIDs)
	w.anyOf("user_id", filter.UserIDs)
	w.anyOf("status", strs(filter.Statuses))
	w.timeRange("created_at", filter.CreatedFrom, filter.CreatedTo)
	return w
}

func scanPayment(row scanner) (domain.PaymentTransaction, error) {
	var p domain.PaymentTransaction
	err := row.Scan(
		&p.ID,
		&p.ViolationID,
		&p.UserID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.Method.Type,
		&p.Method.Brand,
		&p.Method.Last4,
		&p.TransactionRef,
		&p.PaidAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
