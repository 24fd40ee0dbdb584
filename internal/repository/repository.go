package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/pkg/util"
	"github.com/spec-kit/violation-service/pkg/util/errorutil"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errorutil.ErrRecordNotFound
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errorutil.ErrDuplicateKey
	// ErrStaleState is returned when a conditional update matches no row in the expected state.
	ErrStaleState = errorutil.ErrStaleState
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByNumberPlate(ctx context.Context, plate string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter UserFilter, page util.Page) ([]domain.User, int, error)
	Find(ctx context.Context, filter UserFilter) ([]domain.User, error)
}

// CaseRepository encapsulates violation case persistence.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	Update(ctx context.Context, c *domain.Case) error
	// MarkPaid moves the case to paid only while its status is one of from.
	MarkPaid(ctx context.Context, id string, from []domain.CaseStatus, at time.Time) (*domain.Case, error)
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, filter CaseFilter, page util.Page) ([]domain.Case, int, error)
	Find(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
}

// QueryRepository encapsulates support query persistence.
type QueryRepository interface {
	Create(ctx context.Context, q *domain.Query) error
	Update(ctx context.Context, q *domain.Query) error
	GetByID(ctx context.Context, id string) (*domain.Query, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter QueryFilter, page util.Page) ([]domain.Query, int, error)
	Find(ctx context.Context, filter QueryFilter) ([]domain.Query, error)
}

// QueryResponseRepository manages query thread messages.
type QueryResponseRepository interface {
	Create(ctx context.Context, r *domain.QueryResponse) error
	Update(ctx context.Context, r *domain.QueryResponse) error
	GetByID(ctx context.Context, id string) (*domain.QueryResponse, error)
	Delete(ctx context.Context, id string) error
	// ListByQueryIDs returns every response of the given queries ordered by respondedAt ascending.
	ListByQueryIDs(ctx context.Context, queryIDs []string) ([]domain.QueryResponse, error)
	DeleteByQuery(ctx context.Context, queryID string) (int, error)
}

// QueryAttachmentRepository persists attachment metadata.
type QueryAttachmentRepository interface {
	Create(ctx context.Context, a *domain.QueryAttachment) error
	GetByID(ctx context.Context, id string) (*domain.QueryAttachment, error)
	Delete(ctx context.Context, id string) error
	// ListByQueryIDs and ListByResponseIDs return attachments in insertion order.
	ListByQueryIDs(ctx context.Context, queryIDs []string) ([]domain.QueryAttachment, error)
	ListByResponseIDs(ctx context.Context, responseIDs []string) ([]domain.QueryAttachment, error)
	DeleteByQuery(ctx context.Context, queryID string, responseIDs []string) (int, error)
	DeleteByResponse(ctx context.Context, responseID string) (int, error)
}

// PaymentRepository persists payment transactions.
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.PaymentTransaction) error
	GetByID(ctx context.Context, id string) (*domain.PaymentTransaction, error)
	List(ctx context.Context, filter PaymentFilter, page util.Page) ([]domain.PaymentTransaction, int, error)
	Find(ctx context.Context, filter PaymentFilter) ([]domain.PaymentTransaction, error)
}

// Set bundles one repository per collection.
type Set struct {
	Users       UserRepository
	Cases       CaseRepository
	Queries     QueryRepository
	Responses   QueryResponseRepository
	Attachments QueryAttachmentRepository
	Payments    PaymentRepository
}

// NewPostgresSet wires every Postgres repository over pool.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Users:       NewUserRepository(pool),
		Cases:       NewCaseRepository(pool),
		Queries:     NewQueryRepository(pool),
		Responses:   NewQueryResponseRepository(pool),
		Attachments: NewQueryAttachmentRepository(pool),
		Payments:    NewPaymentRepository(pool),
	}
}
