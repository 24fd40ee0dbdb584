package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/pkg/util"
)

const userColumns = `id, name, email, password_hash, number_plate, role, is_active, status,
               email_verified, phone_verified, phone, address, notes,
               suspended_at, suspended_reason, suspended_by, last_login_at, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, name, email, password_hash, number_plate, role, is_active, status,
            email_verified, phone_verified, phone, address, notes,
            suspended_at, suspended_reason, suspended_by, last_login_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.NumberPlate,
		user.Role,
		user.IsActive,
		user.Status,
		user.EmailVerified,
		user.PhoneVerified,
		user.Phone,
		user.Address,
		user.Notes,
		user.SuspendedAt,
		user.SuspendedReason,
		user.SuspendedBy,
		user.LastLoginAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapError(err, "create user")
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, number_plate=$4, role=$5, is_active=$6,
            status=$7, email_verified=$8, phone_verified=$9, phone=$10, address=$11, notes=$12,
            suspended_at=$13, suspended_reason=$14, suspended_by=$15, last_login_at=$16, updated_at=$17
        WHERE id=$18`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.NumberPlate,
		user.Role,
		user.IsActive,
		user.Status,
		user.EmailVerified,
		user.PhoneVerified,
		user.Phone,
		user.Address,
		user.Notes,
		user.SuspendedAt,
		user.SuspendedReason,
		user.SuspendedBy,
		user.LastLoginAt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return mapError(err, "update user")
	}
	return requireAffected(cmd, "update user")
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, "SELECT "+userColumns+" FROM users WHERE id=$1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, "SELECT "+userColumns+" FROM users WHERE LOWER(email)=LOWER($1)", strings.TrimSpace(email))
}

func (r *userRepository) GetByNumberPlate(ctx context.Context, plate string) (*domain.User, error) {
	return r.fetchSingle(ctx, "SELECT "+userColumns+" FROM users WHERE UPPER(number_plate)=UPPER($1)", strings.TrimSpace(plate))
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, "get user")
	}
	return &user, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return mapError(err, "delete user")
	}
	return requireAffected(cmd, "delete user")
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, page util.Page) ([]domain.User, int, error) {
	w := userWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE "+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, "count users")
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		userColumns, w.String(), page.Limit, page.Skip())
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, mapError(err, "list users")
	}
	users, err := collect(rows, scanUser)
	if err != nil {
		return nil, 0, mapError(err, "list users")
	}
	return users, total, nil
}

func (r *userRepository) Find(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	w := userWhere(filter)
	rows, err := r.pool.Query(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+w.String()+" ORDER BY created_at DESC, id DESC", w.args...)
	if err != nil {
		return nil, mapError(err, "find users")
	}
	users, err := collect(rows, scanUser)
	return users, mapError(err, "find users")
}

func userWhere(filter UserFilter) *where {
	w := &where{}
	w.anyOf("id", filter.IDs)
	w.anyOf("role", strs(filter.Roles))
	w.anyOf("status", strs(filter.Statuses))
	if filter.IsActive != nil {
		w.add("is_active=$%[1]d", *filter.IsActive)
	}
	if filter.EmailVerified != nil {
		w.add("email_verified=$%[1]d", *filter.EmailVerified)
	}
	w.timeRange("created_at", filter.CreatedFrom, filter.CreatedTo)
	w.search(filter.SearchTerm, "name", "email", "COALESCE(number_plate, '')")
	return w
}

func scanUser(row scanner) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.NumberPlate,
		&user.Role,
		&user.IsActive,
		&user.Status,
		&user.EmailVerified,
		&user.PhoneVerified,
		&user.Phone,
		&user.Address,
		&user.Notes,
		&user.SuspendedAt,
		&user.SuspendedReason,
		&user.SuspendedBy,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
