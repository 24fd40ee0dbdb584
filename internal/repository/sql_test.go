package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/violation-service/internal/domain"
)

func TestWhere_BuildsPositionalClauses(t *testing.T) {
	term := "  Main_St "
	active := true
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	w := userWhere(UserFilter{
		Roles:       []domain.UserRole{domain.UserRoleAdmin},
		IsActive:    &active,
		CreatedFrom: &from,
		SearchTerm:  &term,
	})

	assert.Equal(t,
		`role = ANY($1) AND is_active=$2 AND created_at >= $3 AND `+
			`(LOWER(name) LIKE $4 ESCAPE '\' OR LOWER(email) LIKE $4 ESCAPE '\' OR LOWER(COALESCE(number_plate, '')) LIKE $4 ESCAPE '\')`,
		w.String())
	require.Len(t, w.args, 4)
	assert.Equal(t, []string{"admin"}, w.args[0])
	assert.Equal(t, `%main\_st%`, w.args[3])
}

func TestWhere_EmptyFilterMatchesAll(t *testing.T) {
	w := caseWhere(CaseFilter{})
	assert.Equal(t, "1=1", w.String())
	assert.Empty(t, w.args)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, "op"))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows, "get user"), ErrNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, "create user"), ErrDuplicate)

	other := errors.New("boom")
	err := mapError(other, "list")
	assert.ErrorIs(t, err, other)
	assert.Contains(t, err.Error(), "list: boom")
}
