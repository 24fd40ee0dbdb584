package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/pkg/util"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

func TestUserService_CreateRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	assert.Equal(t, domain.UserRoleUser, ann.Role)
	assert.True(t, ann.IsActive)
	assert.Equal(t, domain.UserStatusActive, ann.Status)
	assert.NotEqual(t, "secret1", ann.PasswordHash)

	_, err := f.users.Create(ctx, nil, UserCreateInput{Name: "Ann Two", Email: " ANN@X.com ", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, msgEmailTaken, apperrors.ToDomainError(err).Message)
}

func TestUserService_CreateRejectsDuplicatePlate(t *testing.T) {
	f := newFixture(t)
	f.citizen(t, "Ann Lee", "ann@x.com", ptr("ab123"))

	_, err := f.users.Create(context.Background(), nil, UserCreateInput{
		Name: "Bob", Email: "bob@x.com", Password: "secret1", NumberPlate: ptr(" AB123 "),
	})
	require.Error(t, err)
	assert.Equal(t, msgPlateTaken, apperrors.ToDomainError(err).Message)
}

func TestUserService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.Create(context.Background(), nil, UserCreateInput{Name: "A", Email: "nope", Password: "123"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "Name must be at least 2 characters long")
	assert.Contains(t, err.Error(), "Password must be at least 6 characters long")
}

func TestUserService_SelfRegistrationCannotChooseRole(t *testing.T) {
	f := newFixture(t)
	u, err := f.users.Create(context.Background(), nil, UserCreateInput{
		Name: "Eve", Email: "eve@x.com", Password: "secret1", Role: domain.UserRoleSuperAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleUser, u.Role)

	_, err = f.users.Create(context.Background(), f.admin, UserCreateInput{
		Name: "Mallory", Email: "mal@x.com", Password: "secret1", Role: domain.UserRoleAdmin,
	})
	assert.ErrorContains(t, err, "super admin")
}

func TestUserService_ConcurrentCreateSingleWinner(t *testing.T) {
	f := newFixture(t)
	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.users.Create(context.Background(), nil, UserCreateInput{
				Name: fmt.Sprintf("Racer %d", i), Email: "race@x.com", Password: "secret1",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperrors.IsConflict(err) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
}

func TestUserService_RoundTrip(t *testing.T) {
	f := newFixture(t)
	created := f.citizen(t, "Ann Lee", "ann@x.com", ptr("KA01AB"))

	fetched, err := f.users.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	_, err = f.users.GetByID(context.Background(), "user-missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserService_UpdateChecksConflictsExcludingSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", ptr("ANN001"))
	f.citizen(t, "Bob Ray", "bob@x.com", ptr("BOB001"))

	updated, err := f.users.Update(ctx, f.admin, ann.ID, UserUpdateInput{
		Email:       ptr("ANN@x.com"),
		NumberPlate: ptr("ann001"),
		Name:        ptr("Ann Leigh"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann Leigh", updated.Name)
	assert.True(t, updated.UpdatedAt.After(ann.UpdatedAt))

	_, err = f.users.Update(ctx, f.admin, ann.ID, UserUpdateInput{Email: ptr("bob@x.com")})
	assert.True(t, apperrors.IsConflict(err))
	_, err = f.users.Update(ctx, f.admin, ann.ID, UserUpdateInput{NumberPlate: ptr("bob001")})
	assert.True(t, apperrors.IsConflict(err))

	cleared, err := f.users.Update(ctx, f.admin, ann.ID, UserUpdateInput{NumberPlate: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.NumberPlate)
}

func TestUserService_ApplyActionSuspendThenActivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)

	suspended, err := f.users.ApplyAction(ctx, f.admin, ann.ID, domain.UserActionSuspend, "unpaid fines")
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusSuspended, suspended.Status)
	assert.False(t, suspended.IsActive)
	require.NotNil(t, suspended.SuspendedReason)
	assert.Equal(t, "unpaid fines", *suspended.SuspendedReason)
	require.NotNil(t, suspended.SuspendedBy)
	assert.Equal(t, f.admin.ID, *suspended.SuspendedBy)

	activated, err := f.users.ApplyAction(ctx, f.admin, ann.ID, domain.UserActionActivate, "")
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, activated.Status)
	assert.True(t, activated.IsActive)
	assert.Nil(t, activated.SuspendedAt)
	assert.Nil(t, activated.SuspendedReason)
	assert.Nil(t, activated.SuspendedBy)

	notes, err := f.inbox.List(ctx, ann.ID, 0)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestUserService_AdminCannotManageAdmins(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.ApplyAction(context.Background(), f.admin, f.superAdmin.ID, domain.UserActionSuspend, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)
}

func TestUserService_BulkAction(t *testing.T) {
	f := newFixture(t)
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	bob := f.citizen(t, "Bob Ray", "bob@x.com", nil)

	result, err := f.users.BulkAction(context.Background(), f.admin,
		[]string{ann.ID, bob.ID, ann.ID, "user-missing", " "}, domain.UserActionDeactivate, "")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 2, result.Updated)
	assert.Contains(t, result.Failed, "user-missing")

	got, err := f.users.GetByID(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusInactive, got.Status)
	assert.False(t, got.IsActive)

	_, err = f.users.BulkAction(context.Background(), f.admin, nil, domain.UserActionVerify, "")
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.users.BulkAction(context.Background(), f.admin, []string{ann.ID}, "promote", "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestUserService_DeleteBlockedByOutstandingCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	c := f.violation(t, ann.ID, 100)

	err := f.users.Delete(ctx, f.admin, ann.ID)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeConflict, de.Code)
	assert.Equal(t, msgOutstandingFines, de.Message)
	assert.Equal(t, 1, de.Details["outstandingViolations"])

	_, err = f.users.GetByID(ctx, ann.ID)
	require.NoError(t, err)
	_, err = f.cases.GetByID(ctx, c.ID)
	require.NoError(t, err)
}

func TestUserService_DeleteCascadesPaidCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	c := f.violation(t, ann.ID, 100)
	_, err := f.cases.ChangeStatus(ctx, f.admin, c.ID, domain.CaseStatusPaid)
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, f.admin, ann.ID))

	_, err = f.users.GetByID(ctx, ann.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.cases.GetByID(ctx, c.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserService_ListDerivedFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	bob := f.citizen(t, "Bob Ray", "bob@x.com", nil)
	cy := f.citizen(t, "Cy Dee", "cy@x.com", nil)

	f.violation(t, ann.ID, 100)
	f.violation(t, ann.ID, 50)
	paid := f.violation(t, bob.ID, 75)
	_, err := f.cases.ChangeStatus(ctx, f.admin, paid.ID, domain.CaseStatusPaid)
	require.NoError(t, err)

	citizens := repository.UserFilter{Roles: []domain.UserRole{domain.UserRoleUser}}

	withViolations, err := f.users.List(ctx, UserListFilter{UserFilter: citizens, HasViolations: ptr(true)}, util.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, withViolations.Total)

	outstanding, err := f.users.List(ctx, UserListFilter{UserFilter: citizens, HasOutstandingFines: ptr(true)}, util.NewPage(1, 1))
	require.NoError(t, err)
	require.Len(t, outstanding.Data, 1)
	assert.Equal(t, 1, outstanding.Total)
	assert.Equal(t, ann.ID, outstanding.Data[0].ID)
	assert.Equal(t, 2, outstanding.Data[0].ViolationCount)
	assert.InDelta(t, 150, outstanding.Data[0].OutstandingFines, 0.001)

	clean, err := f.users.List(ctx, UserListFilter{UserFilter: citizens, HasViolations: ptr(false)}, util.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, clean.Data, 1)
	assert.Equal(t, cy.ID, clean.Data[0].ID)
}

func TestUserService_ListPushdownCarriesRollups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", ptr("ANN001"))
	f.violation(t, ann.ID, 40)

	page, err := f.users.List(ctx, UserListFilter{UserFilter: repository.UserFilter{SearchTerm: ptr("ann0")}}, util.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 1, page.Data[0].ViolationCount)
	assert.InDelta(t, 40, page.Data[0].OutstandingFines, 0.001)
	assert.Equal(t, 1, page.TotalPages)
}

func TestUserService_GetDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	f.violation(t, ann.ID, 100)
	c := f.violation(t, ann.ID, 200)
	_, err := f.cases.ChangeStatus(ctx, f.admin, c.ID, domain.CaseStatusPaid)
	require.NoError(t, err)

	detail, err := f.users.GetDetail(ctx, ann.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Cases, 2)
	assert.Equal(t, 2, detail.Violations.ViolationCount)
	assert.InDelta(t, 300, detail.Violations.TotalFines, 0.001)
	assert.InDelta(t, 100, detail.Violations.OutstandingFines, 0.001)
	assert.InDelta(t, 200, detail.Violations.PaidFines, 0.001)
	assert.Equal(t, 1, detail.Violations.ByStatus[domain.CaseStatusPaid])
}
