package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeCaseStats_FineSums(t *testing.T) {
	date := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	cases := []Case{
		{UserID: "u1", Fine: 100, Status: CaseStatusPending, ViolationType: ViolationSpeeding, Date: date},
		{UserID: "u1", Fine: 200, Status: CaseStatusDisputed, ViolationType: ViolationSpeeding, Date: date},
		{UserID: "u2", Fine: 300, Status: CaseStatusPaid, ViolationType: ViolationParking, Date: date.AddDate(0, 1, 0)},
	}

	stats := ComputeCaseStats(cases)
	assert.Equal(t, 3, stats.TotalCases)
	assert.Equal(t, 600.0, stats.TotalFines)
	assert.Equal(t, 300.0, stats.CollectedFines)
	assert.Equal(t, 300.0, stats.OutstandingFines)
	assert.Equal(t, 1, stats.PendingCases)
	assert.Equal(t, 1, stats.PaidCases)
	assert.Equal(t, 1, stats.DisputedCases)
	assert.Len(t, stats.CasesByType, len(ViolationTypes))
	assert.Equal(t, 2, stats.CasesByType[ViolationSpeeding])
	assert.Equal(t, 0, stats.CasesByType[ViolationMobileUse])
	assert.Equal(t, map[string]int{"2026-03": 2, "2026-04": 1}, stats.CasesByMonth)
}

func TestComputeUserStats(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	users := []User{
		{Role: UserRoleUser, IsActive: true, CreatedAt: now.AddDate(0, 0, -1)},
		{Role: UserRoleUser, IsActive: false, Status: UserStatusSuspended, CreatedAt: now.AddDate(0, -2, 0)},
		{Role: UserRoleAdmin, IsActive: true, CreatedAt: StartOfMonth(now)},
	}

	stats := ComputeUserStats(users, now)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 2, stats.ActiveUsers)
	assert.Equal(t, 1, stats.SuspendedUsers)
	assert.Equal(t, 2, stats.NewUsersThisMonth)
	assert.Equal(t, map[UserRole]int{UserRoleUser: 2, UserRoleAdmin: 1, UserRoleSuperAdmin: 0}, stats.UsersByRole)
}

func TestComputeQueryStats_AverageOverResolvedOnly(t *testing.T) {
	created := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	r1 := created.Add(2 * time.Hour)
	r2 := created.Add(6 * time.Hour)
	queries := []Query{
		{Status: QueryStatusResolved, CreatedAt: created, ResolvedAt: &r1, Category: QueryCategoryPaymentIssues, Priority: QueryPriorityHigh},
		{Status: QueryStatusResolved, CreatedAt: created, ResolvedAt: &r2, Category: QueryCategoryPaymentIssues, Priority: QueryPriorityLow},
		{Status: QueryStatusOpen, CreatedAt: created, Category: QueryCategoryGeneralInquiry, Priority: QueryPriorityLow, IsUrgent: true},
	}

	stats := ComputeQueryStats(queries)
	assert.Equal(t, 3, stats.TotalQueries)
	assert.Equal(t, 1, stats.OpenQueries)
	assert.Equal(t, 2, stats.ResolvedQueries)
	assert.Equal(t, 1, stats.UrgentQueries)
	assert.InDelta(t, 4.0, stats.AverageResponseTime, 1e-9)
	assert.Equal(t, 2, stats.QueriesByCategory[QueryCategoryPaymentIssues])
	assert.Equal(t, 0, stats.QueriesByCategory[QueryCategoryTechnicalSupport])
	assert.Equal(t, 2, stats.QueriesByPriority[QueryPriorityLow])
	assert.Equal(t, 0, stats.QueriesByPriority[QueryPriorityMedium])
}

func TestComputeQueryStats_NoResolved(t *testing.T) {
	stats := ComputeQueryStats([]Query{{Status: QueryStatusOpen, Category: QueryCategoryGeneralInquiry, Priority: QueryPriorityMedium}})
	assert.Zero(t, stats.AverageResponseTime)
}

func TestComputeViolationRollup(t *testing.T) {
	cases := []Case{
		{UserID: "u1", Fine: 50, Status: CaseStatusPaid},
		{UserID: "u1", Fine: 70, Status: CaseStatusPending},
		{UserID: "u1", Fine: 30, Status: CaseStatusCancelled},
		{UserID: "u2", Fine: 1000, Status: CaseStatusPending},
	}

	r := ComputeViolationRollup("u1", cases)
	assert.Equal(t, 3, r.ViolationCount)
	assert.Equal(t, 150.0, r.TotalFines)
	assert.Equal(t, 100.0, r.OutstandingFines)
	assert.Equal(t, 50.0, r.PaidFines)
	assert.Equal(t, 1, r.PaidCount)
	assert.Equal(t, 2, r.PendingCount)
	assert.Equal(t, 1, r.ByStatus[CaseStatusCancelled])
	assert.True(t, r.HasOutstandingFines())

	all := ComputeViolationRollups([]string{"u1", "u2", "u3"}, cases)
	assert.Equal(t, 1000.0, all["u2"].OutstandingFines)
	assert.Equal(t, 0, all["u3"].ViolationCount)
	assert.False(t, all["u3"].HasOutstandingFines())
}
