package domain

import (
	"time"
)

// UserStats summarizes the user collection.
type UserStats struct {
	TotalUsers        int              `json:"totalUsers"`
	ActiveUsers       int              `json:"activeUsers"`
	SuspendedUsers    int              `json:"suspendedUsers"`
	NewUsersThisMonth int              `json:"newUsersThisMonth"`
	UsersByRole       map[UserRole]int `json:"usersByRole"`
}

// CaseStats summarizes the case collection.
type CaseStats struct {
	TotalCases       int                   `json:"totalCases"`
	PendingCases     int                   `json:"pendingCases"`
	PaidCases        int                   `json:"paidCases"`
	DisputedCases    int                   `json:"disputedCases"`
	ResolvedCases    int                   `json:"resolvedCases"`
	CancelledCases   int                   `json:"cancelledCases"`
	TotalFines       float64               `json:"totalFines"`
	CollectedFines   float64               `json:"collectedFines"`
	OutstandingFines float64               `json:"outstandingFines"`
	CasesByType      map[ViolationType]int `json:"casesByType"`
	CasesByMonth     map[string]int        `json:"casesByMonth"`
}

// QueryStats summarizes the query collection.
type QueryStats struct {
	TotalQueries        int                   `json:"totalQueries"`
	OpenQueries         int                   `json:"openQueries"`
	InProgressQueries   int                   `json:"inProgressQueries"`
	ResolvedQueries     int                   `json:"resolvedQueries"`
	ClosedQueries       int                   `json:"closedQueries"`
	UrgentQueries       int                   `json:"urgentQueries"`
	AverageResponseTime float64               `json:"averageResponseTime"`
	QueriesByCategory   map[QueryCategory]int `json:"queriesByCategory"`
	QueriesByPriority   map[QueryPriority]int `json:"queriesByPriority"`
}

// ViolationRollup is the per-user derived view over their cases.
type ViolationRollup struct {
	UserID           string             `json:"userId"`
	ViolationCount   int                `json:"violationCount"`
	TotalFines       float64            `json:"totalFines"`
	OutstandingFines float64            `json:"outstandingFines"`
	PaidFines        float64            `json:"paidFines"`
	ByStatus         map[CaseStatus]int `json:"byStatus"`
	PaidCount        int                `json:"paidCount"`
	PendingCount     int                `json:"pendingCount"`
}

// HasOutstandingFines reports whether any case is still owed.
func (r ViolationRollup) HasOutstandingFines() bool {
	return r.PendingCount > 0
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// StartOfMonth returns the first instant of the UTC month containing now.
func StartOfMonth(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ComputeUserStats aggregates users as of now.
func ComputeUserStats(users []User, now time.Time) UserStats {
	stats := UserStats{UsersByRole: make(map[UserRole]int, len(UserRoles))}
	for _, role := range UserRoles {
		stats.UsersByRole[role] = 0
	}
	monthStart := StartOfMonth(now)
	for i := range users {
		u := &users[i]
		stats.TotalUsers++
		if u.IsActive {
			stats.ActiveUsers++
		}
		if u.Status == UserStatusSuspended {
			stats.SuspendedUsers++
		}
		if !u.CreatedAt.Before(monthStart) {
			stats.NewUsersThisMonth++
		}
		stats.UsersByRole[u.Role]++
	}
	return stats
}

// ComputeCaseStats aggregates cases.
func ComputeCaseStats(cases []Case) CaseStats {
	stats := CaseStats{
		CasesByType:  make(map[ViolationType]int, len(ViolationTypes)),
		CasesByMonth: make(map[string]int),
	}
	for _, t := range ViolationTypes {
		stats.CasesByType[t] = 0
	}
	for i := range cases {
		c := &cases[i]
		stats.TotalCases++
		stats.TotalFines += c.Fine
		switch c.Status {
		case CaseStatusPending:
			stats.PendingCases++
		case CaseStatusPaid:
			stats.PaidCases++
			stats.CollectedFines += c.Fine
		case CaseStatusDisputed:
			stats.DisputedCases++
		case CaseStatusResolved:
			stats.ResolvedCases++
		case CaseStatusCancelled:
			stats.CancelledCases++
		}
		if c.IsOutstanding() {
			stats.OutstandingFines += c.Fine
		}
		stats.CasesByType[c.ViolationType]++
		stats.CasesByMonth[MonthKey(c.Date)]++
	}
	return stats
}

// ComputeQueryStats aggregates queries. AverageResponseTime is in hours over resolved queries.
func ComputeQueryStats(queries []Query) QueryStats {
	stats := QueryStats{
		QueriesByCategory: make(map[QueryCategory]int, len(QueryCategories)),
		QueriesByPriority: make(map[QueryPriority]int, len(QueryPriorities)),
	}
	for _, c := range QueryCategories {
		stats.QueriesByCategory[c] = 0
	}
	for _, p := range QueryPriorities {
		stats.QueriesByPriority[p] = 0
	}

	var totalHours float64
	var resolvedWithTime int
	for i := range queries {
		q := &queries[i]
		stats.TotalQueries++
		switch q.Status {
		case QueryStatusOpen:
			stats.OpenQueries++
		case QueryStatusInProgress:
			stats.InProgressQueries++
		case QueryStatusResolved:
			stats.ResolvedQueries++
			if q.ResolvedAt != nil {
				totalHours += q.ResolvedAt.Sub(q.CreatedAt).Hours()
				resolvedWithTime++
			}
		case QueryStatusClosed:
			stats.ClosedQueries++
		}
		if q.IsUrgent {
			stats.UrgentQueries++
		}
		stats.QueriesByCategory[q.Category]++
		stats.QueriesByPriority[q.Priority]++
	}
	if resolvedWithTime > 0 {
		stats.AverageResponseTime = totalHours / float64(resolvedWithTime)
	}
	return stats
}

// ComputeViolationRollup aggregates one user's cases.
func ComputeViolationRollup(userID string, cases []Case) ViolationRollup {
	rollup := ViolationRollup{
		UserID:   userID,
		ByStatus: make(map[CaseStatus]int, len(CaseStatuses)),
	}
	for _, s := range CaseStatuses {
		rollup.ByStatus[s] = 0
	}
	for i := range cases {
		c := &cases[i]
		if c.UserID != userID {
			continue
		}
		rollup.ViolationCount++
		rollup.TotalFines += c.Fine
		rollup.ByStatus[c.Status]++
		if c.IsOutstanding() {
			rollup.OutstandingFines += c.Fine
			rollup.PendingCount++
		} else {
			rollup.PaidFines += c.Fine
			rollup.PaidCount++
		}
	}
	return rollup
}

// ComputeViolationRollups groups cases per user in one pass.
func ComputeViolationRollups(userIDs []string, cases []Case) map[string]ViolationRollup {
	grouped := make(map[string][]Case, len(userIDs))
	for _, c := range cases {
		grouped[c.UserID] = append(grouped[c.UserID], c)
	}
	out := make(map[string]ViolationRollup, len(userIDs))
	for _, id := range userIDs {
		out[id] = ComputeViolationRollup(id, grouped[id])
	}
	return out
}
