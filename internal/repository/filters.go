package repository

import (
	"strings"
	"time"

	"github.com/spec-kit/violation-service/internal/domain"
)

// UserFilter narrows account listings. Nil and empty fields match everything.
type UserFilter struct {
	IDs           []string
	Roles         []domain.UserRole
	Statuses      []domain.UserStatus
	IsActive      *bool
	EmailVerified *bool
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// Matches reports whether u satisfies the filter.
func (f UserFilter) Matches(u *domain.User) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, u.ID) {
		return false
	}
	if len(f.Roles) > 0 && !contains(f.Roles, u.Role) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, u.Status) {
		return false
	}
	if f.IsActive != nil && *f.IsActive != u.IsActive {
		return false
	}
	if f.EmailVerified != nil && *f.EmailVerified != u.EmailVerified {
		return false
	}
	if !inRange(u.CreatedAt, f.CreatedFrom, f.CreatedTo) {
		return false
	}
	if term, ok := searchTerm(f.SearchTerm); ok {
		plate := ""
		if u.NumberPlate != nil {
			plate = *u.NumberPlate
		}
		return containsFold(term, u.Name, u.Email, plate)
	}
	return true
}

// CaseFilter narrows case listings.
type CaseFilter struct {
	IDs            []string
	UserIDs        []string
	Statuses       []domain.CaseStatus
	ViolationTypes []domain.ViolationType
	MinFine        *float64
	MaxFine        *float64
	DateFrom       *time.Time
	DateTo         *time.Time
	SearchTerm     *string
}

// Matches reports whether c satisfies the filter.
func (f CaseFilter) Matches(c *domain.Case) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, c.ID) {
		return false
	}
	if len(f.UserIDs) > 0 && !contains(f.UserIDs, c.UserID) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, c.Status) {
		return false
	}
	if len(f.ViolationTypes) > 0 && !contains(f.ViolationTypes, c.ViolationType) {
		return false
	}
	if f.MinFine != nil && c.Fine < *f.MinFine {
		return false
	}
	if f.MaxFine != nil && c.Fine > *f.MaxFine {
		return false
	}
	if !inRange(c.Date, f.DateFrom, f.DateTo) {
		return false
	}
	if term, ok := searchTerm(f.SearchTerm); ok {
		return containsFold(term, c.Violation, c.Location)
	}
	return true
}

// QueryFilter narrows support query listings.
type QueryFilter struct {
	IDs         []string
	UserIDs     []string
	CaseID      *string
	Statuses    []domain.QueryStatus
	Categories  []domain.QueryCategory
	Priorities  []domain.QueryPriority
	IsUrgent    *bool
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Matches reports whether q satisfies the filter.
func (f QueryFilter) Matches(q *domain.Query) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, q.ID) {
		return false
	}
	if len(f.UserIDs) > 0 && !contains(f.UserIDs, q.UserID) {
		return false
	}
	if f.CaseID != nil && (q.CaseID == nil || *q.CaseID != *f.CaseID) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, q.Status) {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, q.Category) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, q.Priority) {
		return false
	}
	if f.IsUrgent != nil && *f.IsUrgent != q.IsUrgent {
		return false
	}
	if !inRange(q.CreatedAt, f.CreatedFrom, f.CreatedTo) {
		return false
	}
	if term, ok := searchTerm(f.SearchTerm); ok {
		return containsFold(term, q.Subject, q.Message)
	}
	return true
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	ViolationIDs []string
	UserIDs      []string
	Statuses     []domain.PaymentStatus
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// Matches reports whether p satisfies the filter.
func (f PaymentFilter) Matches(p *domain.PaymentTransaction) bool {
	if len(f.ViolationIDs) > 0 && !contains(f.ViolationIDs, p.ViolationID) {
		return false
	}
	if len(f.UserIDs) > 0 && !contains(f.UserIDs, p.UserID) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, p.Status) {
		return false
	}
	return inRange(p.CreatedAt, f.CreatedFrom, f.CreatedTo)
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func searchTerm(term *string) (string, bool) {
	if term == nil {
		return "", false
	}
	trimmed := strings.ToLower(strings.TrimSpace(*term))
	return trimmed, trimmed != ""
}

func containsFold(lowerTerm string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowerTerm) {
			return true
		}
	}
	return false
}
