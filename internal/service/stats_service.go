package service

import (
	"context"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
)

// StatsService aggregates collection-wide figures. Each figure is computed from
// a single read of its collection.
type StatsService struct {
	users   repository.UserRepository
	cases   repository.CaseRepository
	queries repository.QueryRepository
	now     Clock
}

// StatsDependencies bundles collaborators for StatsService.
type StatsDependencies struct {
	UserRepo  repository.UserRepository
	CaseRepo  repository.CaseRepository
	QueryRepo repository.QueryRepository
	Clock     Clock
}

// NewStatsService constructs the service.
func NewStatsService(deps StatsDependencies) *StatsService {
	return &StatsService{
		users:   deps.UserRepo,
		cases:   deps.CaseRepo,
		queries: deps.QueryRepo,
		now:     clockOrDefault(deps.Clock),
	}
}

// Dashboard groups the three statistics.
type Dashboard struct {
	Users   domain.UserStats  `json:"users"`
	Cases   domain.CaseStats  `json:"cases"`
	Queries domain.QueryStats `json:"queries"`
}

// UserStats summarizes every account.
func (s *StatsService) UserStats(ctx context.Context) (domain.UserStats, error) {
	users, err := s.users.Find(ctx, repository.UserFilter{})
	if err != nil {
		return domain.UserStats{}, err
	}
	return domain.ComputeUserStats(users, s.now()), nil
}

// CaseStats summarizes every case.
func (s *StatsService) CaseStats(ctx context.Context) (domain.CaseStats, error) {
	cases, err := s.cases.Find(ctx, repository.CaseFilter{})
	if err != nil {
		return domain.CaseStats{}, err
	}
	return domain.ComputeCaseStats(cases), nil
}

// QueryStats summarizes every query.
func (s *StatsService) QueryStats(ctx context.Context) (domain.QueryStats, error) {
	queries, err := s.queries.Find(ctx, repository.QueryFilter{})
	if err != nil {
		return domain.QueryStats{}, err
	}
	return domain.ComputeQueryStats(queries), nil
}

// CaseStatsForUser summarizes the cases of one user.
func (s *StatsService) CaseStatsForUser(ctx context.Context, userID string) (domain.CaseStats, error) {
	cases, err := s.cases.Find(ctx, repository.CaseFilter{UserIDs: []string{userID}})
	if err != nil {
		return domain.CaseStats{}, err
	}
	return domain.ComputeCaseStats(cases), nil
}

// Dashboard computes all three statistics.
func (s *StatsService) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		out Dashboard
		err error
	)
	if out.Users, err = s.UserStats(ctx); err != nil {
		return Dashboard{}, err
	}
	if out.Cases, err = s.CaseStats(ctx); err != nil {
		return Dashboard{}, err
	}
	if out.Queries, err = s.QueryStats(ctx); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}
