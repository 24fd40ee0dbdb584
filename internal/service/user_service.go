package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/violation-service/internal/auth"
	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/events"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/internal/validation"
	"github.com/spec-kit/violation-service/pkg/util"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

const (
	msgEmailTaken       = "User with this email already exists"
	msgPlateTaken       = "User with this number plate already exists"
	msgOutstandingFines = "Cannot delete user with outstanding violations"
)

// UserService manages accounts and their violation rollups.
type UserService struct {
	users      repository.UserRepository
	cases      repository.CaseRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	now        Clock
}

// UserDependencies bundles collaborators for UserService.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	CaseRepo   repository.CaseRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
	Clock      Clock
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		cases:      deps.CaseRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		bcryptCost: deps.BcryptCost,
		now:        clockOrDefault(deps.Clock),
	}
}

// UserCreateInput describes a new account.
type UserCreateInput struct {
	Name          string
	Email         string
	Password      string
	NumberPlate   *string
	Role          domain.UserRole
	Phone         *string
	Address       *string
	Notes         *string
	EmailVerified bool
}

// UserUpdateInput carries the fields to change. Nil fields are left as they are;
// an empty NumberPlate clears the plate.
type UserUpdateInput struct {
	Name          *string
	Email         *string
	Password      *string
	NumberPlate   *string
	Role          *domain.UserRole
	Phone         *string
	Address       *string
	Notes         *string
	EmailVerified *bool
	PhoneVerified *bool
}

// UserListFilter extends the stored filter with properties derived from cases.
type UserListFilter struct {
	repository.UserFilter
	HasViolations       *bool
	HasOutstandingFines *bool
}

func (f UserListFilter) derived() bool {
	return f.HasViolations != nil || f.HasOutstandingFines != nil
}

func (f UserListFilter) matchesRollup(r domain.ViolationRollup) bool {
	if f.HasViolations != nil && *f.HasViolations != (r.ViolationCount > 0) {
		return false
	}
	if f.HasOutstandingFines != nil && *f.HasOutstandingFines != r.HasOutstandingFines() {
		return false
	}
	return true
}

// UserListItem is a user row with its violation totals.
type UserListItem struct {
	domain.User
	ViolationCount   int     `json:"violationCount"`
	OutstandingFines float64 `json:"outstandingFines"`
}

// UserDetail is the administrative view of one account.
type UserDetail struct {
	User       *domain.User           `json:"user"`
	Violations domain.ViolationRollup `json:"violations"`
	Cases      []domain.Case          `json:"cases"`
}

// Create registers an account. A nil actor is a self-registration and always
// yields a citizen account; only a super admin may create administrators.
func (s *UserService) Create(ctx context.Context, actor *domain.User, in UserCreateInput) (*domain.User, error) {
	result := validation.ValidateUser(validation.UserInput{
		Name:        in.Name,
		Email:       in.Email,
		Password:    in.Password,
		NumberPlate: in.NumberPlate,
	})
	if !result.IsValid {
		return nil, apperrors.NewValidationErrors(result.Errors)
	}

	role := in.Role
	if role == "" || actor == nil {
		role = domain.UserRoleUser
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Invalid role", map[string]any{"role": role})
	}
	if err := authorizeRole(actor, role); err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	plate := normalizePlate(in.NumberPlate)
	if err := s.ensureUnique(ctx, "", email, plate); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:            util.GenerateID(util.PrefixUser),
		Name:          strings.TrimSpace(in.Name),
		Email:         email,
		PasswordHash:  hash,
		NumberPlate:   plate,
		Role:          role,
		IsActive:      true,
		Status:        domain.UserStatusActive,
		EmailVerified: in.EmailVerified,
		Phone:         trimmedOptional(in.Phone),
		Address:       trimmedOptional(in.Address),
		Notes:         trimmedOptional(in.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, duplicateAsConflict(err)
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// GetByID returns one account.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return user, nil
}

// GetDetail returns the account with its cases and rollup, computed on demand.
func (s *UserService) GetDetail(ctx context.Context, id string) (*UserDetail, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cases, err := s.cases.Find(ctx, repository.CaseFilter{UserIDs: []string{id}})
	if err != nil {
		return nil, err
	}
	return &UserDetail{
		User:       user,
		Violations: domain.ComputeViolationRollup(id, cases),
		Cases:      cases,
	}, nil
}

// ViolationRollup computes the per-user totals over their cases.
func (s *UserService) ViolationRollup(ctx context.Context, id string) (domain.ViolationRollup, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return domain.ViolationRollup{}, err
	}
	cases, err := s.cases.Find(ctx, repository.CaseFilter{UserIDs: []string{id}})
	if err != nil {
		return domain.ViolationRollup{}, err
	}
	return domain.ComputeViolationRollup(id, cases), nil
}

// Update merges the given fields, rechecking uniqueness against other accounts.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id string, in UserUpdateInput) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeTarget(actor, user); err != nil {
		return nil, err
	}

	var problems []string
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 {
			problems = append(problems, "Name must be at least 2 characters long")
		}
		user.Name = name
	}
	if in.Email != nil {
		if !validation.ValidEmail(*in.Email) {
			problems = append(problems, "Please provide a valid email address")
		}
		user.Email = normalizeEmail(*in.Email)
	}
	if in.NumberPlate != nil {
		user.NumberPlate = normalizePlate(in.NumberPlate)
		if user.NumberPlate != nil && !validation.ValidNumberPlate(*user.NumberPlate) {
			problems = append(problems, "Number plate must be 3 to 8 letters or digits")
		}
	}
	if in.Password != nil && len(*in.Password) < 6 {
		problems = append(problems, "Password must be at least 6 characters long")
	}
	if in.Role != nil && !in.Role.Valid() {
		problems = append(problems, "Invalid role")
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationErrors(problems)
	}

	if in.Role != nil && *in.Role != user.Role {
		if err := authorizeRole(actor, *in.Role); err != nil {
			return nil, err
		}
		user.Role = *in.Role
	}
	if in.Email != nil || in.NumberPlate != nil {
		if err := s.ensureUnique(ctx, user.ID, user.Email, user.NumberPlate); err != nil {
			return nil, err
		}
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if in.Phone != nil {
		user.Phone = trimmedOptional(in.Phone)
	}
	if in.Address != nil {
		user.Address = trimmedOptional(in.Address)
	}
	if in.Notes != nil {
		user.Notes = trimmedOptional(in.Notes)
	}
	if in.EmailVerified != nil {
		user.EmailVerified = *in.EmailVerified
	}
	if in.PhoneVerified != nil {
		user.PhoneVerified = *in.PhoneVerified
	}

	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFoundOr(duplicateAsConflict(err), "User", id)
	}
	return user, nil
}

// RecordLogin stamps lastLoginAt.
func (s *UserService) RecordLogin(ctx context.Context, user *domain.User) error {
	at := s.now()
	user.LastLoginAt = &at
	return s.users.Update(ctx, user)
}

// ApplyAction runs suspend, activate, deactivate or verify on one account.
func (s *UserService) ApplyAction(ctx context.Context, actor *domain.User, id string, action domain.UserAction, reason string) (*domain.User, error) {
	if !action.Valid() {
		return nil, apperrors.NewValidationError("Invalid action", map[string]any{"action": action})
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeTarget(actor, user); err != nil {
		return nil, err
	}
	if actor != nil && actor.ID == user.ID && action != domain.UserActionVerify {
		return nil, apperrors.NewForbidden("cannot change the status of your own account")
	}

	ac := domain.ActionContext{Actor: actorID(actor), Reason: strings.TrimSpace(reason), At: s.now()}
	if err := user.Apply(action, ac); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFoundOr(err, "User", id)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserStatusChanged, user.ID, user.ID, ac.Actor,
		events.UserStatusChangedPayload{Action: action, Reason: ac.Reason}))
	return user, nil
}

// BulkAction applies action to every id independently.
func (s *UserService) BulkAction(ctx context.Context, actor *domain.User, ids []string, action domain.UserAction, reason string) (BulkResult, error) {
	if !action.Valid() {
		return BulkResult{}, apperrors.NewValidationError("Invalid action", map[string]any{"action": action})
	}
	ids, err := requireIDs(ids)
	if err != nil {
		return BulkResult{}, err
	}
	result := newBulkResult(ids)
	for _, id := range ids {
		_, err := s.ApplyAction(ctx, actor, id, action, reason)
		result.record(id, err)
	}
	return result, nil
}

// Delete removes an account and its cases. Any case not yet paid blocks the
// deletion before anything is removed.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeTarget(actor, user); err != nil {
		return err
	}
	if actor != nil && actor.ID == user.ID {
		return apperrors.NewForbidden("cannot delete your own account")
	}

	cases, err := s.cases.Find(ctx, repository.CaseFilter{UserIDs: []string{id}})
	if err != nil {
		return err
	}
	rollup := domain.ComputeViolationRollup(id, cases)
	if rollup.PendingCount > 0 {
		return apperrors.NewConflict(msgOutstandingFines, map[string]any{
			"outstandingViolations": rollup.PendingCount,
			"outstandingFines":      rollup.OutstandingFines,
		})
	}

	removed, err := s.cases.DeleteByUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return notFoundOr(err, "User", id)
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.Int("cases_removed", removed))
	return nil
}

// List returns a page of users with their violation totals. Stored filters are
// pushed to the repository; derived filters are evaluated over the full
// matching set before paging.
func (s *UserService) List(ctx context.Context, filter UserListFilter, page util.Page) (util.Paginated[UserListItem], error) {
	if filter.derived() {
		users, err := s.users.Find(ctx, filter.UserFilter)
		if err != nil {
			return util.Paginated[UserListItem]{}, err
		}
		items, err := s.withRollups(ctx, users)
		if err != nil {
			return util.Paginated[UserListItem]{}, err
		}
		matching := make([]UserListItem, 0, len(items))
		for _, item := range items {
			if filter.matchesRollup(item.rollup) {
				matching = append(matching, item.UserListItem)
			}
		}
		return util.Paginate(matching, page), nil
	}

	users, total, err := s.users.List(ctx, filter.UserFilter, page)
	if err != nil {
		return util.Paginated[UserListItem]{}, err
	}
	items, err := s.withRollups(ctx, users)
	if err != nil {
		return util.Paginated[UserListItem]{}, err
	}
	out := make([]UserListItem, len(items))
	for i := range items {
		out[i] = items[i].UserListItem
	}
	return util.NewPaginated(out, total, page), nil
}

type rolledUser struct {
	UserListItem
	rollup domain.ViolationRollup
}

// withRollups loads the cases of every user in one round trip.
func (s *UserService) withRollups(ctx context.Context, users []domain.User) ([]rolledUser, error) {
	if len(users) == 0 {
		return []rolledUser{}, nil
	}
	ids := make([]string, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	cases, err := s.cases.Find(ctx, repository.CaseFilter{UserIDs: ids})
	if err != nil {
		return nil, err
	}
	rollups := domain.ComputeViolationRollups(ids, cases)
	out := make([]rolledUser, len(users))
	for i := range users {
		r := rollups[users[i].ID]
		out[i] = rolledUser{
			UserListItem: UserListItem{
				User:             users[i],
				ViolationCount:   r.ViolationCount,
				OutstandingFines: r.OutstandingFines,
			},
			rollup: r,
		}
	}
	return out, nil
}

// ensureUnique rejects email or plate values held by an account other than selfID.
func (s *UserService) ensureUnique(ctx context.Context, selfID, email string, plate *string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != selfID:
		return apperrors.NewConflict(msgEmailTaken, map[string]any{"field": "email"})
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return err
	}
	if plate == nil {
		return nil
	}
	existing, err = s.users.GetByNumberPlate(ctx, *plate)
	switch {
	case err == nil && existing.ID != selfID:
		return apperrors.NewConflict(msgPlateTaken, map[string]any{"field": "numberPlate"})
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return err
	}
	return nil
}

// duplicateAsConflict covers the window between the uniqueness check and the write.
func duplicateAsConflict(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		field, message := "email", msgEmailTaken
		if strings.Contains(err.Error(), "number_plate") {
			field, message = "numberPlate", msgPlateTaken
		}
		return apperrors.NewConflict(message, map[string]any{"field": field})
	}
	return err
}

// authorizeRole allows only a super admin to grant administrative roles.
func authorizeRole(actor *domain.User, role domain.UserRole) error {
	if !role.IsAdmin() {
		return nil
	}
	if actor == nil || actor.Role != domain.UserRoleSuperAdmin {
		return apperrors.NewForbidden("only a super admin can manage administrator accounts")
	}
	return nil
}

// authorizeTarget allows only a super admin to modify administrator accounts.
func authorizeTarget(actor *domain.User, target *domain.User) error {
	return authorizeRole(actor, target.Role)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizePlate(plate *string) *string {
	if plate == nil {
		return nil
	}
	normalized := validation.NormalizeNumberPlate(*plate)
	if normalized == "" {
		return nil
	}
	return &normalized
}
