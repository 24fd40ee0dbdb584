package memory

import (
	"context"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/pkg/util"
)

type userRepository struct {
	store *Store
}

// NewUserRepository returns a UserRepository over store.
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return pkgerrors.Wrap(repository.ErrDuplicate, "create user: id")
	}
	if err := s.checkUserUnique(user); err != nil {
		return pkgerrors.Wrap(err, "create user")
	}
	s.users[user.ID] = *user
	return nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return pkgerrors.Wrap(repository.ErrNotFound, "update user")
	}
	if err := s.checkUserUnique(user); err != nil {
		return pkgerrors.Wrap(err, "update user")
	}
	s.users[user.ID] = *user
	return nil
}

// checkUserUnique enforces case-insensitive email and plate uniqueness. Caller holds the write lock.
func (s *Store) checkUserUnique(user *domain.User) error {
	for id, existing := range s.users {
		if id == user.ID {
			continue
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return pkgerrors.Wrap(repository.ErrDuplicate, "users_email_key")
		}
		if user.NumberPlate != nil && existing.NumberPlate != nil &&
			strings.EqualFold(*existing.NumberPlate, *user.NumberPlate) {
			return pkgerrors.Wrap(repository.ErrDuplicate, "users_number_plate_key")
		}
	}
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, pkgerrors.Wrap(repository.ErrNotFound, "get user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	return r.findOne(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepository) GetByNumberPlate(_ context.Context, plate string) (*domain.User, error) {
	plate = strings.TrimSpace(plate)
	return r.findOne(func(u *domain.User) bool {
		return u.NumberPlate != nil && strings.EqualFold(*u.NumberPlate, plate)
	})
}

func (r *userRepository) findOne(match func(*domain.User) bool) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if match(&user) {
			found := user
			return &found, nil
		}
	}
	return nil, pkgerrors.Wrap(repository.ErrNotFound, "get user")
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return pkgerrors.Wrap(repository.ErrNotFound, "delete user")
	}
	delete(s.users, id)
	return nil
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter, p util.Page) ([]domain.User, int, error) {
	all, err := r.Find(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return util.Slice(all, p), len(all), nil
}

func (r *userRepository) Find(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	s := r.store
	s.mu.RLock()
	out := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		if filter.Matches(&user) {
			out = append(out, user)
		}
	}
	s.mu.RUnlock()
	sortNewestFirst(out, func(u *domain.User) (time.Time, string) { return u.CreatedAt, u.ID })
	return out, nil
}
