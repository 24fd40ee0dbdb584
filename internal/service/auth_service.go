package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/violation-service/internal/auth"
	"github.com/spec-kit/violation-service/internal/config"
	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

const msgInvalidCredentials = "invalid credentials"

// AuthResult is returned by registration and login.
type AuthResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	accounts   *UserService
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	UserService *UserService
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		accounts:   deps.UserService,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     loggerOrNop(deps.Logger),
	}
}

// RegisterInput is a citizen self-registration.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	NumberPlate *string
	Phone       *string
	Address     *string
}

// Register creates a citizen account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	user, err := s.accounts.Create(ctx, nil, UserCreateInput{
		Name:        in.Name,
		Email:       in.Email,
		Password:    in.Password,
		NumberPlate: in.NumberPlate,
		Phone:       in.Phone,
		Address:     in.Address,
	})
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if !user.CanSignIn() {
		return nil, apperrors.NewForbidden("account is " + string(user.Status))
	}
	if err := s.accounts.RecordLogin(ctx, user); err != nil {
		s.logger.Warn("record login failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return s.issue(user)
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return apperrors.NewValidationError("Password must be at least 6 characters long", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "User", userID)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.accounts.now()
	return s.users.Update(ctx, user)
}

// EnsureSuperAdmin creates the bootstrap super admin when the email is not registered yet.
func (s *AuthService) EnsureSuperAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Super Admin"
	}
	bootstrap := &domain.User{Role: domain.UserRoleSuperAdmin}
	user, err := s.accounts.Create(ctx, bootstrap, UserCreateInput{
		Name:          name,
		Email:         email,
		Password:      password,
		Role:          domain.UserRoleSuperAdmin,
		EmailVerified: true,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("super admin created", zap.String("user_id", user.ID))
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}
