package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/repositories"
	"github.com/Code-Chilll/Task-Manager/internal/validation"
)

type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type UserService interface {
	ListUsers(ctx context.Context, callerEmail string) ([]models.User, error)
	CreateUser(ctx context.Context, callerEmail string, input NewUser) (*models.User, error)
	GetUser(ctx context.Context, callerEmail, email string) (*models.User, error)
	// DeleteUser removes the account and its tasks, returning how many tasks went with it.
	DeleteUser(ctx context.Context, callerEmail, email string) (int64, error)
	UpdateRole(ctx context.Context, callerEmail, email, role string) (*models.User, error)
}

type UserServiceImpl struct {
	base
	users  repositories.UserRepository
	authz  AuthorizationService
	hasher PasswordHasher
}

func NewUserService(users repositories.UserRepository, authz AuthorizationService, hasher PasswordHasher, opts ...Option) *UserServiceImpl {
	return &UserServiceImpl{base: newBase(opts), users: users, authz: authz, hasher: hasher}
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, callerEmail string) ([]models.User, error) {
	if _, err := s.authz.RequireAdmin(ctx, callerEmail, ActionList); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeError("failed to list users", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, callerEmail string, input NewUser) (*models.User, error) {
	if _, err := s.authz.RequireAdmin(ctx, callerEmail, ActionCreate); err != nil {
		return nil, err
	}

	role := models.RoleUser
	v := validation.NewChecker()
	v.Check(validation.IsValidEmail(input.Email), "email", "invalid email format")
	v.Check(validation.IsValidName(input.Name), "name", "name must be between 2 and 100 characters")
	v.Check(validation.IsValidPassword(input.Password), "password", "password must be at least 6 characters")
	if strings.TrimSpace(input.Role) != "" {
		parsed, ok := models.ParseRole(input.Role)
		v.Check(ok, "role", "role must be USER or ADMIN")
		role = parsed
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := createAccount(ctx, s.users, s.hasher, input.Name, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user created by admin", slog.String("email", user.Email), slog.String("role", string(user.Role)))
	return user, nil
}

func (s *UserServiceImpl) GetUser(ctx context.Context, callerEmail, email string) (*models.User, error) {
	if err := s.authorizeUser(ctx, callerEmail, ActionRead, email); err != nil {
		return nil, err
	}
	return s.authz.Caller(ctx, email)
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, callerEmail, email string) (int64, error) {
	if err := s.authorizeUser(ctx, callerEmail, ActionDelete, email); err != nil {
		return 0, err
	}

	email = validation.NormalizeEmail(email)
	removed, err := s.users.Delete(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return 0, apperr.NotFound("user %s not found", email)
		}
		return 0, storeError("failed to delete user", err)
	}
	s.logger.InfoContext(ctx, "user deleted", slog.String("email", email), slog.Int64("tasks_removed", removed))
	return removed, nil
}

func (s *UserServiceImpl) UpdateRole(ctx context.Context, callerEmail, email, role string) (*models.User, error) {
	if _, err := s.authz.RequireAdmin(ctx, callerEmail, ActionUpdateRole); err != nil {
		return nil, err
	}
	parsed, ok := models.ParseRole(role)
	if !ok {
		return nil, apperr.Validation("role", "role must be USER or ADMIN")
	}

	email = validation.NormalizeEmail(email)
	if err := s.users.UpdateRole(ctx, email, parsed); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("user %s not found", email)
		}
		return nil, storeError("failed to update role", err)
	}
	return s.authz.Caller(ctx, email)
}

func (s *UserServiceImpl) authorizeUser(ctx context.Context, callerEmail string, action Action, email string) error {
	decision, err := s.authz.AuthorizeUser(ctx, callerEmail, action, email)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return apperr.Forbidden(decision.Reason)
	}
	return nil
}

// createAccount hashes the password and stores a new user. A taken email is a Conflict.
func createAccount(ctx context.Context, users repositories.UserRepository, hasher PasswordHasher, name, email, password string, role models.Role) (*models.User, error) {
	email = validation.NormalizeEmail(email)

	exists, err := users.Exists(ctx, email)
	if err != nil {
		return nil, storeError("failed to check user", err)
	}
	if exists {
		return nil, apperr.Conflict("user with email %s already exists", email)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         role,
	}
	if err := users.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict("user with email %s already exists", email)
		}
		return nil, storeError("failed to create user", err)
	}
	return user, nil
}
