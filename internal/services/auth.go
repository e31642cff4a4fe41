package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/repositories"
	"github.com/Code-Chilll/Task-Manager/internal/validation"
)

const msgBadCredentials = "invalid email or password"

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type ResetPasswordInput struct {
	Email           string
	OTP             string
	NewPassword     string
	ConfirmPassword string
}

// AccountService covers the unauthenticated account flows: OTP signup,
// login and password reset.
type AccountService interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (bool, error)
	Signup(ctx context.Context, input SignupInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ForgetPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type AccountServiceImpl struct {
	base
	users  repositories.UserRepository
	otp    OTPService
	hasher PasswordHasher
	tokens TokenService
}

func NewAccountService(users repositories.UserRepository, otp OTPService, hasher PasswordHasher, tokens TokenService, opts ...Option) *AccountServiceImpl {
	return &AccountServiceImpl{base: newBase(opts), users: users, otp: otp, hasher: hasher, tokens: tokens}
}

func (s *AccountServiceImpl) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = validation.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthorized(msgBadCredentials)
		}
		return nil, storeError("failed to load user", err)
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		s.logger.InfoContext(ctx, "login rejected", slog.String("email", email))
		return nil, apperr.Unauthorized(msgBadCredentials)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ForgetPassword issues an OTP, but only to a registered email.
func (s *AccountServiceImpl) ForgetPassword(ctx context.Context, email string) error {
	if !validation.IsValidEmail(email) {
		return apperr.Validation("email", "invalid email format")
	}
	email = validation.NormalizeEmail(email)

	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		return storeError("failed to check user", err)
	}
	if !exists {
		return apperr.NotFound("user %s not found", email)
	}
	return s.otp.Issue(ctx, email)
}

func (s *AccountServiceImpl) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	v := validation.NewChecker()
	v.Check(input.NewPassword == input.ConfirmPassword, "confirm_password", "passwords do not match")
	v.Check(validation.IsValidPassword(input.NewPassword), "new_password", "password must be at least 6 characters")
	if err := v.Err(); err != nil {
		return err
	}

	email := validation.NormalizeEmail(input.Email)
	ok, err := s.otp.Verify(ctx, email, input.OTP)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Unauthorized("invalid or expired OTP")
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, email, hash); err != nil {
		if isNotFound(err) {
			return apperr.NotFound("user %s not found", email)
		}
		return storeError("failed to update password", err)
	}

	s.logger.InfoContext(ctx, "password reset", slog.String("email", email))
	return nil
}

// EnsureAdmin seeds an ADMIN account when email is set and not yet registered.
// It reports whether an account was created.
func (s *AccountServiceImpl) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" {
		return false, nil
	}
	if !validation.IsValidEmail(email) {
		return false, apperr.Validation("email", "invalid admin email")
	}
	if !validation.IsValidPassword(password) {
		return false, apperr.Validation("password", "admin password must be at least 6 characters")
	}

	exists, err := s.users.Exists(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return false, storeError("failed to check user", err)
	}
	if exists {
		return false, nil
	}

	user, err := createAccount(ctx, s.users, s.hasher, "Administrator", email, password, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	s.logger.InfoContext(ctx, "admin account created", slog.String("email", user.Email))
	return true, nil
}
