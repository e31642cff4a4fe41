package services

import (
	"context"
	"log/slog"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/validation"
)

type SignupInput struct {
	Name     string
	Email    string
	Password string
	OTP      string
}

func (s *AccountServiceImpl) SendOTP(ctx context.Context, email string) error {
	return s.otp.Issue(ctx, email)
}

func (s *AccountServiceImpl) VerifyOTP(ctx context.Context, email, code string) (bool, error) {
	return s.otp.Verify(ctx, email, code)
}

// Signup creates a USER account once the emailed OTP checks out.
// A registered email is rejected before the OTP is looked at.
func (s *AccountServiceImpl) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	v := validation.NewChecker()
	v.Check(validation.IsValidEmail(input.Email), "email", "invalid email format")
	v.Check(validation.IsValidName(input.Name), "name", "name must be between 2 and 100 characters")
	v.Check(validation.IsValidPassword(input.Password), "password", "password must be at least 6 characters")
	if err := v.Err(); err != nil {
		return nil, err
	}
	email := validation.NormalizeEmail(input.Email)

	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		return nil, storeError("failed to check user", err)
	}
	if exists {
		return nil, apperr.Conflict("user with email %s already exists", email)
	}

	ok, err := s.otp.Verify(ctx, email, input.OTP)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Unauthorized("invalid or expired OTP")
	}

	user, err := createAccount(ctx, s.users, s.hasher, input.Name, email, input.Password, models.RoleUser)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user signed up", slog.String("email", user.Email))
	return user, nil
}
