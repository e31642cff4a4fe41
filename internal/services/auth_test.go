package services_test

import (
	"time"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/services"
)

func (s *ServiceSuite) TestSignup_WithValidOTP() {
	s.Require().NoError(s.accounts.SendOTP(s.ctx, "new@example.com"))
	code := s.latestCode("new@example.com")

	ok, err := s.accounts.VerifyOTP(s.ctx, "new@example.com", code)
	s.Require().NoError(err)
	s.True(ok)

	user, err := s.accounts.Signup(s.ctx, services.SignupInput{
		Name: "Newbie", Email: "New@Example.com", Password: "secret1", OTP: code,
	})
	s.Require().NoError(err)
	s.Equal("new@example.com", user.Email)
	s.Equal(models.RoleUser, user.Role)
	s.NotEqual("secret1", user.PasswordHash)
	s.True(s.hasher.Compare(user.PasswordHash, "secret1"))
}

func (s *ServiceSuite) TestSignup_BadOTPCreatesNothing() {
	s.Require().NoError(s.accounts.SendOTP(s.ctx, "new@example.com"))
	code := s.latestCode("new@example.com")
	wrong := "0000"
	if code == wrong {
		wrong = "1111"
	}

	_, err := s.accounts.Signup(s.ctx, services.SignupInput{Name: "Newbie", Email: "new@example.com", Password: "secret1", OTP: wrong})
	s.True(apperr.Is(err, apperr.KindUnauthorized))

	s.clock.Advance(6 * time.Minute)
	_, err = s.accounts.Signup(s.ctx, services.SignupInput{Name: "Newbie", Email: "new@example.com", Password: "secret1", OTP: code})
	s.True(apperr.Is(err, apperr.KindUnauthorized))

	exists, err := s.users.Exists(s.ctx, "new@example.com")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *ServiceSuite) TestSignup_ExistingEmailConflictsRegardlessOfOTP() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)

	_, err := s.accounts.Signup(s.ctx, services.SignupInput{Name: "Ann", Email: "ann@example.com", Password: "secret1", OTP: "9999"})
	s.True(apperr.Is(err, apperr.KindConflict))
}

func (s *ServiceSuite) TestSignup_Validation() {
	_, err := s.accounts.Signup(s.ctx, services.SignupInput{Name: "A", Email: "a@example.com", Password: "secret1", OTP: "1234"})
	s.True(apperr.Is(err, apperr.KindValidation))

	_, err = s.accounts.Signup(s.ctx, services.SignupInput{Name: "Ann", Email: "a@example.com", Password: "12345", OTP: "1234"})
	s.True(apperr.Is(err, apperr.KindValidation))
}

func (s *ServiceSuite) TestLogin() {
	s.seedUser("ann@example.com", "Ann", models.RoleAdmin)

	result, err := s.accounts.Login(s.ctx, " ANN@example.com", "secret123")
	s.Require().NoError(err)
	s.NotEmpty(result.Token)
	s.True(result.ExpiresAt.Equal(s.clock.Now().Add(time.Hour)))

	claims, err := s.tokens.Parse(result.Token)
	s.Require().NoError(err)
	s.Equal("ann@example.com", claims.Email())
	s.Equal(models.RoleAdmin, claims.Role)

	_, err = s.accounts.Login(s.ctx, "ann@example.com", "wrong-password")
	s.True(apperr.Is(err, apperr.KindUnauthorized))
	_, err = s.accounts.Login(s.ctx, "ghost@example.com", "secret123")
	s.True(apperr.Is(err, apperr.KindUnauthorized))
}

func (s *ServiceSuite) TestForgetAndResetPassword() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)

	s.True(apperr.Is(s.accounts.ForgetPassword(s.ctx, "ghost@example.com"), apperr.KindNotFound))
	s.True(apperr.Is(s.accounts.ForgetPassword(s.ctx, "bad"), apperr.KindValidation))

	s.Require().NoError(s.accounts.ForgetPassword(s.ctx, "ann@example.com"))
	code := s.latestCode("ann@example.com")

	err := s.accounts.ResetPassword(s.ctx, services.ResetPasswordInput{
		Email: "ann@example.com", OTP: code, NewPassword: "newpass1", ConfirmPassword: "newpass2",
	})
	s.True(apperr.Is(err, apperr.KindValidation))

	err = s.accounts.ResetPassword(s.ctx, services.ResetPasswordInput{
		Email: "ann@example.com", OTP: code, NewPassword: "short", ConfirmPassword: "short",
	})
	s.True(apperr.Is(err, apperr.KindValidation))

	s.Require().NoError(s.accounts.ResetPassword(s.ctx, services.ResetPasswordInput{
		Email: "ann@example.com", OTP: code, NewPassword: "newpass1", ConfirmPassword: "newpass1",
	}))

	_, err = s.accounts.Login(s.ctx, "ann@example.com", "secret123")
	s.True(apperr.Is(err, apperr.KindUnauthorized))
	_, err = s.accounts.Login(s.ctx, "ann@example.com", "newpass1")
	s.NoError(err)
}

func (s *ServiceSuite) TestResetPassword_BadOTPAndUnknownUser() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)

	err := s.accounts.ResetPassword(s.ctx, services.ResetPasswordInput{
		Email: "ann@example.com", OTP: "1234", NewPassword: "newpass1", ConfirmPassword: "newpass1",
	})
	s.True(apperr.Is(err, apperr.KindUnauthorized))

	s.Require().NoError(s.accounts.SendOTP(s.ctx, "ghost@example.com"))
	err = s.accounts.ResetPassword(s.ctx, services.ResetPasswordInput{
		Email: "ghost@example.com", OTP: s.latestCode("ghost@example.com"), NewPassword: "newpass1", ConfirmPassword: "newpass1",
	})
	s.True(apperr.Is(err, apperr.KindNotFound))
}

func (s *ServiceSuite) TestEnsureAdmin() {
	created, err := s.accounts.EnsureAdmin(s.ctx, "", "")
	s.Require().NoError(err)
	s.False(created)

	created, err = s.accounts.EnsureAdmin(s.ctx, "root@example.com", "rootpass")
	s.Require().NoError(err)
	s.True(created)

	user, err := s.users.FindByEmail(s.ctx, "root@example.com")
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, user.Role)

	created, err = s.accounts.EnsureAdmin(s.ctx, "root@example.com", "rootpass")
	s.Require().NoError(err)
	s.False(created)
}
