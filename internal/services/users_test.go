package services_test

import (
	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/services"
)

func (s *ServiceSuite) TestListUsers_AdminOnly() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)

	users, err := s.userSvc.ListUsers(s.ctx, "admin@example.com")
	s.Require().NoError(err)
	s.Len(users, 2)

	_, err = s.userSvc.ListUsers(s.ctx, "ann@example.com")
	s.True(apperr.Is(err, apperr.KindForbidden))
}

func (s *ServiceSuite) TestCreateUser() {
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)
	s.seedUser("ann@example.com", "Ann", models.RoleUser)

	user, err := s.userSvc.CreateUser(s.ctx, "admin@example.com", services.NewUser{
		Name: "Carol", Email: " Carol@Example.com", Password: "hunter22", Role: "admin",
	})
	s.Require().NoError(err)
	s.Equal("carol@example.com", user.Email)
	s.Equal(models.RoleAdmin, user.Role)
	s.True(s.hasher.Compare(user.PasswordHash, "hunter22"))

	_, err = s.userSvc.CreateUser(s.ctx, "admin@example.com", services.NewUser{
		Name: "Carol", Email: "carol@example.com", Password: "hunter22",
	})
	s.True(apperr.Is(err, apperr.KindConflict))

	_, err = s.userSvc.CreateUser(s.ctx, "admin@example.com", services.NewUser{
		Name: "Dan", Email: "dan@example.com", Password: "hunter22", Role: "root",
	})
	s.True(apperr.Is(err, apperr.KindValidation))

	_, err = s.userSvc.CreateUser(s.ctx, "ann@example.com", services.NewUser{
		Name: "Eve", Email: "eve@example.com", Password: "hunter22",
	})
	s.True(apperr.Is(err, apperr.KindForbidden))
}

func (s *ServiceSuite) TestGetUser_SelfOrAdmin() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedUser("bob@example.com", "Bob", models.RoleUser)
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)

	user, err := s.userSvc.GetUser(s.ctx, "ann@example.com", "ann@example.com")
	s.Require().NoError(err)
	s.Equal("Ann", user.Name)

	_, err = s.userSvc.GetUser(s.ctx, "ann@example.com", "bob@example.com")
	s.True(apperr.Is(err, apperr.KindForbidden))

	_, err = s.userSvc.GetUser(s.ctx, "admin@example.com", "bob@example.com")
	s.NoError(err)

	_, err = s.userSvc.GetUser(s.ctx, "admin@example.com", "ghost@example.com")
	s.True(apperr.Is(err, apperr.KindNotFound))
}

func (s *ServiceSuite) TestDeleteUser_CascadesTasks() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedUser("bob@example.com", "Bob", models.RoleUser)
	s.seedTask("ann@example.com", "t1")
	s.seedTask("ann@example.com", "t2")

	_, err := s.userSvc.DeleteUser(s.ctx, "bob@example.com", "ann@example.com")
	s.True(apperr.Is(err, apperr.KindForbidden))

	removed, err := s.userSvc.DeleteUser(s.ctx, "ann@example.com", "ann@example.com")
	s.Require().NoError(err)
	s.EqualValues(2, removed)

	remaining, err := s.tasks.List(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(remaining)
}

func (s *ServiceSuite) TestUpdateRole() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)

	user, err := s.userSvc.UpdateRole(s.ctx, "admin@example.com", "ann@example.com", "admin")
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, user.Role)

	_, err = s.userSvc.UpdateRole(s.ctx, "admin@example.com", "ann@example.com", "superuser")
	s.True(apperr.Is(err, apperr.KindValidation))

	_, err = s.userSvc.UpdateRole(s.ctx, "admin@example.com", "ghost@example.com", "USER")
	s.True(apperr.Is(err, apperr.KindNotFound))

	s.seedUser("bob@example.com", "Bob", models.RoleUser)
	_, err = s.userSvc.UpdateRole(s.ctx, "bob@example.com", "bob@example.com", "ADMIN")
	s.True(apperr.Is(err, apperr.KindForbidden))
}
