package services_test

import (
	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/services"
)

func (s *ServiceSuite) TestAuthorizeTask_OwnerAdminAndStranger() {
	s.seedUser("owner@example.com", "Owner", models.RoleUser)
	s.seedUser("other@example.com", "Other", models.RoleUser)
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)
	task := &models.Task{ID: 7, OwnerEmail: "owner@example.com"}

	cases := []struct {
		caller  string
		allowed bool
		reason  string
	}{
		{"owner@example.com", true, "owner"},
		{"  OWNER@example.com ", true, "owner"},
		{"admin@example.com", true, "admin"},
		{"other@example.com", false, services.ReasonUnauthorized},
	}
	for _, tc := range cases {
		for _, action := range []services.Action{services.ActionRead, services.ActionUpdate, services.ActionDelete} {
			decision, err := s.authz.AuthorizeTask(s.ctx, tc.caller, action, task)
			s.Require().NoError(err)
			s.Equal(tc.allowed, decision.Allowed, "%s %s", tc.caller, action)
			s.Equal(tc.reason, decision.Reason)
		}
	}
}

func (s *ServiceSuite) TestAuthorizeTask_UnknownCaller() {
	_, err := s.authz.AuthorizeTask(s.ctx, "ghost@example.com", services.ActionUpdate, &models.Task{OwnerEmail: "ghost@example.com"})
	s.True(apperr.Is(err, apperr.KindNotFound))
}

func (s *ServiceSuite) TestAuthorizeTask_WritesAuditTrail() {
	s.seedUser("owner@example.com", "Owner", models.RoleUser)
	s.seedUser("other@example.com", "Other", models.RoleUser)
	task := &models.Task{ID: 3, OwnerEmail: "owner@example.com"}

	_, err := s.authz.AuthorizeTask(s.ctx, "other@example.com", services.ActionDelete, task)
	s.Require().NoError(err)

	entries, err := s.audit.ListByCaller(s.ctx, "other@example.com", 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(models.DecisionDeny, entries[0].Decision)
	s.Equal("delete", entries[0].Action)
	s.Equal("task", entries[0].Resource)
	s.Equal("3", entries[0].ResourceID)
	s.Equal("owner@example.com", entries[0].Context["owner_email"])
	s.True(entries[0].Timestamp.Equal(s.clock.Now()))
}

func (s *ServiceSuite) TestAuthorizeUser() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedUser("bob@example.com", "Bob", models.RoleUser)
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)

	cases := []struct {
		caller, target string
		action         services.Action
		allowed        bool
	}{
		{"ann@example.com", "ann@example.com", services.ActionRead, true},
		{"ann@example.com", "ANN@example.com", services.ActionDelete, true},
		{"ann@example.com", "bob@example.com", services.ActionRead, false},
		{"ann@example.com", "ann@example.com", services.ActionUpdateRole, false},
		{"admin@example.com", "bob@example.com", services.ActionDelete, true},
		{"admin@example.com", "bob@example.com", services.ActionUpdateRole, true},
	}
	for _, tc := range cases {
		decision, err := s.authz.AuthorizeUser(s.ctx, tc.caller, tc.action, tc.target)
		s.Require().NoError(err)
		s.Equal(tc.allowed, decision.Allowed, "%s %s %s", tc.caller, tc.action, tc.target)
	}
}

func (s *ServiceSuite) TestRequireAdmin() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)

	admin, err := s.authz.RequireAdmin(s.ctx, "admin@example.com", services.ActionList)
	s.Require().NoError(err)
	s.Equal("admin@example.com", admin.Email)

	_, err = s.authz.RequireAdmin(s.ctx, "ann@example.com", services.ActionList)
	s.True(apperr.Is(err, apperr.KindForbidden))

	_, err = s.authz.RequireAdmin(s.ctx, "nobody@example.com", services.ActionList)
	s.True(apperr.Is(err, apperr.KindNotFound))
}
