package services

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/monitoring"
	"github.com/Code-Chilll/Task-Manager/internal/repositories"
	"github.com/Code-Chilll/Task-Manager/internal/validation"
)

type Action string

const (
	ActionRead       Action = "read"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionList       Action = "list"
	ActionUpdateRole Action = "update_role"
)

const (
	resourceTask = "task"
	resourceUser = "user"
)

// ReasonUnauthorized is the deny reason for a task the caller neither owns nor administers.
const ReasonUnauthorized = "Unauthorized"

type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

type AuthorizationService interface {
	// Caller resolves a registered user by email.
	Caller(ctx context.Context, email string) (*models.User, error)
	AuthorizeTask(ctx context.Context, callerEmail string, action Action, task *models.Task) (Decision, error)
	AuthorizeUser(ctx context.Context, callerEmail string, action Action, targetEmail string) (Decision, error)
	// RequireAdmin returns the caller when they hold the ADMIN role and a Forbidden error otherwise.
	RequireAdmin(ctx context.Context, callerEmail string, action Action) (*models.User, error)
}

type AuthorizationServiceImpl struct {
	base
	users repositories.UserRepository
	audit repositories.AuditRepository
}

func NewAuthorizationService(users repositories.UserRepository, audit repositories.AuditRepository, opts ...Option) *AuthorizationServiceImpl {
	return &AuthorizationServiceImpl{base: newBase(opts), users: users, audit: audit}
}

func (s *AuthorizationServiceImpl) Caller(ctx context.Context, email string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("user %s not found", email)
		}
		return nil, storeError("failed to load user", err)
	}
	return user, nil
}

func (s *AuthorizationServiceImpl) AuthorizeTask(ctx context.Context, callerEmail string, action Action, task *models.Task) (Decision, error) {
	caller, err := s.Caller(ctx, callerEmail)
	if err != nil {
		return Decision{}, err
	}

	var decision Decision
	switch {
	case caller.IsAdmin():
		decision = allow("admin")
	case task.OwnedBy(caller.Email):
		decision = allow("owner")
	default:
		decision = deny(ReasonUnauthorized)
	}

	s.record(ctx, caller, action, resourceTask, strconv.FormatUint(task.ID, 10), decision, map[string]any{
		"owner_email": task.OwnerEmail,
	})
	return decision, nil
}

func (s *AuthorizationServiceImpl) AuthorizeUser(ctx context.Context, callerEmail string, action Action, targetEmail string) (Decision, error) {
	caller, err := s.Caller(ctx, callerEmail)
	if err != nil {
		return Decision{}, err
	}
	targetEmail = validation.NormalizeEmail(targetEmail)

	var decision Decision
	switch {
	case caller.IsAdmin():
		decision = allow("admin")
	case action != ActionRead && action != ActionDelete:
		decision = deny("admin role required")
	case caller.Email == targetEmail:
		decision = allow("self")
	default:
		decision = deny("cannot access another user's account")
	}

	s.record(ctx, caller, action, resourceUser, targetEmail, decision, nil)
	return decision, nil
}

func (s *AuthorizationServiceImpl) RequireAdmin(ctx context.Context, callerEmail string, action Action) (*models.User, error) {
	caller, err := s.Caller(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	decision := deny("admin role required")
	if caller.IsAdmin() {
		decision = allow("admin")
	}
	s.record(ctx, caller, action, resourceUser, "", decision, nil)

	if !decision.Allowed {
		return nil, apperr.Forbidden(decision.Reason)
	}
	return caller, nil
}

// record counts the decision and appends it to the audit log. A failed audit write is logged only.
func (s *AuthorizationServiceImpl) record(ctx context.Context, caller *models.User, action Action, resource, resourceID string, decision Decision, extra map[string]any) {
	monitoring.RecordAuthzDecision(resource, string(action), decision.Allowed)

	outcome := models.DecisionDeny
	if decision.Allowed {
		outcome = models.DecisionAllow
	}

	auditContext := map[string]any{"role": string(caller.Role)}
	for k, v := range extra {
		auditContext[k] = v
	}

	entry := &models.AuditLog{
		CallerEmail: caller.Email,
		Action:      string(action),
		Resource:    resource,
		ResourceID:  resourceID,
		Decision:    outcome,
		Reason:      decision.Reason,
		Context:     auditContext,
		Timestamp:   s.now(),
	}
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to write audit log",
			slog.String("caller", caller.Email),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
	}
}
