package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/notify"
	"github.com/Code-Chilll/Task-Manager/internal/repositories"
	"github.com/Code-Chilll/Task-Manager/internal/validation"
)

// TaskInput carries the mutable task fields. On update every field is
// written, so an omitted field becomes null or false.
type TaskInput struct {
	Name        string
	Description *string
	Completed   bool
	Priority    *string
	DueDate     *string
}

type TaskService interface {
	CreateTask(ctx context.Context, input TaskInput, ownerEmail string) (*models.Task, error)
	UpdateTask(ctx context.Context, id uint64, input TaskInput, callerEmail string) (*models.Task, error)
	DeleteTask(ctx context.Context, id uint64, callerEmail string) error
	// GetTask reports found=false both for a missing task and for one the caller may not see.
	GetTask(ctx context.Context, id uint64, callerEmail string) (*models.Task, bool, error)
	ListTasks(ctx context.Context, callerEmail string) ([]models.Task, error)
	QueryTasks(ctx context.Context, callerEmail string, query TaskQuery) (*TaskPage, error)
}

type TaskServiceImpl struct {
	base
	tasks        repositories.TaskRepository
	authz        AuthorizationService
	sender       notify.Sender
	notifyEvents bool
}

func NewTaskService(tasks repositories.TaskRepository, authz AuthorizationService, sender notify.Sender, notifyEvents bool, opts ...Option) *TaskServiceImpl {
	return &TaskServiceImpl{
		base:         newBase(opts),
		tasks:        tasks,
		authz:        authz,
		sender:       sender,
		notifyEvents: notifyEvents,
	}
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, input TaskInput, ownerEmail string) (*models.Task, error) {
	owner, err := s.authz.Caller(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	task := &models.Task{OwnerEmail: owner.Email}
	if err := applyInput(task, input); err != nil {
		return nil, err
	}
	task.CreatedAt = s.now()

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, storeError("failed to create task", err)
	}

	s.logger.InfoContext(ctx, "task created", slog.Uint64("task_id", task.ID), slog.String("owner", task.OwnerEmail))
	s.notifyOwner(ctx, notify.TaskCreated, task)
	return task, nil
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, id uint64, input TaskInput, callerEmail string) (*models.Task, error) {
	task, err := s.authorized(ctx, id, callerEmail, ActionUpdate)
	if err != nil {
		return nil, err
	}

	if err := applyInput(task, input); err != nil {
		return nil, err
	}
	if err := s.tasks.UpdateContent(ctx, task); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("task %d not found", id)
		}
		return nil, storeError("failed to update task", err)
	}

	s.notifyOwner(ctx, notify.TaskUpdated, task)
	return task, nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, id uint64, callerEmail string) error {
	task, err := s.authorized(ctx, id, callerEmail, ActionDelete)
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return apperr.NotFound("task %d not found", id)
		}
		return storeError("failed to delete task", err)
	}

	s.logger.InfoContext(ctx, "task deleted", slog.Uint64("task_id", id), slog.String("by", validation.NormalizeEmail(callerEmail)))
	s.notifyOwner(ctx, notify.TaskDeleted, task)
	return nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, id uint64, callerEmail string) (*models.Task, bool, error) {
	task, err := s.authorized(ctx, id, callerEmail, ActionRead)
	switch {
	case err == nil:
		return task, true, nil
	case apperr.Is(err, apperr.KindNotFound), apperr.Is(err, apperr.KindForbidden):
		return nil, false, nil
	default:
		return nil, false, err
	}
}

func (s *TaskServiceImpl) ListTasks(ctx context.Context, callerEmail string) ([]models.Task, error) {
	caller, err := s.authz.Caller(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	owner := caller.Email
	if caller.IsAdmin() {
		owner = ""
	}
	tasks, err := s.tasks.List(ctx, owner)
	if err != nil {
		return nil, storeError("failed to list tasks", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *TaskServiceImpl) QueryTasks(ctx context.Context, callerEmail string, query TaskQuery) (*TaskPage, error) {
	caller, err := s.authz.Caller(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	owner := caller.Email
	if caller.IsAdmin() {
		owner = ""
	}
	filter, page, size, err := query.filter(owner)
	if err != nil {
		return nil, err
	}

	tasks, total, err := s.tasks.Search(ctx, filter)
	if err != nil {
		return nil, storeError("failed to query tasks", err)
	}
	return newTaskPage(tasks, total, page, size), nil
}

// authorized loads the task and checks the caller may perform action on it.
func (s *TaskServiceImpl) authorized(ctx context.Context, id uint64, callerEmail string, action Action) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("task %d not found", id)
		}
		return nil, storeError("failed to load task", err)
	}

	decision, err := s.authz.AuthorizeTask(ctx, callerEmail, action, task)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, apperr.Forbidden(decision.Reason)
	}
	return task, nil
}

func (s *TaskServiceImpl) notifyOwner(ctx context.Context, event notify.TaskEvent, task *models.Task) {
	if !s.notifyEvents || s.sender == nil {
		return
	}
	msg, err := notify.Render(task.OwnerEmail, notify.TemplateTaskEvent, notify.NewTaskEventData(event, task))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to render task email", slog.String("error", err.Error()))
		return
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "failed to send task email",
			slog.Uint64("task_id", task.ID),
			slog.String("to", task.OwnerEmail),
			slog.String("error", err.Error()),
		)
	}
}

func applyInput(task *models.Task, input TaskInput) error {
	v := validation.NewChecker()
	v.Check(validation.IsValidTaskName(input.Name), "name", "task name is required and must be at most 200 characters")
	v.Check(input.Description == nil || validation.IsValidDescription(*input.Description), "description", "description must be at most 1000 characters")
	if err := v.Err(); err != nil {
		return err
	}

	priority, err := validation.NormalizePriority(input.Priority)
	if err != nil {
		return err
	}

	task.Name = strings.TrimSpace(input.Name)
	task.Description = input.Description
	task.Completed = input.Completed
	task.Priority = priority
	task.DueDate = input.DueDate
	return nil
}
