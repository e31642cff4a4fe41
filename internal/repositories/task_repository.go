package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Code-Chilll/Task-Manager/internal/models"
)

// TaskFilter narrows a task listing. Zero values mean "no constraint".
// SortColumn must already be a trusted column name of the tasks table.
type TaskFilter struct {
	OwnerEmail string
	Search     string
	Priority   *string
	Completed  *bool
	SortColumn string
	SortDesc   bool
	Offset     int
	Limit      int
}

type TaskRepository interface {
	FindByID(ctx context.Context, id uint64) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	// UpdateContent overwrites the mutable fields. Owner and creation time are left untouched.
	UpdateContent(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, ownerEmail string) ([]models.Task, error)
	Search(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	return translate(r.db.WithContext(ctx).Create(task).Error)
}

func (r *taskRepository) UpdateContent(ctx context.Context, task *models.Task) error {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", task.ID).
		Select("name", "description", "completed", "priority", "due_date").
		Updates(map[string]any{
			"name":        task.Name,
			"description": task.Description,
			"completed":   task.Completed,
			"priority":    task.Priority,
			"due_date":    task.DueDate,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns tasks in id order; an empty ownerEmail lists every task.
func (r *taskRepository) List(ctx context.Context, ownerEmail string) ([]models.Task, error) {
	q := r.db.WithContext(ctx).Order("id ASC")
	if ownerEmail != "" {
		q = q.Where("owner_email = ?", ownerEmail)
	}

	var tasks []models.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Search(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortColumn := filter.SortColumn
	if sortColumn == "" {
		sortColumn = "created_at"
	}

	q := r.filtered(ctx, filter).
		Select("tasks.*").
		Order(clause.OrderByColumn{Column: clause.Column{Table: "tasks", Name: sortColumn}, Desc: filter.SortDesc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "tasks", Name: "id"}})
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var tasks []models.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *taskRepository) filtered(ctx context.Context, filter TaskFilter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Joins("JOIN users ON users.email = tasks.owner_email")

	if filter.OwnerEmail != "" {
		q = q.Where("tasks.owner_email = ?", filter.OwnerEmail)
	}

	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where(`(LOWER(tasks.name) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(tasks.description, '')) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(tasks.priority, '')) LIKE ? ESCAPE '\'
			OR LOWER(users.name) LIKE ? ESCAPE '\'
			OR LOWER(users.email) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern, pattern)
	}

	if filter.Priority != nil {
		q = q.Where("tasks.priority = ?", *filter.Priority)
	}

	if filter.Completed != nil {
		q = q.Where("tasks.completed = ?", *filter.Completed)
	}

	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
