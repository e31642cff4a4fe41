package services

import (
	"math"
	"strings"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/repositories"
	"github.com/Code-Chilll/Task-Manager/internal/validation"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"priority":  "priority",
	"completed": "completed",
	"lastDate":  "due_date",
}

// TaskQuery is the raw paging request. Page is zero-based.
type TaskQuery struct {
	Search    string
	Priority  *string
	Completed *bool
	Page      int
	Size      int
	SortBy    string
	SortDir   string
}

type TaskPage struct {
	Tasks         []models.Task `json:"tasks"`
	TotalElements int64         `json:"total_elements"`
	TotalPages    int           `json:"total_pages"`
	CurrentPage   int           `json:"current_page"`
	Size          int           `json:"size"`
	HasNext       bool          `json:"has_next"`
	HasPrevious   bool          `json:"has_previous"`
}

// filter clamps paging and validates sorting, producing a store filter.
// ownerEmail is empty for an unrestricted query.
func (q TaskQuery) filter(ownerEmail string) (repositories.TaskFilter, int, int, error) {
	page := q.Page
	if page < 0 {
		page = 0
	}
	size := q.Size
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}
	if page > math.MaxInt/size {
		page = math.MaxInt / size
	}

	sortBy := strings.TrimSpace(q.SortBy)
	if sortBy == "" {
		sortBy = "createdAt"
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return repositories.TaskFilter{}, 0, 0, apperr.Validation("sortBy", "sortBy must be one of createdAt, name, priority, completed, lastDate")
	}

	var desc bool
	switch strings.ToLower(strings.TrimSpace(q.SortDir)) {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return repositories.TaskFilter{}, 0, 0, apperr.Validation("sortDir", "sortDir must be asc or desc")
	}

	priority, err := validation.NormalizePriority(q.Priority)
	if err != nil {
		return repositories.TaskFilter{}, 0, 0, err
	}

	return repositories.TaskFilter{
		OwnerEmail: ownerEmail,
		Search:     strings.TrimSpace(q.Search),
		Priority:   priority,
		Completed:  q.Completed,
		SortColumn: column,
		SortDesc:   desc,
		Offset:     page * size,
		Limit:      size,
	}, page, size, nil
}

func newTaskPage(tasks []models.Task, total int64, page, size int) *TaskPage {
	if tasks == nil {
		tasks = []models.Task{}
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	return &TaskPage{
		Tasks:         tasks,
		TotalElements: total,
		TotalPages:    totalPages,
		CurrentPage:   page,
		Size:          size,
		HasNext:       page+1 < totalPages,
		HasPrevious:   page > 0,
	}
}
