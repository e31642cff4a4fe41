package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/middleware"
	"github.com/Code-Chilll/Task-Manager/internal/services"
)

type TaskHandler struct {
	tasks  services.TaskService
	logger *slog.Logger
}

type TaskRequest struct {
	Name        string  `json:"name" binding:"required,taskname"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Completed   bool    `json:"completed"`
	Priority    *string `json:"priority" binding:"omitempty,priority"`
	DueDate     *string `json:"due_date"`
}

func (r TaskRequest) input() services.TaskInput {
	return services.TaskInput{
		Name:        r.Name,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
	}
}

func NewTaskHandler(tasks services.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), req.input(), middleware.CallerEmail(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), id, req.input(), middleware.CallerEmail(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(c.Request.Context(), id, middleware.CallerEmail(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTaskByID answers 404 for a task the caller may not see, same as a missing one.
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	task, found, err := h.tasks.GetTask(c.Request.Context(), id, middleware.CallerEmail(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !found {
		respondError(c, h.logger, apperr.NotFound("task %d not found", id))
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	tasks, err := h.tasks.ListTasks(c.Request.Context(), middleware.CallerEmail(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTasksPaginated(c *gin.Context) {
	query, err := parseTaskQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	page, err := h.tasks.QueryTasks(c.Request.Context(), middleware.CallerEmail(c), query)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func parseTaskQuery(c *gin.Context) (services.TaskQuery, error) {
	q := services.TaskQuery{
		Search:  c.Query("search"),
		SortBy:  c.Query("sortBy"),
		SortDir: c.Query("sortDir"),
	}

	if v, ok := c.GetQuery("priority"); ok && v != "" {
		q.Priority = &v
	}
	if v := c.Query("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, apperr.Validation("completed", "completed must be true or false")
		}
		q.Completed = &b
	}

	var err error
	if q.Page, err = intQuery(c, "page", 0); err != nil {
		return q, err
	}
	if q.Size, err = intQuery(c, "size", services.DefaultPageSize); err != nil {
		return q, err
	}
	return q, nil
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation(key, key+" must be an integer")
	}
	return n, nil
}

func taskID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   apperr.KindValidation,
			Message: "task id must be a positive integer",
			Field:   "id",
		})
		return 0, false
	}
	return id, true
}
