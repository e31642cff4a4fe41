package services_test

import (
	"fmt"
	"math"
	"strings"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/services"
)

func (s *ServiceSuite) TestCreateTask() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)

	task, err := s.taskSvc.CreateTask(s.ctx, services.TaskInput{
		Name:        "  Write report ",
		Description: strPtr("quarterly"),
		Priority:    strPtr("HIGH"),
		DueDate:     strPtr("2024-06-01"),
	}, "ANN@example.com")
	s.Require().NoError(err)

	s.NotZero(task.ID)
	s.Equal("Write report", task.Name)
	s.Equal("high", *task.Priority)
	s.Equal("ann@example.com", task.OwnerEmail)
	s.False(task.Completed)
	s.True(task.CreatedAt.Equal(s.clock.Now()))

	msgs := s.sender.Messages()
	s.Require().Len(msgs, 1)
	s.Equal("Task Created: Write report", msgs[0].Subject)
}

func (s *ServiceSuite) TestCreateTask_Validation() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)

	cases := map[string]services.TaskInput{
		"name":        {Name: "   "},
		"description": {Name: "ok", Description: strPtr(strings.Repeat("x", 1001))},
		"priority":    {Name: "ok", Priority: strPtr("urgent")},
	}
	for field, input := range cases {
		_, err := s.taskSvc.CreateTask(s.ctx, input, "ann@example.com")
		var appErr *apperr.Error
		s.Require().ErrorAs(err, &appErr, field)
		s.Equal(apperr.KindValidation, appErr.Kind)
		s.Equal(field, appErr.Field)
	}

	_, err := s.taskSvc.CreateTask(s.ctx, services.TaskInput{Name: strings.Repeat("n", 200)}, "ann@example.com")
	s.NoError(err)
}

func (s *ServiceSuite) TestCreateTask_UnknownOwner() {
	_, err := s.taskSvc.CreateTask(s.ctx, services.TaskInput{Name: "x"}, "ghost@example.com")
	s.True(apperr.Is(err, apperr.KindNotFound))
}

func (s *ServiceSuite) TestUpdateTask_OverwritesWholesale() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	task, err := s.taskSvc.CreateTask(s.ctx, services.TaskInput{
		Name: "draft", Description: strPtr("d"), Priority: strPtr("low"), DueDate: strPtr("tomorrow"),
	}, "ann@example.com")
	s.Require().NoError(err)

	updated, err := s.taskSvc.UpdateTask(s.ctx, task.ID, services.TaskInput{Name: "final", Completed: true}, "ann@example.com")
	s.Require().NoError(err)
	s.Equal("final", updated.Name)

	stored, err := s.tasks.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("final", stored.Name)
	s.True(stored.Completed)
	s.Nil(stored.Description)
	s.Nil(stored.Priority)
	s.Nil(stored.DueDate)
	s.Equal("ann@example.com", stored.OwnerEmail)
	s.True(stored.CreatedAt.Equal(task.CreatedAt))
}

func (s *ServiceSuite) TestUpdateAndDelete_Authorization() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedUser("bob@example.com", "Bob", models.RoleUser)
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)
	task := s.seedTask("ann@example.com", "ann's")

	_, err := s.taskSvc.UpdateTask(s.ctx, task.ID, services.TaskInput{Name: "hijack"}, "bob@example.com")
	s.True(apperr.Is(err, apperr.KindForbidden))
	s.True(apperr.Is(s.taskSvc.DeleteTask(s.ctx, task.ID, "bob@example.com"), apperr.KindForbidden))

	stored, err := s.tasks.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("ann's", stored.Name)

	_, err = s.taskSvc.UpdateTask(s.ctx, task.ID, services.TaskInput{Name: "by admin"}, "admin@example.com")
	s.Require().NoError(err)
	s.Require().NoError(s.taskSvc.DeleteTask(s.ctx, task.ID, "admin@example.com"))

	_, err = s.taskSvc.UpdateTask(s.ctx, task.ID, services.TaskInput{Name: "x"}, "ann@example.com")
	s.True(apperr.Is(err, apperr.KindNotFound))
	s.True(apperr.Is(s.taskSvc.DeleteTask(s.ctx, task.ID, "ann@example.com"), apperr.KindNotFound))
}

func (s *ServiceSuite) TestDeleteTask_NotifiesOwner() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)
	task := s.seedTask("ann@example.com", "cleanup")

	s.Require().NoError(s.taskSvc.DeleteTask(s.ctx, task.ID, "admin@example.com"))

	msgs := s.sender.Messages()
	s.Require().Len(msgs, 2)
	s.Equal("ann@example.com", msgs[1].To)
	s.Equal("Task Deleted: cleanup", msgs[1].Subject)
}

func (s *ServiceSuite) TestTaskEventsDisabled() {
	svc := services.NewTaskService(s.tasks, s.authz, s.sender, false)
	s.seedUser("ann@example.com", "Ann", models.RoleUser)

	_, err := svc.CreateTask(s.ctx, services.TaskInput{Name: "quiet"}, "ann@example.com")
	s.Require().NoError(err)
	s.Empty(s.sender.Messages())
}

func (s *ServiceSuite) TestGetTask_DenyLooksAbsent() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedUser("bob@example.com", "Bob", models.RoleUser)
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)
	task := s.seedTask("ann@example.com", "private")

	got, found, err := s.taskSvc.GetTask(s.ctx, task.ID, "ann@example.com")
	s.Require().NoError(err)
	s.True(found)
	s.Equal(task.ID, got.ID)

	_, found, err = s.taskSvc.GetTask(s.ctx, task.ID, "admin@example.com")
	s.Require().NoError(err)
	s.True(found)

	_, found, err = s.taskSvc.GetTask(s.ctx, task.ID, "bob@example.com")
	s.Require().NoError(err)
	s.False(found)

	_, found, err = s.taskSvc.GetTask(s.ctx, 9999, "ann@example.com")
	s.Require().NoError(err)
	s.False(found)
}

func (s *ServiceSuite) TestListTasks_AdminSeesAll() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedUser("bob@example.com", "Bob", models.RoleUser)
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)
	s.seedTask("ann@example.com", "a1")
	s.seedTask("bob@example.com", "b1")

	mine, err := s.taskSvc.ListTasks(s.ctx, "ann@example.com")
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal("a1", mine[0].Name)

	all, err := s.taskSvc.ListTasks(s.ctx, "admin@example.com")
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *ServiceSuite) TestQueryTasks_ScopeAndPaging() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedUser("bob@example.com", "Bob", models.RoleUser)
	s.seedUser("admin@example.com", "Admin", models.RoleAdmin)
	for _, name := range []string{"a1", "a2", "a3", "a4", "a5"} {
		s.seedTask("ann@example.com", name)
	}
	s.seedTask("bob@example.com", "b1")

	page, err := s.taskSvc.QueryTasks(s.ctx, "ann@example.com", services.TaskQuery{Page: 1, Size: 2})
	s.Require().NoError(err)
	s.EqualValues(5, page.TotalElements)
	s.Equal(3, page.TotalPages)
	s.Equal(1, page.CurrentPage)
	s.Equal(2, page.Size)
	s.True(page.HasNext)
	s.True(page.HasPrevious)
	s.Require().Len(page.Tasks, 2)
	s.Equal("a3", page.Tasks[0].Name)

	page, err = s.taskSvc.QueryTasks(s.ctx, "admin@example.com", services.TaskQuery{SortBy: "name", SortDir: "DESC"})
	s.Require().NoError(err)
	s.EqualValues(6, page.TotalElements)
	s.Equal("b1", page.Tasks[0].Name)
	s.False(page.HasPrevious)
	s.False(page.HasNext)
}

func (s *ServiceSuite) TestQueryTasks_Clamping() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	s.seedTask("ann@example.com", "only")

	for _, size := range []int{0, -3, 101, 150} {
		page, err := s.taskSvc.QueryTasks(s.ctx, "ann@example.com", services.TaskQuery{Size: size, Page: -4})
		s.Require().NoError(err)
		s.Equal(10, page.Size, "size %d", size)
		s.Equal(0, page.CurrentPage)
	}

	page, err := s.taskSvc.QueryTasks(s.ctx, "ann@example.com", services.TaskQuery{Size: 100})
	s.Require().NoError(err)
	s.Equal(100, page.Size)

	page, err = s.taskSvc.QueryTasks(s.ctx, "ann@example.com", services.TaskQuery{Page: 7})
	s.Require().NoError(err)
	s.Empty(page.Tasks)
	s.NotNil(page.Tasks)
	s.False(page.HasNext)
}

func (s *ServiceSuite) TestQueryTasks_LastPartialPage() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	for i := 0; i < 25; i++ {
		s.seedTask("ann@example.com", fmt.Sprintf("t%02d", i))
	}

	page, err := s.taskSvc.QueryTasks(s.ctx, "ann@example.com", services.TaskQuery{Page: 2, Size: 10})
	s.Require().NoError(err)
	s.EqualValues(25, page.TotalElements)
	s.Equal(3, page.TotalPages)
	s.Equal(2, page.CurrentPage)
	s.False(page.HasNext)
	s.True(page.HasPrevious)
	s.Require().Len(page.Tasks, 5)
	s.Equal("t20", page.Tasks[0].Name)
	s.Equal("t24", page.Tasks[4].Name)
}

func (s *ServiceSuite) TestQueryTasks_HugePageIsEmpty() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	for i := 0; i < 25; i++ {
		s.seedTask("ann@example.com", fmt.Sprintf("t%02d", i))
	}

	for _, p := range []int{math.MaxInt/10 + 1, math.MaxInt} {
		page, err := s.taskSvc.QueryTasks(s.ctx, "ann@example.com", services.TaskQuery{Page: p, Size: 10})
		s.Require().NoError(err)
		s.Empty(page.Tasks, "page %d", p)
		s.EqualValues(25, page.TotalElements)
		s.False(page.HasNext)
		s.Positive(page.CurrentPage)
	}
}

func (s *ServiceSuite) TestQueryTasks_Filters() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)
	_, err := s.taskSvc.CreateTask(s.ctx, services.TaskInput{Name: "Ship release", Priority: strPtr("high")}, "ann@example.com")
	s.Require().NoError(err)
	_, err = s.taskSvc.CreateTask(s.ctx, services.TaskInput{Name: "Tidy desk", Completed: true}, "ann@example.com")
	s.Require().NoError(err)

	page, err := s.taskSvc.QueryTasks(s.ctx, "ann@example.com", services.TaskQuery{Priority: strPtr("High")})
	s.Require().NoError(err)
	s.EqualValues(1, page.TotalElements)

	page, err = s.taskSvc.QueryTasks(s.ctx, "ann@example.com", services.TaskQuery{Completed: boolPtr(true)})
	s.Require().NoError(err)
	s.EqualValues(1, page.TotalElements)
	s.Equal("Tidy desk", page.Tasks[0].Name)

	page, err = s.taskSvc.QueryTasks(s.ctx, "ann@example.com", services.TaskQuery{Search: "RELEASE"})
	s.Require().NoError(err)
	s.EqualValues(1, page.TotalElements)
}

func (s *ServiceSuite) TestQueryTasks_InvalidParameters() {
	s.seedUser("ann@example.com", "Ann", models.RoleUser)

	cases := map[string]services.TaskQuery{
		"sortBy":   {SortBy: "owner"},
		"sortDir":  {SortDir: "sideways"},
		"priority": {Priority: strPtr("urgent")},
	}
	for field, q := range cases {
		_, err := s.taskSvc.QueryTasks(s.ctx, "ann@example.com", q)
		var appErr *apperr.Error
		s.Require().ErrorAs(err, &appErr)
		s.Equal(apperr.KindValidation, appErr.Kind)
		s.Equal(field, appErr.Field)
	}

	for _, sortBy := range []string{"createdAt", "name", "priority", "completed", "lastDate", ""} {
		_, err := s.taskSvc.QueryTasks(s.ctx, "ann@example.com", services.TaskQuery{SortBy: sortBy})
		s.NoError(err, sortBy)
	}
}
