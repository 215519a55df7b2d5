package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/dto"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"github.com/agensea/agency-nexus-flow/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	env     *testEnv
	creator *models.User
	member  *models.User
	org     *models.Organization
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.env = setupTestEnv(suite.T())
	suite.creator = suite.env.createUser(suite.T(), "creator@example.com")
	suite.member = suite.env.createUser(suite.T(), "member@example.com")
	suite.org = suite.env.createOrganization(suite.T(), "Acme", suite.creator)
	suite.env.addMember(suite.T(), suite.org.ID, suite.member, models.RoleMember)
}

func taskPath(taskID uint64, action string) string {
	path := "/api/tasks/" + strconv.FormatUint(taskID, 10)
	if action != "" {
		path += "/" + action
	}
	return path
}

func (suite *TaskHandlerTestSuite) createTask(body map[string]any, userID uint64) dto.TaskDTO {
	if _, ok := body["organization_id"]; !ok {
		body["organization_id"] = suite.org.ID
	}
	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks", body, userID)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.TaskDTO](suite.T(), w)
}

func (suite *TaskHandlerTestSuite) listTasks(query string, userID uint64) dto.TaskListResponse {
	w := suite.env.do(suite.T(), http.MethodGet, "/api/tasks"+query, nil, userID)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return decode[dto.TaskListResponse](suite.T(), w)
}

// TestCreateTask tests task creation with defaults and creator assignment
func (suite *TaskHandlerTestSuite) TestCreateTask() {
	task := suite.createTask(map[string]any{"title": "  Draft proposal  "}, suite.creator.ID)

	suite.Equal("Draft proposal", task.Title)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.Equal(suite.creator.ID, task.CreatorID)
	suite.Require().Len(task.Assignments, 1)
	suite.Equal(suite.creator.ID, task.Assignments[0].User.ID)
}

// TestCreateTask_Validation tests rejected task bodies
func (suite *TaskHandlerTestSuite) TestCreateTask_Validation() {
	outsider := suite.env.createUser(suite.T(), "outsider@example.com")

	cases := []struct {
		name   string
		body   map[string]any
		userID uint64
		status int
	}{
		{"missing title", map[string]any{"organization_id": suite.org.ID}, suite.creator.ID, http.StatusBadRequest},
		{"blank title", map[string]any{"title": "   ", "organization_id": suite.org.ID}, suite.creator.ID, http.StatusBadRequest},
		{"bad priority", map[string]any{"title": "x", "priority": "urgent", "organization_id": suite.org.ID}, suite.creator.ID, http.StatusBadRequest},
		{"unknown client", map[string]any{"title": "x", "client_id": 999, "organization_id": suite.org.ID}, suite.creator.ID, http.StatusNotFound},
		{"not a member", map[string]any{"title": "x", "organization_id": suite.org.ID}, outsider.ID, http.StatusForbidden},
		{"anonymous", map[string]any{"title": "x", "organization_id": suite.org.ID}, 0, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks", tc.body, tc.userID)
			suite.Equal(tc.status, w.Code, w.Body.String())
		})
	}
}

// TestListTasks_Filters tests the list filters and sort order
func (suite *TaskHandlerTestSuite) TestListTasks_Filters() {
	later := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	sooner := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	suite.createTask(map[string]any{"title": "No date"}, suite.creator.ID)
	suite.createTask(map[string]any{"title": "Later", "due_date": later}, suite.creator.ID)
	suite.createTask(map[string]any{"title": "Sooner", "due_date": sooner, "status": "in_progress"}, suite.member.ID)

	all := suite.listTasks("", suite.creator.ID)
	suite.EqualValues(3, all.TotalCount)
	suite.Equal(1, all.TotalPages)

	mine := suite.listTasks("?assigned_to_me=true", suite.member.ID)
	suite.Require().Len(mine.Tasks, 1)
	suite.Equal("Sooner", mine.Tasks[0].Title)

	inProgress := suite.listTasks("?status=in_progress", suite.creator.ID)
	suite.Require().Len(inProgress.Tasks, 1)

	byDue := suite.listTasks("?sort=due_date", suite.creator.ID)
	suite.Require().Len(byDue.Tasks, 3)
	suite.Equal([]string{"Sooner", "Later", "No date"},
		[]string{byDue.Tasks[0].Title, byDue.Tasks[1].Title, byDue.Tasks[2].Title})

	paged := suite.listTasks("?page=2&page_size=2", suite.creator.ID)
	suite.Len(paged.Tasks, 1)
	suite.Equal(2, paged.Page)
	suite.Equal(2, paged.TotalPages)

	w := suite.env.do(suite.T(), http.MethodGet, "/api/tasks?status=blocked", nil, suite.creator.ID)
	suite.Equal(http.StatusBadRequest, w.Code)
}

// TestListTasks_ScopedToMemberships tests that other organizations stay hidden
func (suite *TaskHandlerTestSuite) TestListTasks_ScopedToMemberships() {
	suite.createTask(map[string]any{"title": "Internal"}, suite.creator.ID)

	outsider := suite.env.createUser(suite.T(), "outsider@example.com")
	other := suite.env.createOrganization(suite.T(), "Other", outsider)
	suite.createTask(map[string]any{"title": "Elsewhere", "organization_id": other.ID}, outsider.ID)

	list := suite.listTasks("", suite.member.ID)
	suite.Require().Len(list.Tasks, 1)
	suite.Equal("Internal", list.Tasks[0].Title)

	w := suite.env.do(suite.T(), http.MethodGet, "/api/tasks?organization_id="+strconv.FormatUint(other.ID, 10), nil, suite.member.ID)
	suite.Equal(http.StatusForbidden, w.Code)
}

// TestGetTask_HiddenFromNonMembers tests that task existence is not leaked
func (suite *TaskHandlerTestSuite) TestGetTask_HiddenFromNonMembers() {
	task := suite.createTask(map[string]any{"title": "Secret"}, suite.creator.ID)
	outsider := suite.env.createUser(suite.T(), "outsider@example.com")

	w := suite.env.do(suite.T(), http.MethodGet, taskPath(task.ID, ""), nil, outsider.ID)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, taskPath(task.ID, ""), nil, suite.member.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	detail := decode[dto.TaskDTO](suite.T(), w)
	suite.Require().NotNil(detail.Creator)
	suite.Equal("creator@example.com", detail.Creator.Email)
	suite.Require().NotNil(detail.Organization)
	suite.Equal("Acme", detail.Organization.Name)
}

// TestUpdateTask_Patch tests partial updates and clearing nullable fields
func (suite *TaskHandlerTestSuite) TestUpdateTask_Patch() {
	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	task := suite.createTask(map[string]any{"title": "Original", "description": "keep me", "due_date": due}, suite.creator.ID)
	suite.Require().NotNil(task.DueDate)

	w := suite.env.do(suite.T(), http.MethodPatch, taskPath(task.ID, ""), map[string]any{
		"title":    "Renamed",
		"priority": "high",
		"due_date": nil,
	}, suite.member.ID)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	updated := decode[dto.TaskDTO](suite.T(), w)
	suite.Equal("Renamed", updated.Title)
	suite.Equal("keep me", updated.Description)
	suite.Equal(models.TaskPriorityHigh, updated.Priority)
	suite.Nil(updated.DueDate)

	w = suite.env.do(suite.T(), http.MethodPatch, taskPath(task.ID, ""), map[string]any{"due_date": "tomorrow"}, suite.creator.ID)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.do(suite.T(), http.MethodPatch, taskPath(task.ID, ""), map[string]any{"title": ""}, suite.creator.ID)
	suite.Equal(http.StatusBadRequest, w.Code)
}

// TestDeleteTask tests that only the creator can delete
func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	task := suite.createTask(map[string]any{"title": "Disposable"}, suite.creator.ID)

	w := suite.env.do(suite.T(), http.MethodDelete, taskPath(task.ID, ""), nil, suite.member.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.env.do(suite.T(), http.MethodDelete, taskPath(task.ID, ""), nil, suite.creator.ID)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, taskPath(task.ID, ""), nil, suite.creator.ID)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestAssignAndUnassign tests assignment changes and their guards
func (suite *TaskHandlerTestSuite) TestAssignAndUnassign() {
	task := suite.createTask(map[string]any{"title": "Shared"}, suite.creator.ID)
	outsider := suite.env.createUser(suite.T(), "outsider@example.com")

	w := suite.env.do(suite.T(), http.MethodPost, taskPath(task.ID, "assign"), map[string]any{"user_ids": []uint64{outsider.ID}}, suite.creator.ID)
	suite.Equal(http.StatusBadRequest, w.Code, "outsiders cannot be assigned")

	w = suite.env.do(suite.T(), http.MethodPost, taskPath(task.ID, "assign"), map[string]any{"user_ids": []uint64{suite.member.ID}}, suite.member.ID)
	suite.Equal(http.StatusForbidden, w.Code, "only the creator assigns")

	w = suite.env.do(suite.T(), http.MethodPost, taskPath(task.ID, "assign"), map[string]any{"user_ids": []uint64{}}, suite.creator.ID)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.do(suite.T(), http.MethodPost, taskPath(task.ID, "assign"), map[string]any{"user_ids": []uint64{suite.member.ID, suite.member.ID}}, suite.creator.ID)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	assigned := decode[struct {
		Assignments []dto.TaskAssignmentDTO `json:"assignments"`
	}](suite.T(), w)
	suite.Len(assigned.Assignments, 2)

	w = suite.env.do(suite.T(), http.MethodPost, taskPath(task.ID, "unassign"), map[string]any{"user_ids": []uint64{suite.creator.ID}}, suite.creator.ID)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	unassigned := decode[struct {
		Assignments []dto.TaskAssignmentDTO `json:"assignments"`
	}](suite.T(), w)
	suite.Require().Len(unassigned.Assignments, 1)
	suite.Equal(suite.member.ID, unassigned.Assignments[0].User.ID)
}

// TestToggleTask tests the todo/done toggle permissions
func (suite *TaskHandlerTestSuite) TestToggleTask() {
	task := suite.createTask(map[string]any{"title": "Flip me", "status": "in_progress"}, suite.creator.ID)

	w := suite.env.do(suite.T(), http.MethodPost, taskPath(task.ID, "toggle"), nil, suite.member.ID)
	suite.Equal(http.StatusForbidden, w.Code, "unassigned members cannot toggle")

	w = suite.env.do(suite.T(), http.MethodPost, taskPath(task.ID, "toggle"), nil, suite.creator.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("done", decode[map[string]any](suite.T(), w)["status"])

	w = suite.env.do(suite.T(), http.MethodPost, taskPath(task.ID, "assign"), map[string]any{"user_ids": []uint64{suite.member.ID}}, suite.creator.ID)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.env.do(suite.T(), http.MethodPost, taskPath(task.ID, "toggle"), nil, suite.member.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("todo", decode[map[string]any](suite.T(), w)["status"])
}

// TestGenerateTasks tests AI generation through the generator
func (suite *TaskHandlerTestSuite) TestGenerateTasks() {
	stale := time.Now().Add(-72 * time.Hour)
	suite.env.generator.tasks = []services.GeneratedTask{
		{Title: "Call the printer", Priority: models.TaskPriorityHigh},
		{Title: "   "},
		{Title: "Send recap", DueDate: &stale},
	}

	body := map[string]any{"text": "notes from the kickoff", "organization_id": suite.org.ID}
	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks/generate", body, suite.member.ID)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	result := decode[struct {
		Tasks []services.GeneratedTask `json:"tasks"`
	}](suite.T(), w)
	suite.Require().Len(result.Tasks, 2)
	suite.Equal("Call the printer", result.Tasks[0].Title)
	suite.Nil(result.Tasks[1].DueDate, "past due dates are dropped")

	suite.env.generator.tasks = make([]services.GeneratedTask, 21)
	for i := range suite.env.generator.tasks {
		suite.env.generator.tasks[i].Title = "task"
	}
	w = suite.env.do(suite.T(), http.MethodPost, "/api/tasks/generate", body, suite.member.ID)
	suite.Equal(http.StatusBadGateway, w.Code)

	suite.env.generator.tasks = nil
	suite.env.generator.err = errors.New("rate limited")
	w = suite.env.do(suite.T(), http.MethodPost, "/api/tasks/generate", body, suite.member.ID)
	suite.Equal(http.StatusInternalServerError, w.Code)
}

// TestGenerateTasks_NotConfigured tests the response without an AI key
func (suite *TaskHandlerTestSuite) TestGenerateTasks_NotConfigured() {
	db := suite.env.db
	handler := NewTaskHandler(services.NewTaskService(
		repository.NewTaskRepository(db),
		repository.NewOrganizationRepository(db),
		repository.NewTeamRepository(db),
		repository.NewClientRepository(db),
		nil,
	))

	r := gin.New()
	r.Use(testIdentity())
	r.POST("/api/tasks/generate", handler.GenerateTasks)
	suite.env.router = r

	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks/generate", map[string]any{
		"text":            "anything",
		"organization_id": suite.org.ID,
	}, suite.creator.ID)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
