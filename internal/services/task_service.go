package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/constants"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrNotTaskCreator         = errors.New("only the task creator can perform this action")
	ErrTaskPermissionDenied   = errors.New("user does not have permission to modify this task")
	ErrNoUserIDsProvided      = errors.New("at least one user ID is required")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleEmpty             = errors.New("title cannot be empty")
	ErrInvalidTaskStatus      = errors.New("invalid task status")
	ErrInvalidTaskPriority    = errors.New("invalid task priority")
	ErrInvalidTaskAssignee    = errors.New("one or more users are not active members of the organization")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
	ErrAITooManyTasks         = fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
)

var taskDetailPreloads = []string{"Creator", "Organization", "Client", "Assignments", "Assignments.User"}

// TaskService handles task business logic
type TaskService struct {
	taskRepo   repository.TaskRepository
	orgRepo    repository.OrganizationRepository
	teamRepo   repository.TeamRepository
	clientRepo repository.ClientRepository
	aiService  TaskGenerator
	now        func() time.Time
}

// TaskGenerator extracts tasks from free text.
type TaskGenerator interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

// NewTaskService creates a new TaskService. aiService may be nil.
func NewTaskService(
	taskRepo repository.TaskRepository,
	orgRepo repository.OrganizationRepository,
	teamRepo repository.TeamRepository,
	clientRepo repository.ClientRepository,
	aiService TaskGenerator,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		orgRepo:    orgRepo,
		teamRepo:   teamRepo,
		clientRepo: clientRepo,
		aiService:  aiService,
		now:        time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID         uint64
	OrganizationID *uint64
	AssignedToMe   bool
	AssigneeID     *uint64
	ClientID       *uint64
	DueToday       bool
	Status         *models.TaskStatus
	SortByDueDate  bool
	Page           int
	PageSize       int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title          string
	Description    string
	Status         models.TaskStatus
	Priority       models.TaskPriority
	DueDate        *time.Time
	ClientID       *uint64
	OrganizationID uint64
	CreatorID      uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	ClientID     *uint64
	ClearClient  bool
}

// AssignUsersInput represents input for assigning users to a task
type AssignUsersInput struct {
	TaskID  uint64
	ActorID uint64
	UserIDs []uint64
}

// ListTasks returns tasks accessible to a user based on the provided filters
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	orgIDs, err := s.resolveAccessibleOrganizationIDs(ctx, input.UserID, input.OrganizationID)
	if err != nil {
		return nil, 0, err
	}

	if len(orgIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	filter := repository.TaskFilter{
		OrganizationIDs: orgIDs,
		Status:          input.Status,
		AssignedUserID:  input.AssigneeID,
		ClientID:        input.ClientID,
		Page:            input.Page,
		PageSize:        input.PageSize,
		SortByDueDate:   input.SortByDueDate,
	}

	if input.AssignedToMe {
		filter.AssignedUserID = &input.UserID
	}
	if input.DueToday {
		now := s.now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endOfDay := startOfDay.Add(24 * time.Hour)
		filter.DueDateFrom = &startOfDay
		filter.DueDateTo = &endOfDay
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(ctx context.Context, taskID uint64) (*models.Task, error) {
	return s.findTask(ctx, taskID, taskDetailPreloads...)
}

// CreateTask creates a new task with validation and assigns the creator
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if _, err := activeMember(ctx, s.teamRepo, input.OrganizationID, input.CreatorID); err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidTaskStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidTaskPriority
	}
	if input.ClientID != nil {
		if err := s.ensureClient(ctx, input.OrganizationID, *input.ClientID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		Status:         input.Status,
		Priority:       input.Priority,
		DueDate:        input.DueDate,
		ClientID:       input.ClientID,
		OrganizationID: input.OrganizationID,
		CreatorID:      input.CreatorID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.taskRepo.AssignUsers(ctx, task.ID, []uint64{input.CreatorID}); err != nil {
		return nil, fmt.Errorf("failed to assign creator to task: %w", err)
	}

	return s.taskRepo.FindByID(ctx, task.ID, taskDetailPreloads...)
}

// UpdateTask updates an existing task
func (s *TaskService) UpdateTask(ctx context.Context, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidTaskStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidTaskPriority
		}
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.ClearClient {
		task.ClientID = nil
	} else if input.ClientID != nil {
		if err := s.ensureClient(ctx, task.OrganizationID, *input.ClientID); err != nil {
			return nil, err
		}
		task.ClientID = input.ClientID
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(ctx, task.ID, taskDetailPreloads...)
}

// DeleteTask deletes a task if the actor is the creator
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID uint64) error {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return err
	}

	if task.CreatorID != actorID {
		return ErrNotTaskCreator
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// AssignUsers assigns multiple users to a task with validation
func (s *TaskService) AssignUsers(ctx context.Context, input AssignUsersInput) (*models.Task, error) {
	if len(input.UserIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	task, err := s.findTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}

	if task.CreatorID != input.ActorID {
		return nil, ErrNotTaskCreator
	}

	userIDs := uniqueUint64(input.UserIDs)

	count, err := s.taskRepo.CountActiveMembers(ctx, userIDs, task.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(userIDs) {
		return nil, ErrInvalidTaskAssignee
	}

	if err := s.taskRepo.AssignUsers(ctx, task.ID, userIDs); err != nil {
		return nil, fmt.Errorf("failed to assign users: %w", err)
	}

	return s.taskRepo.FindByID(ctx, task.ID, "Assignments", "Assignments.User")
}

// UnassignUsers removes user assignments from a task
func (s *TaskService) UnassignUsers(ctx context.Context, input AssignUsersInput) (*models.Task, error) {
	if len(input.UserIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	task, err := s.findTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}

	if task.CreatorID != input.ActorID {
		return nil, ErrNotTaskCreator
	}

	if err := s.taskRepo.UnassignUsers(ctx, task.ID, uniqueUint64(input.UserIDs)); err != nil {
		return nil, fmt.Errorf("failed to unassign users: %w", err)
	}

	return s.taskRepo.FindByID(ctx, task.ID, "Assignments", "Assignments.User")
}

// ToggleTaskStatus toggles a task between todo and done
func (s *TaskService) ToggleTaskStatus(ctx context.Context, taskID, actorID uint64) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID, "Assignments")
	if err != nil {
		return nil, err
	}

	if task.CreatorID != actorID {
		permitted := false
		for _, assignment := range task.Assignments {
			if assignment.UserID == actorID {
				permitted = true
				break
			}
		}
		if !permitted {
			return nil, ErrTaskPermissionDenied
		}
	}

	if task.Status == models.TaskStatusDone {
		task.Status = models.TaskStatusTodo
	} else {
		task.Status = models.TaskStatusDone
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to toggle status: %w", err)
	}

	return task, nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text           string
	OrganizationID uint64
	CreatorID      uint64
}

// GenerateTasks uses AI to generate task suggestions from text
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if _, err := activeMember(ctx, s.teamRepo, input.OrganizationID, input.CreatorID); err != nil {
		return nil, err
	}

	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, ErrAITooManyTasks
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}
		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// resolveAccessibleOrganizationIDs returns the organization IDs the user can access
func (s *TaskService) resolveAccessibleOrganizationIDs(ctx context.Context, userID uint64, organizationID *uint64) ([]uint64, error) {
	if organizationID != nil {
		if _, err := activeMember(ctx, s.teamRepo, *organizationID, userID); err != nil {
			return nil, err
		}
		return []uint64{*organizationID}, nil
	}

	memberships, err := s.orgRepo.ListMembershipsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization memberships: %w", err)
	}

	orgIDs := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		orgIDs = append(orgIDs, m.OrganizationID)
	}

	return orgIDs, nil
}

func (s *TaskService) ensureClient(ctx context.Context, orgID, clientID uint64) error {
	if _, err := s.clientRepo.FindByID(ctx, orgID, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to find client: %w", err)
	}
	return nil
}

func (s *TaskService) findTask(ctx context.Context, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
