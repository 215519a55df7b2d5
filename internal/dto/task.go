package dto

import (
	"time"

	"github.com/agensea/agency-nexus-flow/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	LogoURL  string `json:"logo_url,omitempty"`
	Currency string `json:"currency"`
}

// ClientSummaryDTO represents a client attached to another resource
type ClientSummaryDTO struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
}

// TaskAssignmentDTO represents a task assignment in API responses
type TaskAssignmentDTO struct {
	User UserDTO `json:"user"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	DueDate        *time.Time          `json:"due_date"`
	ClientID       *uint64             `json:"client_id"`
	CreatorID      uint64              `json:"creator_id"`
	OrganizationID uint64              `json:"organization_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Creator        *UserDTO            `json:"creator,omitempty"`
	Organization   *OrganizationDTO    `json:"organization,omitempty"`
	Client         *ClientSummaryDTO   `json:"client,omitempty"`
	Assignments    []TaskAssignmentDTO `json:"assignments,omitempty"`
}

// TaskListItemDTO represents a task in list responses (minimal data)
type TaskListItemDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	DueDate        *time.Time          `json:"due_date"`
	ClientID       *uint64             `json:"client_id"`
	OrganizationID uint64              `json:"organization_id"`
	CreatorID      uint64              `json:"creator_id"`
	Creator        *UserDTO            `json:"creator,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks []TaskListItemDTO `json:"tasks"`
	PageMeta
}

// PageMeta is the pagination block of list responses
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// NewPageMeta computes the page count for a list response
func NewPageMeta(page, pageSize int, totalCount int64) PageMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return PageMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
	}
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:       org.ID,
		Name:     org.Name,
		LogoURL:  org.LogoURL,
		Currency: org.Currency,
	}
}

func toClientSummary(client *models.Client) *ClientSummaryDTO {
	if client == nil || client.ID == 0 {
		return nil
	}
	return &ClientSummaryDTO{
		ID:      client.ID,
		Name:    client.Name,
		Company: client.Company,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		DueDate:        task.DueDate,
		ClientID:       task.ClientID,
		CreatorID:      task.CreatorID,
		OrganizationID: task.OrganizationID,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		Client:         toClientSummary(task.Client),
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	// Include organization if preloaded
	if task.Organization.ID != 0 {
		org := ToOrganizationDTO(task.Organization)
		dto.Organization = &org
	}

	if len(task.Assignments) > 0 {
		dto.Assignments = ToTaskAssignmentDTOs(task.Assignments)
	}

	return dto
}

// ToTaskAssignmentDTOs converts preloaded assignments
func ToTaskAssignmentDTOs(assignments []models.TaskAssignment) []TaskAssignmentDTO {
	result := make([]TaskAssignmentDTO, len(assignments))
	for i, assignment := range assignments {
		result[i] = TaskAssignmentDTO{
			User: ToUserDTO(assignment.User),
		}
	}
	return result
}

// ToTaskListItemDTO converts a Task model to TaskListItemDTO
func ToTaskListItemDTO(task models.Task) TaskListItemDTO {
	dto := TaskListItemDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		DueDate:        task.DueDate,
		ClientID:       task.ClientID,
		OrganizationID: task.OrganizationID,
		CreatorID:      task.CreatorID,
		CreatedAt:      task.CreatedAt,
	}

	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskListItemDTO(task)
	}

	return TaskListResponse{
		Tasks:    items,
		PageMeta: NewPageMeta(page, pageSize, totalCount),
	}
}
