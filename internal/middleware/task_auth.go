package middleware

import (
	"errors"
	"strconv"

	"github.com/agensea/agency-nexus-flow/internal/constants"
	apierrors "github.com/agensea/agency-nexus-flow/internal/errors"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequireTaskAccess checks if the user has access to a task
// User must be an active member of the task's organization
func RequireTaskAccess(taskRepo repository.TaskRepository, teamRepo repository.TeamRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		ctx := c.Request.Context()

		task, err := taskRepo.FindByID(ctx, taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Task not found")
				return
			}
			apierrors.InternalError(c, "Failed to load task")
			return
		}

		// Return 404 instead of 403 to avoid leaking task existence
		member, err := teamRepo.FindMember(ctx, task.OrganizationID, userID)
		if err != nil || !member.IsActive() {
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.InternalError(c, "Failed to verify membership")
				return
			}
			apierrors.NotFound(c, "Task not found")
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask returns the task loaded by RequireTaskAccess.
func GetTask(c *gin.Context) (*models.Task, bool) {
	v, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := v.(*models.Task)
	return task, ok
}
