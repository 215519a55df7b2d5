package handlers

import (
	"net/http"

	"github.com/agensea/agency-nexus-flow/internal/dto"
	apierrors "github.com/agensea/agency-nexus-flow/internal/errors"
	"github.com/agensea/agency-nexus-flow/internal/services"
	"github.com/agensea/agency-nexus-flow/internal/utils"
	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

type chatMessageRequest struct {
	Content string `json:"content" binding:"required,max=10000"`
}

// ListRooms lists chat rooms; archived ones only with ?include_archived=true
func (h *ChatHandler) ListRooms(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	rooms, err := h.chatService.ListRooms(c.Request.Context(), orgID, c.Query("include_archived") == "true")
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rooms": rooms,
	})
}

func (h *ChatHandler) CreateRoom(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	type CreateRoomRequest struct {
		Name string `json:"name" binding:"required,max=255"`
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	room, err := h.chatService.CreateRoom(c.Request.Context(), orgID, userID, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

func (h *ChatHandler) ArchiveRoom(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	roomID, ok := parseIDParam(c, "room_id", "room ID")
	if !ok {
		return
	}

	room, err := h.chatService.ArchiveRoom(c.Request.Context(), orgID, roomID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// ListMessages returns a page of messages, oldest first
func (h *ChatHandler) ListMessages(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	roomID, ok := parseIDParam(c, "room_id", "room ID")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	messages, total, err := h.chatService.ListMessages(c.Request.Context(), orgID, roomID, params.Page, params.PageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":   messages,
		"pagination": dto.NewPageMeta(params.Page, params.PageSize, total),
	})
}

func (h *ChatHandler) PostMessage(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	roomID, ok := parseIDParam(c, "room_id", "room ID")
	if !ok {
		return
	}

	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	message, err := h.chatService.PostMessage(c.Request.Context(), orgID, roomID, userID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// EditMessage rewrites the caller's own message
func (h *ChatHandler) EditMessage(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	roomID, ok := parseIDParam(c, "room_id", "room ID")
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c, "message_id", "message ID")
	if !ok {
		return
	}

	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	message, err := h.chatService.EditMessage(c.Request.Context(), orgID, roomID, messageID, userID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, message)
}

// DeleteMessage marks the caller's own message deleted
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	roomID, ok := parseIDParam(c, "room_id", "room ID")
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c, "message_id", "message ID")
	if !ok {
		return
	}

	if err := h.chatService.DeleteMessage(c.Request.Context(), orgID, roomID, messageID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Message deleted successfully",
	})
}
