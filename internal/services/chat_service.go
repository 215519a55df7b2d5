package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrChatRoomNotFound    = errors.New("chat room not found")
	ErrChatRoomArchived    = errors.New("chat room is archived")
	ErrChatRoomNameEmpty   = errors.New("chat room name cannot be empty")
	ErrChatMessageNotFound = errors.New("chat message not found")
	ErrChatMessageEmpty    = errors.New("message cannot be empty")
	ErrNotMessageSender    = errors.New("only the sender can change this message")
	ErrChatMessageDeleted  = errors.New("message has been deleted")
)

// ChatService manages organization chat rooms and their messages.
type ChatService struct {
	chatRepo repository.ChatRepository
}

// NewChatService creates a new ChatService.
func NewChatService(chatRepo repository.ChatRepository) *ChatService {
	return &ChatService{chatRepo: chatRepo}
}

func (s *ChatService) CreateRoom(ctx context.Context, orgID, creatorID uint64, name string) (*models.ChatRoom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrChatRoomNameEmpty
	}

	room := &models.ChatRoom{
		Name:           name,
		Status:         models.ChatRoomStatusActive,
		CreatorID:      creatorID,
		OrganizationID: orgID,
	}
	if err := s.chatRepo.CreateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create chat room: %w", err)
	}
	return room, nil
}

func (s *ChatService) ListRooms(ctx context.Context, orgID uint64, includeArchived bool) ([]models.ChatRoom, error) {
	rooms, err := s.chatRepo.ListRooms(ctx, orgID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}
	return rooms, nil
}

// ArchiveRoom hides a room from the default listing. Archived rooms are read-only.
func (s *ChatService) ArchiveRoom(ctx context.Context, orgID, roomID uint64) (*models.ChatRoom, error) {
	room, err := s.findRoom(ctx, orgID, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status == models.ChatRoomStatusArchived {
		return room, nil
	}

	if err := s.chatRepo.UpdateRoom(ctx, room.ID, map[string]any{"status": models.ChatRoomStatusArchived}); err != nil {
		return nil, fmt.Errorf("failed to archive chat room: %w", err)
	}
	room.Status = models.ChatRoomStatusArchived
	return room, nil
}

func (s *ChatService) PostMessage(ctx context.Context, orgID, roomID, senderID uint64, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrChatMessageEmpty
	}

	room, err := s.findRoom(ctx, orgID, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status == models.ChatRoomStatusArchived {
		return nil, ErrChatRoomArchived
	}

	message := &models.ChatMessage{
		RoomID:   room.ID,
		SenderID: senderID,
		Content:  content,
		Status:   models.ChatMessageStatusSent,
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}
	return message, nil
}

// ListMessages returns the messages of a room, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, orgID, roomID uint64, page, pageSize int) ([]models.ChatMessage, int64, error) {
	room, err := s.findRoom(ctx, orgID, roomID)
	if err != nil {
		return nil, 0, err
	}

	messages, total, err := s.chatRepo.ListMessages(ctx, room.ID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, total, nil
}

func (s *ChatService) EditMessage(ctx context.Context, orgID, roomID, messageID, actorID uint64, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrChatMessageEmpty
	}

	message, err := s.ownMessage(ctx, orgID, roomID, messageID, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.chatRepo.UpdateMessage(ctx, message.ID, map[string]any{
		"content": content,
		"status":  models.ChatMessageStatusEdited,
	}); err != nil {
		return nil, fmt.Errorf("failed to edit message: %w", err)
	}
	message.Content = content
	message.Status = models.ChatMessageStatusEdited
	return message, nil
}

// DeleteMessage blanks the content and marks the message deleted.
func (s *ChatService) DeleteMessage(ctx context.Context, orgID, roomID, messageID, actorID uint64) error {
	message, err := s.ownMessage(ctx, orgID, roomID, messageID, actorID)
	if err != nil {
		return err
	}

	if err := s.chatRepo.UpdateMessage(ctx, message.ID, map[string]any{
		"content": "",
		"status":  models.ChatMessageStatusDeleted,
	}); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (s *ChatService) ownMessage(ctx context.Context, orgID, roomID, messageID, actorID uint64) (*models.ChatMessage, error) {
	room, err := s.findRoom(ctx, orgID, roomID)
	if err != nil {
		return nil, err
	}

	message, err := s.chatRepo.FindMessage(ctx, room.ID, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatMessageNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	if message.SenderID != actorID {
		return nil, ErrNotMessageSender
	}
	if message.Status == models.ChatMessageStatusDeleted {
		return nil, ErrChatMessageDeleted
	}
	return message, nil
}

func (s *ChatService) findRoom(ctx context.Context, orgID, roomID uint64) (*models.ChatRoom, error) {
	room, err := s.chatRepo.FindRoom(ctx, orgID, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatRoomNotFound
		}
		return nil, fmt.Errorf("failed to find chat room: %w", err)
	}
	return room, nil
}
