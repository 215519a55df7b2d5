package repository

import (
	"context"

	"github.com/agensea/agency-nexus-flow/internal/database"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"gorm.io/gorm"
)

// GormChatRepository is a GORM implementation of ChatRepository
type GormChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &GormChatRepository{db: db}
}

func (r *GormChatRepository) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *GormChatRepository) FindRoom(ctx context.Context, organizationID, roomID uint64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, roomID).
		First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *GormChatRepository) ListRooms(ctx context.Context, organizationID uint64, includeArchived bool) ([]models.ChatRoom, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", organizationID)
	if !includeArchived {
		query = query.Where("status = ?", models.ChatRoomStatusActive)
	}

	var rooms []models.ChatRoom
	if err := query.Order("name ASC, id ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *GormChatRepository) UpdateRoom(ctx context.Context, roomID uint64, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.ChatRoom{}).Where("id = ?", roomID).Updates(fields).Error
}

func (r *GormChatRepository) CreateMessage(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Omit("Sender").Create(message).Error
}

func (r *GormChatRepository) FindMessage(ctx context.Context, roomID, messageID uint64) (*models.ChatMessage, error) {
	var message models.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("room_id = ? AND id = ?", roomID, messageID).
		First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ListMessages returns messages of a room, oldest first
func (r *GormChatRepository) ListMessages(ctx context.Context, roomID uint64, page, pageSize int) ([]models.ChatMessage, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ChatMessage{}).Where("room_id = ?", roomID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at ASC, id ASC").Scopes(database.Paginate(page, pageSize))

	var messages []models.ChatMessage
	if err := listQuery.Preload("Sender").Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *GormChatRepository) UpdateMessage(ctx context.Context, messageID uint64, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.ChatMessage{}).Where("id = ?", messageID).Updates(fields).Error
}
