package repository

import (
	"fmt"

	"gorm.io/gorm"

	"ragchat/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) CreateBatch(messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}
	if err := r.db.Create(&messages).Error; err != nil {
		return fmt.Errorf("create messages batch failed: %w", err)
	}
	return nil
}

// ListBySectionID returns messages oldest first. On equal timestamps the
// user turn sorts before the assistant turn ('user' > 'assistant', DESC).
func (r *MessageRepository) ListBySectionID(sectionID string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var messages []model.Message
	if err := r.db.Where("section_id = ?", sectionID).
		Order("created_at ASC, role DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) DeleteBySectionID(sectionID string) error {
	if err := r.db.Where("section_id = ?", sectionID).Delete(&model.Message{}).Error; err != nil {
		return fmt.Errorf("delete messages by section failed: %w", err)
	}
	return nil
}
