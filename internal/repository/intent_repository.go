package repository

import (
	"fmt"

	"gorm.io/gorm"

	"ragchat/internal/model"
)

type IntentRepository struct {
	db *gorm.DB
}

func NewIntentRepository(db *gorm.DB) *IntentRepository {
	return &IntentRepository{db: db}
}

func (r *IntentRepository) Create(intent *model.DeletionIntent) error {
	if err := r.db.Create(intent).Error; err != nil {
		return fmt.Errorf("create deletion intent failed: %w", err)
	}
	return nil
}

func (r *IntentRepository) List() ([]model.DeletionIntent, error) {
	var intents []model.DeletionIntent
	if err := r.db.Order("created_at ASC").Find(&intents).Error; err != nil {
		return nil, fmt.Errorf("list deletion intents failed: %w", err)
	}
	return intents, nil
}

func (r *IntentRepository) DeleteByID(id string) error {
	if err := r.db.Where("id = ?", id).Delete(&model.DeletionIntent{}).Error; err != nil {
		return fmt.Errorf("delete deletion intent failed: %w", err)
	}
	return nil
}
