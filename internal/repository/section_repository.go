package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragchat/internal/model"
)

type SectionRepository struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) Create(section *model.Section) error {
	if err := r.db.Create(section).Error; err != nil {
		return fmt.Errorf("create section failed: %w", err)
	}
	return nil
}

func (r *SectionRepository) GetByID(id string) (*model.Section, error) {
	var section model.Section
	if err := r.db.Where("id = ?", id).First(&section).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get section failed: %w", err)
	}
	return &section, nil
}

// ListByAuthor returns the most recent conversations first, plus the total
// count for pagination.
func (r *SectionRepository) ListByAuthor(author string, limit, offset int) ([]model.Section, int64, error) {
	var total int64
	if err := r.db.Model(&model.Section{}).Where("author = ?", author).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count sections failed: %w", err)
	}

	var sections []model.Section
	if err := r.db.Where("author = ?", author).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&sections).Error; err != nil {
		return nil, 0, fmt.Errorf("list sections failed: %w", err)
	}
	return sections, total, nil
}

func (r *SectionRepository) Update(id string, fields map[string]interface{}) (bool, error) {
	res := r.db.Model(&model.Section{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("update section failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SectionRepository) DeleteByID(id string) (bool, error) {
	res := r.db.Where("id = ?", id).Delete(&model.Section{})
	if res.Error != nil {
		return false, fmt.Errorf("delete section failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
