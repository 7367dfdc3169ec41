package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragchat/internal/model"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(file *model.File) error {
	if err := r.db.Create(file).Error; err != nil {
		return fmt.Errorf("create file failed: %w", err)
	}
	return nil
}

func (r *FileRepository) GetByID(id string) (*model.File, error) {
	var file model.File
	if err := r.db.Where("id = ?", id).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get file failed: %w", err)
	}
	return &file, nil
}

func (r *FileRepository) ListByAuthor(author string, limit, offset int) ([]model.File, int64, error) {
	var total int64
	if err := r.db.Model(&model.File{}).Where("author = ?", author).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count files failed: %w", err)
	}

	var files []model.File
	if err := r.db.Where("author = ?", author).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&files).Error; err != nil {
		return nil, 0, fmt.Errorf("list files failed: %w", err)
	}
	return files, total, nil
}

// Update applies only the supplied fields. Callers include updated_at.
func (r *FileRepository) Update(id string, fields map[string]interface{}) error {
	if err := r.db.Model(&model.File{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("update file failed: %w", err)
	}
	return nil
}

func (r *FileRepository) DeleteByID(id string) error {
	if err := r.db.Where("id = ?", id).Delete(&model.File{}).Error; err != nil {
		return fmt.Errorf("delete file failed: %w", err)
	}
	return nil
}
