package repository

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"

	"ragchat/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) CreateBatch(docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := r.db.Create(&docs).Error; err != nil {
		return fmt.Errorf("create documents batch failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// List returns one page sorted by creation ascending, plus the total count
// for pagination headers.
func (r *DocumentRepository) List(limit, offset int) ([]model.Document, int64, error) {
	var total int64
	if err := r.db.Model(&model.Document{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count documents failed: %w", err)
	}

	var docs []model.Document
	if err := r.db.Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, total, nil
}

func (r *DocumentRepository) Update(id string, fields map[string]interface{}) error {
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("update document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) DeleteByID(id string) error {
	if err := r.db.Where("id = ?", id).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) DeleteByFileID(fileID string) error {
	if err := r.db.Where("file_id = ?", fileID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete documents by file failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) CountByFileID(fileID string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Document{}).Where("file_id = ?", fileID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count documents by file failed: %w", err)
	}
	return count, nil
}

// SearchSimilar ranks all indexed documents against the query vector and
// returns up to limit results whose certainty clears the floor. Certainty is
// (1+cos)/2, the same normalization Weaviate applies, so thresholds stay in
// (0, 1]. Ranking happens in process; the corpus is chunk-sized rows, not the
// raw files, so a full scan stays cheap at this scale.
func (r *DocumentRepository) SearchSimilar(query []float32, limit int, certainty float64) ([]model.Document, error) {
	if limit <= 0 {
		limit = 3
	}

	var docs []model.Document
	if err := r.db.Where("embedding <> ''").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("load documents for search failed: %w", err)
	}

	type scored struct {
		doc   model.Document
		score float64
	}
	ranked := make([]scored, 0, len(docs))
	for i := range docs {
		score := certaintyScore(query, docs[i].EmbeddingVector())
		if score < certainty {
			continue
		}
		ranked = append(ranked, scored{doc: docs[i], score: score})
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := make([]model.Document, len(ranked))
	for i := range ranked {
		result[i] = ranked[i].doc
	}
	return result, nil
}

func certaintyScore(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (1 + cos) / 2
}
