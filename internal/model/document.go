package model

import (
	"encoding/json"
	"time"
)

// Document is one indexed, retrievable chunk of extracted text. The embedding
// is stored as a JSON array of float32 for portability across MySQL versions.
type Document struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Description string    `gorm:"size:512" json:"description"`
	FileID      string    `gorm:"size:36;index" json:"file_id"`
	Author      string    `gorm:"size:128;index" json:"author"`
	Embedding   string    `gorm:"type:mediumtext" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (d *Document) EmbeddingVector() []float32 {
	if d.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(d.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (d *Document) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		d.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	d.Embedding = string(b)
}
