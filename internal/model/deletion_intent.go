package model

import "time"

// DeletionIntent marks a file-delete cascade in progress. A row that survives
// a restart means the cascade was interrupted and must be finished by the
// reconciliation pass.
type DeletionIntent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	FileID    string    `gorm:"size:36;not null;index" json:"file_id"`
	CreatedAt time.Time `json:"created_at"`
}
