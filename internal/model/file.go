package model

import "time"

// File is an uploaded source owning one or more Documents. Deleting a File
// must remove every Document that references it.
type File struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	Path      string    `gorm:"size:512" json:"path"`
	Author    string    `gorm:"size:128;not null;index" json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
