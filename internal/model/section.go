package model

import "time"

// Section is a chat conversation container owning an ordered list of
// Messages that share its id. Title is never empty after creation.
type Section struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Order     int       `gorm:"column:sort_order" json:"order"`
	Author    string    `gorm:"size:128;not null;index" json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
