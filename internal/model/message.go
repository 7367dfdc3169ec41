package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation. Immutable once recorded; ordering
// within a section is by created_at, user before assistant on equal stamps.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SectionID string    `gorm:"size:36;not null;index" json:"session_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordedTurn is the unit the transcript recorder publishes: the user
// message and the assistant answer of one exchange, persisted together.
type RecordedTurn struct {
	Messages []Message `json:"messages"`
}
