package models

import "time"

type MessageType string

const (
	MessageText       MessageType = "TEXT"
	MessageSystem     MessageType = "SYSTEM"
	MessageActionCard MessageType = "ACTION_CARD"
)

// ChatMessage is a conversation entry attached to a match. SenderID is nil
// for system messages.
type ChatMessage struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	MatchID   string      `gorm:"not null;index:idx_chat_match_date" json:"match_id"`
	SenderID  *string     `json:"sender_id"`
	Type      MessageType `gorm:"not null;default:TEXT" json:"type"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Metadata  string      `gorm:"type:text" json:"metadata,omitempty"`
	IsRead    bool        `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time   `gorm:"index:idx_chat_match_date" json:"created_at"`
}
