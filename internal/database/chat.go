package database

import (
	"fmt"

	"gorm.io/gorm"

	"roomify/server/internal/models"
)

// AppendMessage stores a chat entry and refreshes the match's updated_at.
func AppendMessage(tx *gorm.DB, msg *models.ChatMessage) error {
	if err := tx.Create(msg).Error; err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return TouchMatch(tx, msg.MatchID, msg.CreatedAt)
}

func ListMessages(tx *gorm.DB, matchID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := tx.Where("match_id = ?", matchID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
