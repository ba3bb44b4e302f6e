// Package notify consumes workflow events: it keeps the per-match chat log
// and optionally forwards events to Telegram.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"roomify/server/internal/database"
	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

const (
	viewingDayFormat  = "Monday, Jan 2 at 3:04 PM"
	viewingDateFormat = "2006-01-02T15:04"
	leaseDateFormat   = "2006-01-02"
)

// ChatLog writes one chat entry per workflow event
type ChatLog struct {
	db     *database.Database
	logger *logrus.Logger
}

func NewChatLog(db *database.Database, logger *logrus.Logger) *ChatLog {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &ChatLog{db: db, logger: logger}
}

// Handle is an event queue subscriber
func (c *ChatLog) Handle(event models.WorkflowEvent) error {
	msg, err := messageFor(event)
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}

	err = c.db.Transaction(context.Background(), func(tx *gorm.DB) error {
		return database.AppendMessage(tx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to log %s for match %s: %w", event.Type, event.MatchID, err)
	}

	c.logger.WithFields(logrus.Fields{
		"event":    event.Type,
		"match_id": event.MatchID,
		"type":     msg.Type,
	}).Debug("Chat entry written")
	return nil
}

// Messages returns the conversation of a match to one of its parties
func (c *ChatLog) Messages(ctx context.Context, matchID, userID string) ([]models.ChatMessage, error) {
	tx := c.db.WithContext(ctx)
	match, err := database.GetMatch(tx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParty(userID) {
		return nil, errs.Forbidden("user is not part of match %s", matchID)
	}
	return database.ListMessages(tx, matchID)
}

func messageFor(event models.WorkflowEvent) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{
		MatchID:   event.MatchID,
		Type:      models.MessageSystem,
		CreatedAt: event.OccurredAt,
	}

	switch event.Type {
	case models.EventViewingProposed:
		if event.ViewingDate == nil {
			return nil, fmt.Errorf("viewing proposal without a date for match %s", event.MatchID)
		}
		metadata, err := json.Marshal(map[string]string{
			"action":        "VIEWING_PROPOSAL",
			"date":          event.ViewingDate.Format(viewingDateFormat),
			"formattedDate": event.ViewingDate.Format(viewingDayFormat),
		})
		if err != nil {
			return nil, err
		}
		msg.Type = models.MessageActionCard
		msg.SenderID = sender(event.ActorID)
		msg.Content = "📅 Viewing Proposal"
		msg.Metadata = string(metadata)

	case models.EventViewingConfirmed:
		if event.ViewingDate == nil {
			return nil, fmt.Errorf("viewing confirmation without a date for match %s", event.MatchID)
		}
		msg.Content = "✅ Viewing Confirmed for " + event.ViewingDate.Format(viewingDayFormat)

	case models.EventRentProposed:
		if event.MonthlyPrice == nil || event.StartDate == nil {
			return nil, fmt.Errorf("rent proposal without terms for match %s", event.MatchID)
		}
		metadata, err := json.Marshal(map[string]string{
			"action":    "RENT_PROPOSAL",
			"leaseId":   event.LeaseID,
			"price":     event.MonthlyPrice.String(),
			"currency":  string(event.Currency),
			"startDate": event.StartDate.Format(leaseDateFormat),
		})
		if err != nil {
			return nil, err
		}
		msg.Type = models.MessageActionCard
		msg.SenderID = sender(event.ActorID)
		msg.Content = "💰 Rent Proposal"
		msg.Metadata = string(metadata)

	case models.EventPaymentSucceeded:
		price := "?"
		if event.MonthlyPrice != nil {
			price = event.MonthlyPrice.String()
		}
		msg.Content = fmt.Sprintf("🎉 Payment of %s %s successful! Lease is now ACTIVE.", price, event.Currency)

	case models.EventOfferDeclined:
		msg.Content = "❌ Rent proposal declined. The landlord can send new terms."

	case models.EventOfferExpired:
		msg.Content = "⌛ Rent proposal expired without payment."

	case models.EventOfferCancelled:
		msg.Content = "🚫 Rent proposal cancelled. The property has been rented to another tenant."

	default:
		return nil, nil
	}

	return msg, nil
}

func sender(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
