package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomify/server/internal/database"
	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

func setupMatch(t *testing.T) (*database.Database, *models.Match) {
	db, err := database.NewTestDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	property := &models.Property{OwnerID: "landlord-1", Title: "Flat", Price: decimal.NewFromInt(500), NumberOfRooms: 1}
	require.NoError(t, database.SaveProperty(db.DB(), property))

	match := &models.Match{TenantID: "tenant-1", PropertyID: property.ID, LandlordID: "landlord-1", Status: models.StatusMatched}
	require.NoError(t, database.CreateMatch(db.DB(), match))
	return db, match
}

func TestChatLog_WorkflowConversation(t *testing.T) {
	db, match := setupMatch(t)
	log := NewChatLog(db, nil)
	ctx := context.Background()

	at := match.UpdatedAt.Add(time.Minute)
	viewing := time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)
	price := decimal.NewFromInt(500)
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	events := []models.WorkflowEvent{
		{Type: models.EventViewingProposed, MatchID: match.ID, ActorID: "tenant-1", ViewingDate: &viewing, OccurredAt: at},
		{Type: models.EventViewingConfirmed, MatchID: match.ID, ActorID: "landlord-1", ViewingDate: &viewing, OccurredAt: at.Add(time.Second)},
		{Type: models.EventRentProposed, MatchID: match.ID, ActorID: "landlord-1", LeaseID: "lease-1", MonthlyPrice: &price, Currency: models.CurrencyEUR, StartDate: &start, OccurredAt: at.Add(2 * time.Second)},
		{Type: models.EventPaymentSucceeded, MatchID: match.ID, LeaseID: "lease-1", MonthlyPrice: &price, Currency: models.CurrencyEUR, OccurredAt: at.Add(3 * time.Second)},
	}
	for _, e := range events {
		require.NoError(t, log.Handle(e))
	}

	messages, err := log.Messages(ctx, match.ID, "landlord-1")
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, models.MessageActionCard, messages[0].Type)
	assert.Equal(t, "📅 Viewing Proposal", messages[0].Content)
	require.NotNil(t, messages[0].SenderID)
	assert.Equal(t, "tenant-1", *messages[0].SenderID)

	var viewingMeta map[string]string
	require.NoError(t, json.Unmarshal([]byte(messages[0].Metadata), &viewingMeta))
	assert.Equal(t, "VIEWING_PROPOSAL", viewingMeta["action"])
	assert.Equal(t, "2026-03-15T14:00", viewingMeta["date"])
	assert.Equal(t, "Sunday, Mar 15 at 2:00 PM", viewingMeta["formattedDate"])

	assert.Equal(t, models.MessageSystem, messages[1].Type)
	assert.Nil(t, messages[1].SenderID)
	assert.Equal(t, "✅ Viewing Confirmed for Sunday, Mar 15 at 2:00 PM", messages[1].Content)

	var rentMeta map[string]string
	require.NoError(t, json.Unmarshal([]byte(messages[2].Metadata), &rentMeta))
	assert.Equal(t, "RENT_PROPOSAL", rentMeta["action"])
	assert.Equal(t, "lease-1", rentMeta["leaseId"])
	assert.Equal(t, "500", rentMeta["price"])
	assert.Equal(t, "EUR", rentMeta["currency"])
	assert.Equal(t, "2026-04-01", rentMeta["startDate"])

	assert.Equal(t, "🎉 Payment of 500 EUR successful! Lease is now ACTIVE.", messages[3].Content)

	// Appending bumps the match activity timestamp
	stored, err := database.GetMatch(db.DB(), match.ID)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.After(match.UpdatedAt))
}

func TestChatLog_MessagesRestrictedToParties(t *testing.T) {
	db, match := setupMatch(t)
	log := NewChatLog(db, nil)

	_, err := log.Messages(context.Background(), match.ID, "stranger")
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = log.Messages(context.Background(), "missing", "tenant-1")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestChatLog_RejectsIncompleteEvents(t *testing.T) {
	db, match := setupMatch(t)
	log := NewChatLog(db, nil)

	err := log.Handle(models.WorkflowEvent{Type: models.EventViewingProposed, MatchID: match.ID})
	assert.Error(t, err)

	// Unknown event types are ignored
	assert.NoError(t, log.Handle(models.WorkflowEvent{Type: "somethingElse", MatchID: match.ID}))

	messages, err := log.Messages(context.Background(), match.ID, "tenant-1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
