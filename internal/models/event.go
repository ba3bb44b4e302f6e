package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventViewingProposed  EventType = "viewingProposed"
	EventViewingConfirmed EventType = "viewingConfirmed"
	EventRentProposed     EventType = "rentProposed"
	EventPaymentSucceeded EventType = "paymentSucceeded"
	EventOfferDeclined    EventType = "offerDeclined"
	EventOfferExpired     EventType = "offerExpired"
	EventOfferCancelled   EventType = "offerCancelled"
)

// WorkflowEvent is emitted by the rental workflow after a transition has
// been committed. ActorID is empty for system initiated transitions.
type WorkflowEvent struct {
	Type         EventType        `json:"type"`
	MatchID      string           `json:"match_id"`
	ActorID      string           `json:"actor_id,omitempty"`
	ViewingDate  *time.Time       `json:"viewing_date,omitempty"`
	LeaseID      string           `json:"lease_id,omitempty"`
	MonthlyPrice *decimal.Decimal `json:"monthly_price,omitempty"`
	Currency     Currency         `json:"currency,omitempty"`
	StartDate    *time.Time       `json:"start_date,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}
