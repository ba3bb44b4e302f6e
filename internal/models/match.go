package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchStatus string

const (
	// Matching phase
	StatusTenantLiked   MatchStatus = "TENANT_LIKED"
	StatusLandlordLiked MatchStatus = "LANDLORD_LIKED"
	StatusMatched       MatchStatus = "MATCHED"

	// Rental workflow phase
	StatusViewingRequested MatchStatus = "VIEWING_REQUESTED"
	StatusViewingScheduled MatchStatus = "VIEWING_SCHEDULED"
	StatusOfferPending     MatchStatus = "OFFER_PENDING"
	StatusRented           MatchStatus = "RENTED"

	// Dead ends for the pair, kept for scoring history
	StatusLandlordDeclined MatchStatus = "LANDLORD_DECLINED"
	StatusTenantDeclined   MatchStatus = "TENANT_DECLINED"
)

// Confirmed reports whether both sides have agreed, which covers MATCHED
// and every rental workflow status after it.
func (s MatchStatus) Confirmed() bool {
	switch s {
	case StatusMatched, StatusViewingRequested, StatusViewingScheduled, StatusOfferPending, StatusRented:
		return true
	}
	return false
}

// Match is the per (tenant, property) record tracking mutual interest and
// rental workflow state.
type Match struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	TenantID    string      `gorm:"not null;uniqueIndex:idx_match_pair" json:"tenant_id"`
	PropertyID  uint        `gorm:"not null;uniqueIndex:idx_match_pair" json:"property_id"`
	LandlordID  string      `gorm:"not null;index" json:"landlord_id"`
	Status      MatchStatus `gorm:"not null;index" json:"status"`
	Score       float64     `gorm:"not null;default:0" json:"score"`
	ViewingDate *time.Time  `json:"viewing_date,omitempty"`
	Version     int         `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// IsParty reports whether userID is the tenant or the landlord of the match.
func (m *Match) IsParty(userID string) bool {
	return userID != "" && (m.TenantID == userID || m.LandlordID == userID)
}
