package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LeaseStatus string

const (
	LeasePending   LeaseStatus = "PENDING"
	LeaseActive    LeaseStatus = "ACTIVE"
	LeaseRejected  LeaseStatus = "REJECTED"
	LeaseExpired   LeaseStatus = "EXPIRED"
	LeaseCancelled LeaseStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed.
func (s LeaseStatus) Terminal() bool {
	switch s {
	case LeaseActive, LeaseRejected, LeaseExpired, LeaseCancelled:
		return true
	}
	return false
}

type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
	CurrencyRON Currency = "RON"
)

// ParseCurrency accepts a case-insensitive ISO code. An empty string
// defaults to EUR.
func ParseCurrency(s string) (Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return CurrencyEUR, nil
	}
	switch c := Currency(s); c {
	case CurrencyEUR, CurrencyUSD, CurrencyGBP, CurrencyRON:
		return c, nil
	}
	return "", fmt.Errorf("unsupported currency: %s", s)
}

// LeaseAgreement holds the negotiated terms for one match. The price may
// differ from the listed property price.
type LeaseAgreement struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	MatchID      string          `gorm:"not null;index" json:"match_id"`
	MonthlyPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"monthly_price"`
	Currency     Currency        `gorm:"not null;default:EUR" json:"currency"`
	StartDate    time.Time       `gorm:"not null" json:"start_date"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
	Status       LeaseStatus     `gorm:"not null;index" json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (l *LeaseAgreement) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
