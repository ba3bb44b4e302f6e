package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type LayoutType string

const (
	LayoutDecomandat     LayoutType = "DECOMANDAT"
	LayoutSemidecomandat LayoutType = "SEMIDECOMANDAT"
	LayoutNedecomandat   LayoutType = "NEDECOMANDAT"
)

// TenantType is the single category a tenant declares and the set a
// property prefers.
type TenantType string

const (
	TenantStudent          TenantType = "STUDENT"
	TenantStudentsColiving TenantType = "STUDENTS_COLIVING"
	TenantProfessional     TenantType = "PROFESSIONAL"
	TenantFamily           TenantType = "FAMILY"
	TenantFamilyWithKids   TenantType = "FAMILY_WITH_KIDS"
	TenantCouple           TenantType = "COUPLE"
)

var tenantTypeNames = map[TenantType]string{
	TenantStudent:          "Student",
	TenantStudentsColiving: "Students (Coliving)",
	TenantProfessional:     "Professional",
	TenantFamily:           "Family",
	TenantFamilyWithKids:   "Family with Kids",
	TenantCouple:           "Couple",
}

// DisplayName returns the label shown to users
func (t TenantType) DisplayName() string {
	return tenantTypeNames[t]
}

// ParseTenantType accepts either the code ("FAMILY_WITH_KIDS") or the
// display name ("Family with Kids"), case-insensitively.
func ParseTenantType(s string) (TenantType, error) {
	s = strings.TrimSpace(s)
	for code, name := range tenantTypeNames {
		if strings.EqualFold(string(code), s) || strings.EqualFold(name, s) {
			return code, nil
		}
	}
	return "", fmt.Errorf("unknown tenant type: %s", s)
}

func ParseLayoutType(s string) (LayoutType, error) {
	switch l := LayoutType(strings.ToUpper(strings.TrimSpace(s))); l {
	case LayoutDecomandat, LayoutSemidecomandat, LayoutNedecomandat:
		return l, nil
	}
	return "", fmt.Errorf("unknown layout type: %s", s)
}

// Property is the read-only listing snapshot owned by the property
// directory.
type Property struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OwnerID          string          `gorm:"index;not null" json:"owner_id"`
	Title            string          `gorm:"not null" json:"title"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Surface          float64         `json:"surface"`
	Address          string          `json:"address"`
	NumberOfRooms    int             `gorm:"not null" json:"number_of_rooms"`
	HasExtraBathroom bool            `json:"has_extra_bathroom"`
	LayoutType       *LayoutType     `json:"layout_type"`
	SmokerFriendly   *bool           `json:"smoker_friendly"`
	PetFriendly      *bool           `json:"pet_friendly"`
	PreferredTenants []TenantType    `gorm:"serializer:json;type:text" json:"preferred_tenants"`
	Latitude         *float64        `json:"latitude"`
	Longitude        *float64        `json:"longitude"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// PrefersTenantType reports whether t is in the property's preferred set.
func (p *Property) PrefersTenantType(t TenantType) bool {
	for _, preferred := range p.PreferredTenants {
		if preferred == t {
			return true
		}
	}
	return false
}
