package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleTenant   Role = "TENANT"
	RoleLandlord Role = "LANDLORD"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole normalizes a role claim. "USER" is the legacy name for a tenant.
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TENANT", "USER":
		return RoleTenant, true
	case "LANDLORD":
		return RoleLandlord, true
	case "ADMIN":
		return RoleAdmin, true
	}
	return "", false
}

// User is the read-only profile snapshot owned by the user directory. The
// ID is the identity provider subject.
type User struct {
	ID                 string      `gorm:"primaryKey" json:"id"`
	Email              string      `json:"email"`
	FirstName          string      `json:"first_name"`
	LastName           string      `json:"last_name"`
	Picture            string      `json:"picture"`
	Role               Role        `gorm:"index" json:"role"`
	IsSmoker           *bool       `json:"is_smoker"`
	HasPets            *bool       `json:"has_pets"`
	MinRooms           *int        `json:"min_rooms"`
	WantsExtraBathroom *bool       `json:"wants_extra_bathroom"`
	TenantType         *TenantType `json:"tenant_type"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}
