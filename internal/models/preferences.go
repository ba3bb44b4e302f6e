package models

import (
	"time"

	"github.com/shopspring/decimal"

	"roomify/server/internal/geo"
)

// Preferences stores the optional search filters of a tenant
type Preferences struct {
	ID              uint                `gorm:"primaryKey" json:"-"`
	UserID          string              `gorm:"uniqueIndex;not null" json:"user_id"`
	MinPrice        decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"min_price"`
	MaxPrice        decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"max_price"`
	MinSurface      *float64            `json:"min_surface"`
	MaxSurface      *float64            `json:"max_surface"`
	MinRooms        *int                `json:"min_rooms"`
	MaxRooms        *int                `json:"max_rooms"`
	LayoutTypes     []LayoutType        `gorm:"serializer:json;type:text" json:"layout_types"`
	SmokerFriendly  *bool               `json:"smoker_friendly"`
	PetFriendly     *bool               `json:"pet_friendly"`
	SearchLatitude  *float64            `json:"search_latitude"`
	SearchLongitude *float64            `json:"search_longitude"`
	SearchRadiusKm  *float64            `json:"search_radius_km"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// AllowsProperty checks if a property matches the filter criteria
func (f *Preferences) AllowsProperty(property *Property) bool {
	if f == nil {
		return true // No preferences means allow all
	}

	// Check price range
	if f.MinPrice.Valid && property.Price.LessThan(f.MinPrice.Decimal) {
		return false
	}
	if f.MaxPrice.Valid && property.Price.GreaterThan(f.MaxPrice.Decimal) {
		return false
	}

	// Check surface range
	if f.MinSurface != nil && property.Surface < *f.MinSurface {
		return false
	}
	if f.MaxSurface != nil && property.Surface > *f.MaxSurface {
		return false
	}

	// Check number of rooms
	if f.MinRooms != nil && property.NumberOfRooms < *f.MinRooms {
		return false
	}
	if f.MaxRooms != nil && property.NumberOfRooms > *f.MaxRooms {
		return false
	}

	// Check layout, only when the property declares one
	if len(f.LayoutTypes) > 0 && property.LayoutType != nil {
		allowed := false
		for _, layout := range f.LayoutTypes {
			if layout == *property.LayoutType {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	// A wanted flag requires the property to state it explicitly
	if isTrue(f.PetFriendly) && !isTrue(property.PetFriendly) {
		return false
	}
	if isTrue(f.SmokerFriendly) && !isTrue(property.SmokerFriendly) {
		return false
	}

	// Check search radius
	if f.SearchLatitude != nil && f.SearchLongitude != nil && f.SearchRadiusKm != nil {
		if property.Latitude == nil || property.Longitude == nil {
			return false // Filter requires a location but property has none
		}
		if !geo.WithinRadius(*f.SearchLatitude, *f.SearchLongitude, *f.SearchRadiusKm,
			*property.Latitude, *property.Longitude) {
			return false
		}
	}

	return true
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
