package processor

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

// Snapshot is an export of the user and property directories
type Snapshot struct {
	Users      []UserRecord     `yaml:"users"`
	Properties []PropertyRecord `yaml:"properties"`
}

type UserRecord struct {
	ID                 string `yaml:"id"`
	Email              string `yaml:"email"`
	FirstName          string `yaml:"first_name"`
	LastName           string `yaml:"last_name"`
	Picture            string `yaml:"picture"`
	Role               string `yaml:"role"`
	IsSmoker           *bool  `yaml:"is_smoker"`
	HasPets            *bool  `yaml:"has_pets"`
	MinRooms           *int   `yaml:"min_rooms"`
	WantsExtraBathroom *bool  `yaml:"wants_extra_bathroom"`
	TenantType         string `yaml:"tenant_type"`
}

type PropertyRecord struct {
	ID               uint     `yaml:"id"`
	OwnerID          string   `yaml:"owner_id"`
	Title            string   `yaml:"title"`
	Price            string   `yaml:"price"`
	Surface          float64  `yaml:"surface"`
	Address          string   `yaml:"address"`
	NumberOfRooms    int      `yaml:"number_of_rooms"`
	HasExtraBathroom bool     `yaml:"has_extra_bathroom"`
	LayoutType       string   `yaml:"layout_type"`
	SmokerFriendly   *bool    `yaml:"smoker_friendly"`
	PetFriendly      *bool    `yaml:"pet_friendly"`
	PreferredTenants []string `yaml:"preferred_tenants"`
	Latitude         *float64 `yaml:"latitude"`
	Longitude        *float64 `yaml:"longitude"`
}

func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return ParseSnapshot(data)
}

// ParseSnapshot decodes a YAML snapshot. Unknown keys are rejected so a
// misspelled field does not silently import as empty.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		return nil, errs.Invalid("failed to parse snapshot: %v", err)
	}
	return &snap, nil
}

func (r UserRecord) toModel() (models.User, error) {
	if strings.TrimSpace(r.ID) == "" {
		return models.User{}, fmt.Errorf("id is required")
	}
	role, ok := models.ParseRole(r.Role)
	if !ok {
		return models.User{}, fmt.Errorf("unknown role: %q", r.Role)
	}

	user := models.User{
		ID:                 r.ID,
		Email:              r.Email,
		FirstName:          r.FirstName,
		LastName:           r.LastName,
		Picture:            r.Picture,
		Role:               role,
		IsSmoker:           r.IsSmoker,
		HasPets:            r.HasPets,
		MinRooms:           r.MinRooms,
		WantsExtraBathroom: r.WantsExtraBathroom,
	}
	if r.TenantType != "" {
		tenantType, err := models.ParseTenantType(r.TenantType)
		if err != nil {
			return models.User{}, err
		}
		user.TenantType = &tenantType
	}
	return user, nil
}

func (r PropertyRecord) toModel() (models.Property, error) {
	if r.ID == 0 {
		return models.Property{}, fmt.Errorf("id is required")
	}
	if r.OwnerID == "" {
		return models.Property{}, fmt.Errorf("owner_id is required")
	}
	if r.NumberOfRooms < 1 {
		return models.Property{}, fmt.Errorf("number_of_rooms must be at least 1")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil || !price.IsPositive() {
		return models.Property{}, fmt.Errorf("invalid price: %q", r.Price)
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return models.Property{}, fmt.Errorf("latitude and longitude must be set together")
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90 || *r.Longitude < -180 || *r.Longitude > 180) {
		return models.Property{}, fmt.Errorf("coordinates out of range")
	}

	property := models.Property{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		Title:            r.Title,
		Price:            price,
		Surface:          r.Surface,
		Address:          r.Address,
		NumberOfRooms:    r.NumberOfRooms,
		HasExtraBathroom: r.HasExtraBathroom,
		SmokerFriendly:   r.SmokerFriendly,
		PetFriendly:      r.PetFriendly,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
	}
	if r.LayoutType != "" {
		layout, err := models.ParseLayoutType(r.LayoutType)
		if err != nil {
			return models.Property{}, err
		}
		property.LayoutType = &layout
	}
	for _, raw := range r.PreferredTenants {
		tenantType, err := models.ParseTenantType(raw)
		if err != nil {
			return models.Property{}, err
		}
		property.PreferredTenants = append(property.PreferredTenants, tenantType)
	}
	return property, nil
}

// records validates every entry and returns the first failure with its
// position.
func (s *Snapshot) records() ([]models.User, []models.Property, error) {
	users := make([]models.User, 0, len(s.Users))
	for i, r := range s.Users {
		user, err := r.toModel()
		if err != nil {
			return nil, nil, errs.Invalid("users[%d]: %v", i, err)
		}
		users = append(users, user)
	}

	properties := make([]models.Property, 0, len(s.Properties))
	for i, r := range s.Properties {
		property, err := r.toModel()
		if err != nil {
			return nil, nil, errs.Invalid("properties[%d]: %v", i, err)
		}
		properties = append(properties, property)
	}
	return users, properties, nil
}
