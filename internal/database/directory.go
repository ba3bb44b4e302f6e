package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

// Users, properties and preferences are owned by the directory services.
// The engine reads them, the Save helpers exist for seeding and tests.

func GetUser(tx *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := tx.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("user %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func GetProperty(tx *gorm.DB, id uint) (*models.Property, error) {
	var property models.Property
	err := tx.Where("id = ?", id).First(&property).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("property %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	return &property, nil
}

func ListProperties(tx *gorm.DB) ([]models.Property, error) {
	var properties []models.Property
	if err := tx.Order("id ASC").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

func ListPropertiesByOwner(tx *gorm.DB, ownerID string) ([]models.Property, error) {
	var properties []models.Property
	if err := tx.Where("owner_id = ?", ownerID).Order("id ASC").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list owner properties: %w", err)
	}
	return properties, nil
}

func ListUsersByRole(tx *gorm.DB, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := tx.Where("role = ?", role).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func SaveUser(tx *gorm.DB, user *models.User) error {
	if err := tx.Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func SaveProperty(tx *gorm.DB, property *models.Property) error {
	if err := tx.Save(property).Error; err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}
	return nil
}

// GetPreferences returns nil when the user has not set any filter.
func GetPreferences(tx *gorm.DB, userID string) (*models.Preferences, error) {
	var prefs models.Preferences
	err := tx.Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	return &prefs, nil
}

// SavePreferences replaces the user's filters, creating the row on first use.
func SavePreferences(tx *gorm.DB, prefs *models.Preferences) error {
	existing, err := GetPreferences(tx, prefs.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		prefs.ID = existing.ID
		prefs.CreatedAt = existing.CreatedAt
	}
	if err := tx.Save(prefs).Error; err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
