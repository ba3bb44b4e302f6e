package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

// FindMatchByPair returns the match for a tenant and property, or nil if
// the pair has never interacted.
func FindMatchByPair(tx *gorm.DB, tenantID string, propertyID uint) (*models.Match, error) {
	var match models.Match
	err := tx.Where("tenant_id = ? AND property_id = ?", tenantID, propertyID).First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query match: %w", err)
	}
	return &match, nil
}

func GetMatch(tx *gorm.DB, id string) (*models.Match, error) {
	var match models.Match
	err := tx.Where("id = ?", id).First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("match %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query match: %w", err)
	}
	return &match, nil
}

// CreateMatch inserts a new match. A concurrent insert for the same pair
// surfaces as gorm.ErrDuplicatedKey.
func CreateMatch(tx *gorm.DB, match *models.Match) error {
	if err := tx.Create(match).Error; err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

// UpdateMatch writes status, score and viewing date if the stored version
// still equals match.Version, then bumps the version.
func UpdateMatch(tx *gorm.DB, match *models.Match, now time.Time) error {
	result := tx.Model(&models.Match{}).
		Where("id = ? AND version = ?", match.ID, match.Version).
		Updates(map[string]interface{}{
			"status":       match.Status,
			"score":        match.Score,
			"viewing_date": match.ViewingDate,
			"version":      match.Version + 1,
			"updated_at":   now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update match: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("match %s: %w", match.ID, ErrStaleVersion)
	}
	match.Version++
	match.UpdatedAt = now
	return nil
}

// TouchMatch refreshes updated_at without taking part in version checks.
func TouchMatch(tx *gorm.DB, id string, now time.Time) error {
	err := tx.Model(&models.Match{}).Where("id = ?", id).UpdateColumn("updated_at", now).Error
	if err != nil {
		return fmt.Errorf("failed to touch match: %w", err)
	}
	return nil
}

func ListMatchesForTenant(tx *gorm.DB, tenantID string) ([]models.Match, error) {
	var matches []models.Match
	if err := tx.Where("tenant_id = ?", tenantID).Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenant matches: %w", err)
	}
	return matches, nil
}

// ListMatchesForLandlord returns the landlord's matches, limited to one
// property when propertyID is not zero.
func ListMatchesForLandlord(tx *gorm.DB, landlordID string, propertyID uint) ([]models.Match, error) {
	query := tx.Where("landlord_id = ?", landlordID)
	if propertyID != 0 {
		query = query.Where("property_id = ?", propertyID)
	}

	var matches []models.Match
	if err := query.Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to list landlord matches: %w", err)
	}
	return matches, nil
}

// ListMatchesByStatus returns the landlord's matches in the given status,
// most recently updated first.
func ListMatchesByStatus(tx *gorm.DB, landlordID string, status models.MatchStatus) ([]models.Match, error) {
	var matches []models.Match
	err := tx.Where("landlord_id = ? AND status = ?", landlordID, status).
		Order("updated_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matches by status: %w", err)
	}
	return matches, nil
}
