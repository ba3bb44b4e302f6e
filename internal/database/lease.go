package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

func CreateLease(tx *gorm.DB, lease *models.LeaseAgreement) error {
	if err := tx.Create(lease).Error; err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}
	return nil
}

func GetLease(tx *gorm.DB, id string) (*models.LeaseAgreement, error) {
	var lease models.LeaseAgreement
	err := tx.Where("id = ?", id).First(&lease).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("lease %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query lease: %w", err)
	}
	return &lease, nil
}

func HasPendingLease(tx *gorm.DB, matchID string) (bool, error) {
	var count int64
	err := tx.Model(&models.LeaseAgreement{}).
		Where("match_id = ? AND status = ?", matchID, models.LeasePending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count pending leases: %w", err)
	}
	return count > 0, nil
}

// UpdateLeaseStatus moves a lease from one status to another. It fails with
// ErrStaleVersion if the lease is no longer in the from status.
func UpdateLeaseStatus(tx *gorm.DB, lease *models.LeaseAgreement, to models.LeaseStatus, now time.Time) error {
	result := tx.Model(&models.LeaseAgreement{}).
		Where("id = ? AND status = ?", lease.ID, lease.Status).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update lease: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("lease %s: %w", lease.ID, ErrStaleVersion)
	}
	lease.Status = to
	lease.UpdatedAt = now
	return nil
}

// ListPendingLeasesBefore returns PENDING leases created before cutoff,
// oldest first.
func ListPendingLeasesBefore(tx *gorm.DB, cutoff time.Time) ([]models.LeaseAgreement, error) {
	var leases []models.LeaseAgreement
	err := tx.Where("status = ? AND created_at < ?", models.LeasePending, cutoff).
		Order("created_at ASC").
		Find(&leases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending leases: %w", err)
	}
	return leases, nil
}

// ListPendingLeasesForMatch returns the PENDING leases of one match.
func ListPendingLeasesForMatch(tx *gorm.DB, matchID string) ([]models.LeaseAgreement, error) {
	var leases []models.LeaseAgreement
	err := tx.Where("match_id = ? AND status = ?", matchID, models.LeasePending).
		Order("created_at ASC").
		Find(&leases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending leases: %w", err)
	}
	return leases, nil
}

// ListPendingLeasesForProperty returns the PENDING leases of every match on
// the property except excludeMatchID.
func ListPendingLeasesForProperty(tx *gorm.DB, propertyID uint, excludeMatchID string) ([]models.LeaseAgreement, error) {
	var leases []models.LeaseAgreement
	err := tx.Joins("JOIN matches ON matches.id = lease_agreements.match_id").
		Where("matches.property_id = ? AND matches.id <> ? AND lease_agreements.status = ?",
			propertyID, excludeMatchID, models.LeasePending).
		Order("lease_agreements.created_at ASC").
		Find(&leases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending leases: %w", err)
	}
	return leases, nil
}

// IsPropertyRented reports whether any match on the property has an ACTIVE
// lease.
func IsPropertyRented(tx *gorm.DB, propertyID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.LeaseAgreement{}).
		Joins("JOIN matches ON matches.id = lease_agreements.match_id").
		Where("matches.property_id = ? AND lease_agreements.status = ?", propertyID, models.LeaseActive).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check rented property: %w", err)
	}
	return count > 0, nil
}

// RentedPropertyIDs returns the set of properties that have an ACTIVE lease.
func RentedPropertyIDs(tx *gorm.DB) (map[uint]bool, error) {
	var ids []uint
	err := tx.Model(&models.LeaseAgreement{}).
		Joins("JOIN matches ON matches.id = lease_agreements.match_id").
		Where("lease_agreements.status = ?", models.LeaseActive).
		Distinct().
		Pluck("matches.property_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rented properties: %w", err)
	}

	rented := make(map[uint]bool, len(ids))
	for _, id := range ids {
		rented[id] = true
	}
	return rented, nil
}
