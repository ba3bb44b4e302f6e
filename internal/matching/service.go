// Package matching records swipes and passes and drives the reciprocal
// interest state of each (tenant, property) pair.
package matching

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"roomify/server/config"
	"roomify/server/internal/database"
	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

// Interaction is one like or pass. Role is the acting side. For tenant
// actions ActorID and TenantID are the same user.
type Interaction struct {
	ActorID    string
	Role       models.Role
	TenantID   string
	PropertyID uint
	Liked      bool
}

type Service struct {
	db      *database.Database
	weights config.ScoringConfig
	logger  *logrus.Logger
}

func NewService(db *database.Database, weights config.ScoringConfig, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Service{db: db, weights: weights, logger: logger}
}

// RecordInteraction applies the score delta and the status transition for
// one interaction in a single transaction, creating the match on first
// contact.
func (s *Service) RecordInteraction(ctx context.Context, in Interaction) (*models.Match, error) {
	if in.Role != models.RoleTenant && in.Role != models.RoleLandlord {
		return nil, errs.Invalid("unsupported role %q", in.Role)
	}
	if in.Role == models.RoleTenant && in.ActorID != in.TenantID {
		return nil, errs.Forbidden("tenants can only act for themselves")
	}

	var result models.Match
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		property, err := database.GetProperty(tx, in.PropertyID)
		if err != nil {
			return err
		}
		if in.Role == models.RoleLandlord && property.OwnerID != in.ActorID {
			return errs.Forbidden("property %d is not yours", in.PropertyID)
		}

		tenant, err := database.GetUser(tx, in.TenantID)
		if err != nil {
			return err
		}
		if tenant.ID == property.OwnerID {
			return errs.Invalid("self-interaction is not allowed")
		}

		match, err := database.FindMatchByPair(tx, tenant.ID, property.ID)
		if err != nil {
			return err
		}

		var current models.MatchStatus
		if match != nil {
			current = match.Status
		}
		next, err := NextStatus(current, in.Role, in.Liked)
		if err != nil {
			return err
		}

		delta := s.weights.PassScore
		if in.Liked {
			delta = s.weights.LikeScore
		}

		if match == nil {
			match = &models.Match{
				TenantID:   tenant.ID,
				PropertyID: property.ID,
				LandlordID: property.OwnerID,
				Status:     next,
				Score:      delta,
			}
			if err := database.CreateMatch(tx, match); err != nil {
				return err
			}
		} else {
			match.Status = next
			match.Score += delta
			if err := database.UpdateMatch(tx, match, tx.NowFunc()); err != nil {
				return err
			}
			if !in.Liked {
				if err := cancelPendingLeases(tx, match.ID); err != nil {
					return err
				}
			}
		}

		result = *match
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"match_id":    result.ID,
		"tenant_id":   result.TenantID,
		"property_id": result.PropertyID,
		"role":        in.Role,
		"liked":       in.Liked,
		"status":      result.Status,
		"score":       result.Score,
	})
	if result.Status == models.StatusMatched {
		entry.Info("Match confirmed")
	} else {
		entry.Debug("Interaction recorded")
	}

	return &result, nil
}

func (s *Service) SwipeByTenant(ctx context.Context, tenantID string, propertyID uint) (*models.Match, error) {
	return s.RecordInteraction(ctx, Interaction{ActorID: tenantID, Role: models.RoleTenant, TenantID: tenantID, PropertyID: propertyID, Liked: true})
}

func (s *Service) PassByTenant(ctx context.Context, tenantID string, propertyID uint) (*models.Match, error) {
	return s.RecordInteraction(ctx, Interaction{ActorID: tenantID, Role: models.RoleTenant, TenantID: tenantID, PropertyID: propertyID, Liked: false})
}

func (s *Service) InviteTenant(ctx context.Context, landlordID, tenantID string, propertyID uint) (*models.Match, error) {
	return s.RecordInteraction(ctx, Interaction{ActorID: landlordID, Role: models.RoleLandlord, TenantID: tenantID, PropertyID: propertyID, Liked: true})
}

func (s *Service) PassByLandlord(ctx context.Context, landlordID, tenantID string, propertyID uint) (*models.Match, error) {
	return s.RecordInteraction(ctx, Interaction{ActorID: landlordID, Role: models.RoleLandlord, TenantID: tenantID, PropertyID: propertyID, Liked: false})
}

// cancelPendingLeases withdraws the open rent proposal of a match that has
// just been declined, so it can no longer be paid.
func cancelPendingLeases(tx *gorm.DB, matchID string) error {
	leases, err := database.ListPendingLeasesForMatch(tx, matchID)
	if err != nil {
		return err
	}
	for i := range leases {
		if err := database.UpdateLeaseStatus(tx, &leases[i], models.LeaseCancelled, tx.NowFunc()); err != nil {
			return err
		}
	}
	return nil
}

// Swipe dispatches on the viewer's role. counterpartyID is the tenant for
// landlord swipes and is ignored for tenant swipes.
func (s *Service) Swipe(ctx context.Context, viewerID string, role models.Role, counterpartyID string, propertyID uint, liked bool) (*models.Match, error) {
	in := Interaction{ActorID: viewerID, Role: role, TenantID: viewerID, PropertyID: propertyID, Liked: liked}
	if role == models.RoleLandlord {
		in.TenantID = counterpartyID
	}
	return s.RecordInteraction(ctx, in)
}

// PendingLikesForLandlord lists tenants who liked one of the landlord's
// properties and are waiting for an answer.
func (s *Service) PendingLikesForLandlord(ctx context.Context, landlordID string) ([]models.Match, error) {
	return database.ListMatchesByStatus(s.db.WithContext(ctx), landlordID, models.StatusTenantLiked)
}

func (s *Service) ConfirmedMatchesForLandlord(ctx context.Context, landlordID string) ([]models.Match, error) {
	return database.ListMatchesByStatus(s.db.WithContext(ctx), landlordID, models.StatusMatched)
}
