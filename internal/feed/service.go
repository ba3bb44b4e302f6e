package feed

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"roomify/server/internal/database"
	"roomify/server/internal/errs"
	"roomify/server/internal/models"
	"roomify/server/internal/scoring"
)

type Service struct {
	db     *database.Database
	scorer *scoring.Scorer
	ranker *Ranker
	logger *logrus.Logger
}

func NewService(db *database.Database, scorer *scoring.Scorer, ranker *Ranker, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Service{db: db, scorer: scorer, ranker: ranker, logger: logger}
}

// TenantFeed ranks every visible property for a tenant.
func (s *Service) TenantFeed(ctx context.Context, tenantID string) ([]Candidate, error) {
	var candidates []Candidate
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		tenant, err := database.GetUser(tx, tenantID)
		if err != nil {
			return err
		}
		prefs, err := database.GetPreferences(tx, tenantID)
		if err != nil {
			return err
		}
		matches, err := database.ListMatchesForTenant(tx, tenantID)
		if err != nil {
			return err
		}
		rented, err := database.RentedPropertyIDs(tx)
		if err != nil {
			return err
		}
		properties, err := database.ListProperties(tx)
		if err != nil {
			return err
		}

		byProperty := make(map[uint]models.Match, len(matches))
		for _, m := range matches {
			byProperty[m.PropertyID] = m
		}

		candidates = make([]Candidate, 0, len(properties))
		for i := range properties {
			p := &properties[i]
			if p.OwnerID == tenantID || rented[p.ID] {
				continue
			}

			var history float64
			if m, ok := byProperty[p.ID]; ok {
				if hidden(m.Status, models.StatusTenantLiked) {
					continue
				}
				history = m.Score
			}

			if !prefs.AllowsProperty(p) {
				continue
			}

			candidates = append(candidates, Candidate{
				PropertyID:    p.ID,
				TenantID:      tenantID,
				Compatibility: s.scorer.Compatibility(tenant, p),
				History:       history,
				Property:      p,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ranked := s.ranker.Rank(candidates)
	s.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"candidates": len(candidates),
		"returned":   len(ranked),
	}).Debug("Built tenant feed")
	return ranked, nil
}

type pairKey struct {
	tenantID   string
	propertyID uint
}

// LandlordFeed ranks tenants against the landlord's properties. A zero
// propertyID covers every property the landlord owns.
func (s *Service) LandlordFeed(ctx context.Context, landlordID string, propertyID uint) ([]Candidate, error) {
	var candidates []Candidate
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		var properties []models.Property
		if propertyID != 0 {
			p, err := database.GetProperty(tx, propertyID)
			if err != nil {
				return err
			}
			if p.OwnerID != landlordID {
				return errs.Forbidden("property %d is not yours", propertyID)
			}
			properties = []models.Property{*p}
		} else {
			var err error
			properties, err = database.ListPropertiesByOwner(tx, landlordID)
			if err != nil {
				return err
			}
		}

		rented, err := database.RentedPropertyIDs(tx)
		if err != nil {
			return err
		}
		tenants, err := database.ListUsersByRole(tx, models.RoleTenant)
		if err != nil {
			return err
		}
		matches, err := database.ListMatchesForLandlord(tx, landlordID, propertyID)
		if err != nil {
			return err
		}

		byPair := make(map[pairKey]models.Match, len(matches))
		for _, m := range matches {
			byPair[pairKey{m.TenantID, m.PropertyID}] = m
		}

		for i := range properties {
			p := &properties[i]
			if rented[p.ID] {
				continue
			}
			for j := range tenants {
				t := &tenants[j]
				if t.ID == landlordID {
					continue
				}

				var history float64
				if m, ok := byPair[pairKey{t.ID, p.ID}]; ok {
					if hidden(m.Status, models.StatusLandlordLiked) {
						continue
					}
					history = m.Score
				}

				candidates = append(candidates, Candidate{
					PropertyID:    p.ID,
					TenantID:      t.ID,
					Compatibility: s.scorer.Compatibility(t, p),
					History:       history,
					Tenant:        t,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ranked := s.ranker.Rank(candidates)
	s.logger.WithFields(logrus.Fields{
		"landlord_id": landlordID,
		"property_id": propertyID,
		"candidates":  len(candidates),
		"returned":    len(ranked),
	}).Debug("Built landlord feed")
	return ranked, nil
}

// hidden reports whether a pair with this status must not be served again
// to the side whose own like is likedByViewer.
func hidden(status, likedByViewer models.MatchStatus) bool {
	return status.Confirmed() || status == likedByViewer
}
