package workflow

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"roomify/server/internal/database"
	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

// Activation is the state after a payment confirmation. Replayed is set
// when the lease was already active and nothing changed.
type Activation struct {
	Lease    models.LeaseAgreement `json:"lease"`
	Match    models.Match          `json:"match"`
	Replayed bool                  `json:"replayed"`

	// Competing offers on the same property closed by this activation
	Cancelled []models.LeaseAgreement `json:"cancelled,omitempty"`
}

// ConfirmPayment activates a lease once the payment provider has captured
// the charge, and marks its match RENTED. Pending offers other tenants hold
// on the same property are cancelled. Redelivered confirmations are a
// no-op.
func (s *Service) ConfirmPayment(ctx context.Context, leaseID string) (*Activation, error) {
	var result Activation
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		result = Activation{}
		lease, err := database.GetLease(tx, leaseID)
		if err != nil {
			return err
		}
		match, err := database.GetMatch(tx, lease.MatchID)
		if err != nil {
			return err
		}

		switch {
		case lease.Status == models.LeaseActive:
			result.Replayed = true
		case lease.Status.Terminal():
			return errs.Conflict("Cannot activate lease", string(lease.Status), string(models.LeasePending))
		default:
			if match.Status != models.StatusOfferPending {
				return errs.Conflict("Cannot activate lease", string(match.Status), string(models.StatusOfferPending))
			}
			rented, err := database.IsPropertyRented(tx, match.PropertyID)
			if err != nil {
				return err
			}
			if rented {
				return errs.Conflict("Property is already rented", string(match.Status))
			}
			if err := database.UpdateLeaseStatus(tx, lease, models.LeaseActive, s.now()); err != nil {
				return err
			}
			if result.Cancelled, err = s.cancelCompetingOffers(tx, match); err != nil {
				return err
			}
		}

		if match.Status != models.StatusRented {
			match.Status = models.StatusRented
			if err := database.UpdateMatch(tx, match, s.now()); err != nil {
				return err
			}
		}

		result.Lease = *lease
		result.Match = *match
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"lease_id": result.Lease.ID,
		"match_id": result.Match.ID,
	})
	if result.Replayed {
		entry.Info("Payment confirmation replayed, lease already active")
		return &result, nil
	}
	entry.WithField("cancelled", len(result.Cancelled)).Info("Lease activated")

	price := result.Lease.MonthlyPrice
	s.publish(models.WorkflowEvent{
		Type:         models.EventPaymentSucceeded,
		MatchID:      result.Match.ID,
		LeaseID:      result.Lease.ID,
		MonthlyPrice: &price,
		Currency:     result.Lease.Currency,
	})
	for _, cancelled := range result.Cancelled {
		s.publish(models.WorkflowEvent{
			Type:    models.EventOfferCancelled,
			MatchID: cancelled.MatchID,
			LeaseID: cancelled.ID,
		})
	}
	return &result, nil
}

// cancelCompetingOffers closes every other PENDING lease on the rented
// property and returns their matches to VIEWING_SCHEDULED.
func (s *Service) cancelCompetingOffers(tx *gorm.DB, rented *models.Match) ([]models.LeaseAgreement, error) {
	competing, err := database.ListPendingLeasesForProperty(tx, rented.PropertyID, rented.ID)
	if err != nil {
		return nil, err
	}
	for i := range competing {
		match, err := database.GetMatch(tx, competing[i].MatchID)
		if err != nil {
			return nil, err
		}
		if err := s.closeOffer(tx, &competing[i], match, models.LeaseCancelled); err != nil {
			return nil, err
		}
	}
	return competing, nil
}
