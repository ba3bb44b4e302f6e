// Package workflow drives a confirmed match through viewing, offer and
// payment. Every transition is one transaction, and events are published
// only after it commits.
package workflow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"roomify/server/internal/database"
	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

// Publisher receives committed workflow events. Publish must not block for
// long since it runs on the request path.
type Publisher interface {
	Publish(event models.WorkflowEvent) error
}

type Service struct {
	db        *database.Database
	publisher Publisher
	logger    *logrus.Logger
	now       func() time.Time
}

func NewService(db *database.Database, publisher Publisher, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Service{
		db:        db,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used for timestamps and expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RentProposal carries the lease terms offered by the landlord.
type RentProposal struct {
	MatchID      string
	LandlordID   string
	MonthlyPrice decimal.Decimal
	Currency     models.Currency
	StartDate    time.Time
	EndDate      *time.Time
}

// ProposeViewing records a proposed viewing date. Either party may propose,
// and a pending proposal may be replaced with a new date.
func (s *Service) ProposeViewing(ctx context.Context, matchID, proposerID string, viewingDate time.Time) (*models.Match, error) {
	if viewingDate.IsZero() {
		return nil, errs.Invalid("viewing date is required")
	}

	var result models.Match
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		match, err := database.GetMatch(tx, matchID)
		if err != nil {
			return err
		}
		if !match.IsParty(proposerID) {
			return errs.Forbidden("user is not part of match %s", matchID)
		}
		if match.Status != models.StatusMatched && match.Status != models.StatusViewingRequested {
			return errs.Conflict("Cannot propose viewing", string(match.Status),
				string(models.StatusMatched), string(models.StatusViewingRequested))
		}

		match.Status = models.StatusViewingRequested
		match.ViewingDate = &viewingDate
		if err := database.UpdateMatch(tx, match, s.now()); err != nil {
			return err
		}
		result = *match
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(models.WorkflowEvent{
		Type:        models.EventViewingProposed,
		MatchID:     result.ID,
		ActorID:     proposerID,
		ViewingDate: result.ViewingDate,
	})
	return &result, nil
}

// AcceptViewing confirms the stored viewing date. The accepter is not
// required to differ from the proposer.
func (s *Service) AcceptViewing(ctx context.Context, matchID, accepterID string) (*models.Match, error) {
	var result models.Match
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		match, err := database.GetMatch(tx, matchID)
		if err != nil {
			return err
		}
		if !match.IsParty(accepterID) {
			return errs.Forbidden("user is not part of match %s", matchID)
		}
		if match.Status != models.StatusViewingRequested {
			return errs.Conflict("Cannot accept viewing", string(match.Status), string(models.StatusViewingRequested))
		}
		if match.ViewingDate == nil {
			return errs.Conflict("No viewing date has been proposed", string(match.Status))
		}

		match.Status = models.StatusViewingScheduled
		if err := database.UpdateMatch(tx, match, s.now()); err != nil {
			return err
		}
		result = *match
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(models.WorkflowEvent{
		Type:        models.EventViewingConfirmed,
		MatchID:     result.ID,
		ActorID:     accepterID,
		ViewingDate: result.ViewingDate,
	})
	return &result, nil
}

// SendRentProposal creates a PENDING lease with the offered terms and moves
// the match to OFFER_PENDING.
func (s *Service) SendRentProposal(ctx context.Context, p RentProposal) (*models.LeaseAgreement, error) {
	if !p.MonthlyPrice.IsPositive() {
		return nil, errs.Invalid("monthly price must be positive")
	}
	currency, err := models.ParseCurrency(string(p.Currency))
	if err != nil {
		return nil, errs.Invalid("%v", err)
	}
	if p.StartDate.IsZero() {
		return nil, errs.Invalid("start date is required")
	}
	if p.EndDate != nil && !p.EndDate.After(p.StartDate) {
		return nil, errs.Invalid("end date must be after start date")
	}

	var lease models.LeaseAgreement
	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		match, err := database.GetMatch(tx, p.MatchID)
		if err != nil {
			return err
		}
		if match.LandlordID != p.LandlordID {
			return errs.Forbidden("only the landlord can send a rent proposal")
		}
		if match.Status != models.StatusViewingScheduled {
			return errs.Conflict("Cannot send rent proposal", string(match.Status), string(models.StatusViewingScheduled))
		}

		rented, err := database.IsPropertyRented(tx, match.PropertyID)
		if err != nil {
			return err
		}
		if rented {
			return errs.Conflict("Property is already rented", string(match.Status))
		}

		pending, err := database.HasPendingLease(tx, match.ID)
		if err != nil {
			return err
		}
		if pending {
			return errs.Conflict("A rent proposal is already pending for this match", string(match.Status))
		}

		lease = models.LeaseAgreement{
			MatchID:      match.ID,
			MonthlyPrice: p.MonthlyPrice,
			Currency:     currency,
			StartDate:    p.StartDate,
			EndDate:      p.EndDate,
			Status:       models.LeasePending,
			CreatedAt:    s.now(),
		}
		if err := database.CreateLease(tx, &lease); err != nil {
			return err
		}

		match.Status = models.StatusOfferPending
		return database.UpdateMatch(tx, match, s.now())
	})
	if err != nil {
		return nil, err
	}

	price := lease.MonthlyPrice
	start := lease.StartDate
	s.publish(models.WorkflowEvent{
		Type:         models.EventRentProposed,
		MatchID:      lease.MatchID,
		ActorID:      p.LandlordID,
		LeaseID:      lease.ID,
		MonthlyPrice: &price,
		Currency:     lease.Currency,
		StartDate:    &start,
	})
	return &lease, nil
}

// DeclineOffer lets the tenant reject a pending lease. The match returns to
// VIEWING_SCHEDULED so the landlord can send new terms.
func (s *Service) DeclineOffer(ctx context.Context, leaseID, tenantID string) (*models.LeaseAgreement, error) {
	var lease *models.LeaseAgreement
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		lease, err = database.GetLease(tx, leaseID)
		if err != nil {
			return err
		}
		match, err := database.GetMatch(tx, lease.MatchID)
		if err != nil {
			return err
		}
		if match.TenantID != tenantID {
			return errs.Forbidden("only the tenant can decline this offer")
		}
		return s.closeOffer(tx, lease, match, models.LeaseRejected)
	})
	if err != nil {
		return nil, err
	}

	s.publish(models.WorkflowEvent{
		Type:    models.EventOfferDeclined,
		MatchID: lease.MatchID,
		ActorID: tenantID,
		LeaseID: lease.ID,
	})
	return lease, nil
}

// ExpireStaleOffers expires every PENDING lease created before cutoff and
// returns how many were expired. A failure on one lease is logged and does
// not stop the others.
func (s *Service) ExpireStaleOffers(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := database.ListPendingLeasesBefore(s.db.WithContext(ctx), cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range stale {
		var lease *models.LeaseAgreement
		err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
			var err error
			lease, err = database.GetLease(tx, candidate.ID)
			if err != nil {
				return err
			}
			if lease.Status != models.LeasePending {
				lease = nil
				return nil
			}
			match, err := database.GetMatch(tx, lease.MatchID)
			if err != nil {
				return err
			}
			return s.closeOffer(tx, lease, match, models.LeaseExpired)
		})
		if err != nil {
			s.logger.WithError(err).WithField("lease_id", candidate.ID).Error("Failed to expire offer")
			continue
		}
		if lease == nil {
			continue
		}

		expired++
		s.publish(models.WorkflowEvent{
			Type:    models.EventOfferExpired,
			MatchID: lease.MatchID,
			LeaseID: lease.ID,
		})
	}

	if expired > 0 {
		s.logger.WithFields(logrus.Fields{
			"expired": expired,
			"cutoff":  cutoff,
		}).Info("Expired stale offers")
	}
	return expired, nil
}

// closeOffer ends a PENDING lease and reopens the match for a new proposal.
func (s *Service) closeOffer(tx *gorm.DB, lease *models.LeaseAgreement, match *models.Match, to models.LeaseStatus) error {
	if lease.Status != models.LeasePending {
		return errs.Conflict("The offer is no longer pending", string(lease.Status), string(models.LeasePending))
	}
	if err := database.UpdateLeaseStatus(tx, lease, to, s.now()); err != nil {
		return err
	}
	if match.Status != models.StatusOfferPending {
		return nil
	}
	match.Status = models.StatusViewingScheduled
	return database.UpdateMatch(tx, match, s.now())
}

func (s *Service) publish(event models.WorkflowEvent) {
	if s.publisher == nil {
		return
	}
	event.OccurredAt = s.now()
	if err := s.publisher.Publish(event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event":    event.Type,
			"match_id": event.MatchID,
		}).Error("Failed to publish workflow event")
	}
}
