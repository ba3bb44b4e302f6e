// Package scoring rates how well a property fits a tenant profile.
package scoring

import (
	"roomify/server/config"
	"roomify/server/internal/models"
)

// Scorer computes compatibility from explicit weights. It holds no state
// besides the weights and is safe for concurrent use.
type Scorer struct {
	weights config.ScoringConfig
}

func NewScorer(weights config.ScoringConfig) *Scorer {
	return &Scorer{weights: weights}
}

// Compatibility returns the attribute score of property for tenant.
// A dealbreaker short-circuits every other rule.
func (s *Scorer) Compatibility(tenant *models.User, property *models.Property) float64 {
	w := s.weights

	// Dealbreakers only fire when the property explicitly forbids it
	if isTrue(tenant.HasPets) && isFalse(property.PetFriendly) {
		return w.Dealbreaker
	}
	if isTrue(tenant.IsSmoker) && isFalse(property.SmokerFriendly) {
		return w.Dealbreaker
	}

	score := w.Base

	if len(property.PreferredTenants) > 0 && tenant.TenantType != nil {
		if property.PrefersTenantType(*tenant.TenantType) {
			score += w.TenantTypeMatch
		} else {
			score += w.TenantTypeMiss
		}
	}

	desired := w.DefaultDesiredMin
	if tenant.MinRooms != nil {
		desired = *tenant.MinRooms
	}
	switch {
	case property.NumberOfRooms == desired:
		score += w.RoomsEnough + w.RoomsExact
	case property.NumberOfRooms > desired:
		score += w.RoomsEnough
	default:
		score += w.RoomsShort
	}

	if isTrue(tenant.WantsExtraBathroom) {
		if property.HasExtraBathroom {
			score += w.BathroomPresent
		} else {
			score += w.BathroomMissing
		}
	}

	return score
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

func isFalse(b *bool) bool {
	return b != nil && !*b
}
