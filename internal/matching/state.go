package matching

import (
	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

// NextStatus returns the status a match moves to after one interaction.
// current is empty when the pair has no record yet. Likes on a match that
// is already confirmed keep its status, and a rented match accepts no
// interaction at all.
func NextStatus(current models.MatchStatus, side models.Role, liked bool) (models.MatchStatus, error) {
	if current == models.StatusRented {
		return "", errs.Conflict("Cannot record an interaction on a rented match", string(current))
	}

	switch side {
	case models.RoleTenant:
		if !liked {
			return models.StatusTenantDeclined, nil
		}
		switch {
		case current == models.StatusLandlordLiked:
			return models.StatusMatched, nil
		case current.Confirmed():
			return current, nil
		}
		return models.StatusTenantLiked, nil

	case models.RoleLandlord:
		if !liked {
			return models.StatusLandlordDeclined, nil
		}
		switch {
		case current == models.StatusTenantLiked:
			return models.StatusMatched, nil
		case current.Confirmed():
			return current, nil
		}
		return models.StatusLandlordLiked, nil
	}

	return "", errs.Invalid("unsupported role %q", side)
}
