package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		current models.MatchStatus
		side    models.Role
		liked   bool
		want    models.MatchStatus
	}{
		{"", models.RoleTenant, true, models.StatusTenantLiked},
		{"", models.RoleLandlord, true, models.StatusLandlordLiked},
		{"", models.RoleTenant, false, models.StatusTenantDeclined},
		{"", models.RoleLandlord, false, models.StatusLandlordDeclined},
		{models.StatusLandlordLiked, models.RoleTenant, true, models.StatusMatched},
		{models.StatusTenantLiked, models.RoleLandlord, true, models.StatusMatched},
		{models.StatusTenantLiked, models.RoleTenant, true, models.StatusTenantLiked},
		{models.StatusTenantDeclined, models.RoleTenant, true, models.StatusTenantLiked},
		{models.StatusLandlordDeclined, models.RoleTenant, true, models.StatusTenantLiked},
		{models.StatusTenantDeclined, models.RoleLandlord, true, models.StatusLandlordLiked},
		{models.StatusMatched, models.RoleTenant, true, models.StatusMatched},
		{models.StatusOfferPending, models.RoleLandlord, true, models.StatusOfferPending},
		{models.StatusMatched, models.RoleTenant, false, models.StatusTenantDeclined},
		{models.StatusViewingScheduled, models.RoleLandlord, false, models.StatusLandlordDeclined},
		{models.StatusLandlordLiked, models.RoleLandlord, false, models.StatusLandlordDeclined},
	}

	for _, tt := range tests {
		got, err := NextStatus(tt.current, tt.side, tt.liked)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "from %q, %s liked=%v", tt.current, tt.side, tt.liked)
	}
}

func TestNextStatus_RentedIsFinal(t *testing.T) {
	for _, side := range []models.Role{models.RoleTenant, models.RoleLandlord} {
		for _, liked := range []bool{true, false} {
			_, err := NextStatus(models.StatusRented, side, liked)
			assert.ErrorIs(t, err, errs.ErrConflict)
		}
	}
}

func TestNextStatus_UnknownRole(t *testing.T) {
	_, err := NextStatus("", models.RoleAdmin, true)
	assert.ErrorIs(t, err, errs.ErrInvalidRequest)
}
