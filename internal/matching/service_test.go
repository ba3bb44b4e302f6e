package matching

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomify/server/config"
	"roomify/server/internal/database"
	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

type fixture struct {
	db       *database.Database
	svc      *Service
	tenant   *models.User
	landlord *models.User
	property *models.Property
}

func setup(t *testing.T) *fixture {
	db, err := database.NewTestDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		svc:      NewService(db, config.Default().Scoring, nil),
		tenant:   &models.User{ID: "tenant-1", Role: models.RoleTenant},
		landlord: &models.User{ID: "landlord-1", Role: models.RoleLandlord},
	}
	f.property = &models.Property{OwnerID: f.landlord.ID, Title: "Flat", Price: decimal.NewFromInt(500), NumberOfRooms: 2}

	require.NoError(t, database.SaveUser(db.DB(), f.tenant))
	require.NoError(t, database.SaveUser(db.DB(), f.landlord))
	require.NoError(t, database.SaveProperty(db.DB(), f.property))
	return f
}

func TestMutualLikeMatches(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	m, err := f.svc.SwipeByTenant(ctx, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTenantLiked, m.Status)
	assert.Equal(t, 10.0, m.Score)
	assert.Equal(t, f.landlord.ID, m.LandlordID)

	m2, err := f.svc.InviteTenant(ctx, f.landlord.ID, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, m2.ID)
	assert.Equal(t, models.StatusMatched, m2.Status)
	assert.Equal(t, 20.0, m2.Score)

	stored, err := database.GetMatch(f.db.DB(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMatched, stored.Status)
	assert.Equal(t, 20.0, stored.Score)
}

func TestLandlordFirstThenTenant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	m, err := f.svc.InviteTenant(ctx, f.landlord.ID, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLandlordLiked, m.Status)

	m, err = f.svc.SwipeByTenant(ctx, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMatched, m.Status)
}

func TestPassesDeclineAndLowerScore(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SwipeByTenant(ctx, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	_, err = f.svc.InviteTenant(ctx, f.landlord.ID, f.tenant.ID, f.property.ID)
	require.NoError(t, err)

	// Even a confirmed match is declined by a pass
	m, err := f.svc.PassByTenant(ctx, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTenantDeclined, m.Status)
	assert.Equal(t, 0.0, m.Score)

	prev := m.Score
	for i := 0; i < 3; i++ {
		m, err = f.svc.PassByLandlord(ctx, f.landlord.ID, f.tenant.ID, f.property.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusLandlordDeclined, m.Status)
		assert.Less(t, m.Score, prev)
		prev = m.Score
	}
	assert.Equal(t, -60.0, m.Score)
}

func TestRepeatedLikeAccumulates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SwipeByTenant(ctx, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	m, err := f.svc.SwipeByTenant(ctx, f.tenant.ID, f.property.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusTenantLiked, m.Status)
	assert.Equal(t, 20.0, m.Score)
}

func TestInteractionErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SwipeByTenant(ctx, "ghost", f.property.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.SwipeByTenant(ctx, f.tenant.ID, 404)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.SwipeByTenant(ctx, f.landlord.ID, f.property.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidRequest)

	intruder := &models.User{ID: "landlord-2", Role: models.RoleLandlord}
	require.NoError(t, database.SaveUser(f.db.DB(), intruder))
	_, err = f.svc.InviteTenant(ctx, intruder.ID, f.tenant.ID, f.property.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	// Nothing was written by the failed calls
	match, err := database.FindMatchByPair(f.db.DB(), f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestRentedMatchRejectsInteractions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	m, err := f.svc.SwipeByTenant(ctx, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	m.Status = models.StatusRented
	require.NoError(t, database.UpdateMatch(f.db.DB(), m, m.UpdatedAt))

	_, err = f.svc.PassByTenant(ctx, f.tenant.ID, f.property.ID)
	assert.ErrorIs(t, err, errs.ErrConflict)

	stored, err := database.GetMatch(f.db.DB(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRented, stored.Status)
	assert.Equal(t, 10.0, stored.Score)
}

func TestPassCancelsPendingLease(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SwipeByTenant(ctx, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	m, err := f.svc.InviteTenant(ctx, f.landlord.ID, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	m.Status = models.StatusOfferPending
	require.NoError(t, database.UpdateMatch(f.db.DB(), m, m.UpdatedAt))

	lease := &models.LeaseAgreement{
		MatchID:      m.ID,
		MonthlyPrice: decimal.NewFromInt(500),
		Currency:     models.CurrencyEUR,
		StartDate:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Status:       models.LeasePending,
	}
	require.NoError(t, database.CreateLease(f.db.DB(), lease))

	declined, err := f.svc.PassByTenant(ctx, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTenantDeclined, declined.Status)

	stored, err := database.GetLease(f.db.DB(), lease.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeaseCancelled, stored.Status)

	pending, err := database.HasPendingLease(f.db.DB(), m.ID)
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestConcurrentLikesMatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.svc.SwipeByTenant(ctx, f.tenant.ID, f.property.ID)
		errCh <- err
	}()
	go func() {
		defer wg.Done()
		_, err := f.svc.InviteTenant(ctx, f.landlord.ID, f.tenant.ID, f.property.ID)
		errCh <- err
	}()
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	match, err := database.FindMatchByPair(f.db.DB(), f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, models.StatusMatched, match.Status)
	assert.Equal(t, 20.0, match.Score)
}

func TestLandlordReadModels(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other := &models.User{ID: "tenant-2", Role: models.RoleTenant}
	require.NoError(t, database.SaveUser(f.db.DB(), other))

	_, err := f.svc.SwipeByTenant(ctx, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	_, err = f.svc.SwipeByTenant(ctx, other.ID, f.property.ID)
	require.NoError(t, err)
	_, err = f.svc.InviteTenant(ctx, f.landlord.ID, other.ID, f.property.ID)
	require.NoError(t, err)

	pending, err := f.svc.PendingLikesForLandlord(ctx, f.landlord.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, f.tenant.ID, pending[0].TenantID)

	confirmed, err := f.svc.ConfirmedMatchesForLandlord(ctx, f.landlord.ID)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, other.ID, confirmed[0].TenantID)
}

func TestSwipeDispatchesOnRole(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	m, err := f.svc.Swipe(ctx, f.landlord.ID, models.RoleLandlord, f.tenant.ID, f.property.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLandlordLiked, m.Status)

	m, err = f.svc.Swipe(ctx, f.tenant.ID, models.RoleTenant, "", f.property.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMatched, m.Status)

	_, err = f.svc.Swipe(ctx, f.tenant.ID, models.RoleAdmin, "", f.property.ID, true)
	assert.ErrorIs(t, err, errs.ErrInvalidRequest)
}
