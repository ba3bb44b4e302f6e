package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool               { return &b }
func intPtr(i int) *int                  { return &i }
func floatPtr(f float64) *float64        { return &f }
func layoutPtr(l LayoutType) *LayoutType { return &l }

func testProperty() *Property {
	return &Property{
		ID:             1,
		OwnerID:        "landlord-1",
		Title:          "Two rooms near Unirii",
		Price:          decimal.NewFromInt(500),
		Surface:        54,
		NumberOfRooms:  2,
		LayoutType:     layoutPtr(LayoutDecomandat),
		PetFriendly:    boolPtr(true),
		SmokerFriendly: boolPtr(false),
		Latitude:       floatPtr(44.4268),
		Longitude:      floatPtr(26.1025),
	}
}

func TestPreferences_AllowsProperty(t *testing.T) {
	tests := []struct {
		name  string
		prefs *Preferences
		want  bool
	}{
		{name: "no preferences", prefs: nil, want: true},
		{name: "empty preferences", prefs: &Preferences{}, want: true},
		{
			name:  "price within range",
			prefs: &Preferences{MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(400)), MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(600))},
			want:  true,
		},
		{
			name:  "price above max",
			prefs: &Preferences{MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(450))},
			want:  false,
		},
		{
			name:  "price below min",
			prefs: &Preferences{MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(501))},
			want:  false,
		},
		{name: "surface too small", prefs: &Preferences{MinSurface: floatPtr(60)}, want: false},
		{name: "surface too large", prefs: &Preferences{MaxSurface: floatPtr(50)}, want: false},
		{name: "too few rooms", prefs: &Preferences{MinRooms: intPtr(3)}, want: false},
		{name: "too many rooms", prefs: &Preferences{MaxRooms: intPtr(1)}, want: false},
		{name: "layout allowed", prefs: &Preferences{LayoutTypes: []LayoutType{LayoutSemidecomandat, LayoutDecomandat}}, want: true},
		{name: "layout rejected", prefs: &Preferences{LayoutTypes: []LayoutType{LayoutNedecomandat}}, want: false},
		{name: "pets wanted and allowed", prefs: &Preferences{PetFriendly: boolPtr(true)}, want: true},
		{name: "smoking wanted but forbidden", prefs: &Preferences{SmokerFriendly: boolPtr(true)}, want: false},
		{name: "smoking not required", prefs: &Preferences{SmokerFriendly: boolPtr(false)}, want: true},
		{
			name:  "inside radius",
			prefs: &Preferences{SearchLatitude: floatPtr(44.43), SearchLongitude: floatPtr(26.10), SearchRadiusKm: floatPtr(5)},
			want:  true,
		},
		{
			name:  "outside radius",
			prefs: &Preferences{SearchLatitude: floatPtr(46.7712), SearchLongitude: floatPtr(23.6236), SearchRadiusKm: floatPtr(50)},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.prefs.AllowsProperty(testProperty()))
		})
	}
}

func TestPreferences_LayoutIgnoredWhenPropertyHasNone(t *testing.T) {
	p := testProperty()
	p.LayoutType = nil
	prefs := &Preferences{LayoutTypes: []LayoutType{LayoutNedecomandat}}
	assert.True(t, prefs.AllowsProperty(p))
}

func TestPreferences_RadiusRequiresCoordinates(t *testing.T) {
	p := testProperty()
	p.Latitude, p.Longitude = nil, nil
	prefs := &Preferences{SearchLatitude: floatPtr(44.43), SearchLongitude: floatPtr(26.10), SearchRadiusKm: floatPtr(500)}
	assert.False(t, prefs.AllowsProperty(p))
}

func TestParseTenantType(t *testing.T) {
	for _, in := range []string{"FAMILY_WITH_KIDS", "family_with_kids", "Family with Kids", " family with kids "} {
		got, err := ParseTenantType(in)
		require.NoError(t, err, in)
		assert.Equal(t, TenantFamilyWithKids, got)
	}

	got, err := ParseTenantType("Students (Coliving)")
	require.NoError(t, err)
	assert.Equal(t, TenantStudentsColiving, got)
	assert.Equal(t, "Students (Coliving)", got.DisplayName())

	_, err = ParseTenantType("Astronaut")
	assert.Error(t, err)
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("ron")
	require.NoError(t, err)
	assert.Equal(t, CurrencyRON, c)

	c, err = ParseCurrency("")
	require.NoError(t, err)
	assert.Equal(t, CurrencyEUR, c)

	_, err = ParseCurrency("JPY")
	assert.Error(t, err)
}

func TestMatchStatus_Confirmed(t *testing.T) {
	for _, s := range []MatchStatus{StatusMatched, StatusViewingRequested, StatusViewingScheduled, StatusOfferPending, StatusRented} {
		assert.True(t, s.Confirmed(), s)
	}
	for _, s := range []MatchStatus{StatusTenantLiked, StatusLandlordLiked, StatusTenantDeclined, StatusLandlordDeclined} {
		assert.False(t, s.Confirmed(), s)
	}
}

func TestMatch_IsParty(t *testing.T) {
	m := &Match{TenantID: "t1", LandlordID: "l1"}
	assert.True(t, m.IsParty("t1"))
	assert.True(t, m.IsParty("l1"))
	assert.False(t, m.IsParty("x"))
	assert.False(t, m.IsParty(""))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("user")
	assert.True(t, ok)
	assert.Equal(t, RoleTenant, r)

	r, ok = ParseRole("Landlord")
	assert.True(t, ok)
	assert.Equal(t, RoleLandlord, r)

	_, ok = ParseRole("guest")
	assert.False(t, ok)
}
