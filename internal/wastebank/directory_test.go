package wastebank

import (
	"strings"
	"testing"

	"github.com/Veraticus/binwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monas = model.Coordinates{Latitude: -6.1754, Longitude: 106.8272}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0, Distance(monas, monas), 1e-9)

	// One degree of latitude on a 6371 km sphere.
	oneDegree := Distance(model.Coordinates{Latitude: 0, Longitude: 0}, model.Coordinates{Latitude: 1, Longitude: 0})
	assert.InDelta(t, 111.195, oneDegree, 0.01)

	a := model.Coordinates{Latitude: -6.2424, Longitude: 106.7991}
	b := model.Coordinates{Latitude: -6.3612, Longitude: 106.8456}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestDefaultSeed(t *testing.T) {
	banks, err := DefaultSeed()
	require.NoError(t, err)
	require.Len(t, banks, 5)

	melati := banks[0]
	assert.Equal(t, "Bank Sampah Melati Bersih", melati.Name)
	assert.Equal(t, "021-7234567", melati.Contact.Phone)
	assert.Equal(t, []string{"Minggu"}, melati.Hours.ClosedDays)
	price, ok := melati.PriceFor(model.CategoryPlastic)
	assert.True(t, ok)
	assert.Equal(t, 3500.0, price)
}

func TestNearest(t *testing.T) {
	banks, err := DefaultSeed()
	require.NoError(t, err)

	all := Nearest(banks, monas, Query{})
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].DistanceKm, all[i].DistanceKm)
	}
	assert.Equal(t, "Bank Sampah Melati Bersih", all[0].Bank.Name)

	organic := model.CategoryOrganic
	got := Nearest(banks, monas, Query{Category: &organic})
	require.Len(t, got, 2)
	for _, r := range got {
		assert.True(t, r.Bank.Accepts(model.CategoryOrganic), r.Bank.Name)
	}

	limited := Nearest(banks, monas, Query{Limit: 2})
	assert.Len(t, limited, 2)

	nearby := Nearest(banks, monas, Query{MaxKm: 10})
	for _, r := range nearby {
		assert.LessOrEqual(t, r.DistanceKm, 10.0)
	}
}

func TestNearestVerifiedOnly(t *testing.T) {
	banks := []model.WasteBank{
		{Name: "unverified", Coordinates: monas},
		{Name: "verified", Coordinates: model.Coordinates{Latitude: -6.2, Longitude: 106.8}, Verified: true},
	}
	got := Nearest(banks, monas, Query{VerifiedOnly: true})
	require.Len(t, got, 1)
	assert.Equal(t, "verified", got[0].Bank.Name)
}

func TestBestOffer(t *testing.T) {
	banks, err := DefaultSeed()
	require.NoError(t, err)

	offer, ok := BestOffer(banks, model.CategoryMetal)
	require.True(t, ok)
	assert.Equal(t, "Bank Sampah Eco Village", offer.Bank.Name)
	assert.Equal(t, 9000.0, offer.PricePerKg)

	_, ok = BestOffer(banks, model.CategoryHazardous)
	assert.False(t, ok, "B3 is accepted but never priced")
}

func TestLoadSeedRejectsUnknownFields(t *testing.T) {
	_, err := LoadSeed(strings.NewReader("- name: X\n  colour: green\n"))
	assert.Error(t, err)

	banks, err := LoadSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, banks)
}
