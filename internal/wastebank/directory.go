// Package wastebank finds and ranks waste banks near a user.
package wastebank

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/Veraticus/binwise/internal/model"
	"gopkg.in/yaml.v3"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

//go:embed seed.yaml
var defaultSeed []byte

// Distance returns the haversine distance between two points in kilometers.
func Distance(a, b model.Coordinates) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Ranked is a bank with its distance from the search origin.
type Ranked struct {
	Bank       model.WasteBank `json:"bank"`
	DistanceKm float64         `json:"distance_km"`
}

// Query narrows a nearest-bank search.
type Query struct {
	Category     *model.WasteCategory
	Limit        int
	MaxKm        float64
	VerifiedOnly bool
}

// Nearest returns banks sorted by distance from origin. Ties keep the input
// order. A zero Limit or MaxKm means unbounded.
func Nearest(banks []model.WasteBank, origin model.Coordinates, q Query) []Ranked {
	ranked := make([]Ranked, 0, len(banks))
	for _, b := range banks {
		if q.VerifiedOnly && !b.Verified {
			continue
		}
		if q.Category != nil && !b.Accepts(*q.Category) {
			continue
		}
		d := Distance(origin, b.Coordinates)
		if q.MaxKm > 0 && d > q.MaxKm {
			continue
		}
		ranked = append(ranked, Ranked{Bank: b, DistanceKm: d})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if q.Limit > 0 && len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	return ranked
}

// Offer is a bank's purchase price for a category.
type Offer struct {
	Bank       model.WasteBank `json:"bank"`
	PricePerKg float64         `json:"price_per_kg"`
}

// BestOffer returns the highest purchase price any bank lists for a category.
func BestOffer(banks []model.WasteBank, category model.WasteCategory) (Offer, bool) {
	var best Offer
	found := false
	for _, b := range banks {
		price, ok := b.PriceFor(category)
		if !ok {
			continue
		}
		if !found || price > best.PricePerKg {
			best = Offer{Bank: b, PricePerKg: price}
			found = true
		}
	}
	return best, found
}

// LoadSeed decodes a YAML list of banks.
func LoadSeed(r io.Reader) ([]model.WasteBank, error) {
	var banks []model.WasteBank
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&banks); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode waste bank seed: %w", err)
	}
	return banks, nil
}

// LoadSeedFile reads banks from a YAML file.
func LoadSeedFile(path string) ([]model.WasteBank, error) {
	f, err := os.Open(path) // #nosec G304 -- path supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadSeed(f)
}

// DefaultSeed returns the built-in directory.
func DefaultSeed() ([]model.WasteBank, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}
