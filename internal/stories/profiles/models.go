package profiles

import (
	"strconv"
	"strings"
	"time"
)

// Profile is the listing filter an agent configures in the settings web app.
type Profile struct {
	ChatID       int64
	City         string
	Districts    []string
	DealType     string
	PriceFrom    int
	PriceTo      int
	FloorFrom    int
	FloorTo      int
	RoomsFrom    int
	RoomsTo      int
	BedroomsFrom int
	BedroomsTo   int
	OwnAds       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Params are the placeholders of the settings_saved message.
func (p Profile) Params() map[string]string {
	ownAds := "❌"
	if p.OwnAds {
		ownAds = "✅"
	}

	return map[string]string{
		"city":          p.City,
		"districts":     strings.Join(p.Districts, ", "),
		"deal_type":     p.DealType,
		"price_from":    strconv.Itoa(p.PriceFrom),
		"price_to":      strconv.Itoa(p.PriceTo),
		"floor_from":    strconv.Itoa(p.FloorFrom),
		"floor_to":      strconv.Itoa(p.FloorTo),
		"rooms_from":    strconv.Itoa(p.RoomsFrom),
		"rooms_to":      strconv.Itoa(p.RoomsTo),
		"bedrooms_from": strconv.Itoa(p.BedroomsFrom),
		"bedrooms_to":   strconv.Itoa(p.BedroomsTo),
		"own_ads":       ownAds,
	}
}
