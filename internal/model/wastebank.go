package model

// WasteBank is a drop-off point that buys sorted recyclables.
type WasteBank struct {
	PurchasePrices    map[string]float64 `json:"purchase_prices" yaml:"purchase_prices"`
	ID                string             `json:"id" yaml:"id"`
	Name              string             `json:"name" yaml:"name"`
	Address           string             `json:"address" yaml:"address"`
	Contact           BankContact        `json:"contact" yaml:"contact"`
	Hours             OpeningHours       `json:"hours" yaml:"hours"`
	Materials         []string           `json:"materials" yaml:"materials"`
	Coordinates       Coordinates        `json:"coordinates" yaml:"coordinates"`
	Rating            float64            `json:"rating" yaml:"rating"`
	TotalTransactions int                `json:"total_transactions" yaml:"total_transactions"`
	Verified          bool               `json:"verified" yaml:"verified"`
}

// BankContact holds a waste bank's contact channels.
type BankContact struct {
	Phone    string `json:"phone,omitempty" yaml:"phone"`
	WhatsApp string `json:"whatsapp,omitempty" yaml:"whatsapp"`
	Email    string `json:"email,omitempty" yaml:"email"`
}

// OpeningHours uses 24h "HH:MM" strings in the bank's local time.
type OpeningHours struct {
	Opens      string   `json:"opens" yaml:"opens"`
	Closes     string   `json:"closes" yaml:"closes"`
	ClosedDays []string `json:"closed_days,omitempty" yaml:"closed_days"`
}

// Accepts reports whether the bank takes material of the given category.
// Materials outside the closed category set (glass, for instance) never
// match a category.
func (b WasteBank) Accepts(c WasteCategory) bool {
	for _, m := range b.Materials {
		if got, ok := LookupCategory(m); ok && got == c {
			return true
		}
	}
	return false
}

// PriceFor returns the bank's purchase price per kg for a category.
func (b WasteBank) PriceFor(c WasteCategory) (float64, bool) {
	for material, price := range b.PurchasePrices {
		if got, ok := LookupCategory(material); ok && got == c {
			return price, true
		}
	}
	return 0, false
}
