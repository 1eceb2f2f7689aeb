package pricing

import "strings"

// Tier is a vehicle service class.
type Tier int

// Tiers from cheapest to most expensive.
const (
	Standard Tier = iota
	Comfort
	Business
)

// Tiers lists every tier in display order.
var Tiers = []Tier{Standard, Comfort, Business}

// String returns the canonical English name.
func (t Tier) String() string {
	switch t {
	case Comfort:
		return "comfort"
	case Business:
		return "business"
	default:
		return "standard"
	}
}

// Label is the keyboard button text.
func (t Tier) Label() string {
	switch t {
	case Comfort:
		return "комфорт"
	case Business:
		return "бізнес"
	default:
		return "стандарт"
	}
}

// Phrase completes "Ціна поїздки на ...".
func (t Tier) Phrase() string {
	switch t {
	case Comfort:
		return "комфортному авто"
	case Business:
		return "бізнес-класі"
	default:
		return "стандартному авто"
	}
}

// Percent is the tier multiplier expressed in percent.
func (t Tier) Percent() int64 {
	switch t {
	case Comfort:
		return 120
	case Business:
		return 140
	default:
		return 100
	}
}

// Multiplier is the tier multiplier as a float, for display and logs only.
func (t Tier) Multiplier() float64 {
	return float64(t.Percent()) / 100
}

// ParseTier matches text against the English name and the button label of
// each tier, ignoring case and surrounding spaces.
func ParseTier(text string) (Tier, bool) {
	text = strings.TrimSpace(text)
	for _, t := range Tiers {
		if strings.EqualFold(text, t.String()) || strings.EqualFold(text, t.Label()) {
			return t, true
		}
	}
	return Standard, false
}

// ResolveTier is ParseTier with unrecognized text priced as Standard.
func ResolveTier(text string) Tier {
	t, _ := ParseTier(text)
	return t
}
