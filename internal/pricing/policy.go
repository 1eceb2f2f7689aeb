// Package pricing computes trip prices from the destination district and the
// chosen tier. Amounts are exact: base prices are whole hryvnias and tier
// multipliers are whole percents.
package pricing

import "maps"

// DefaultDistricts is the base price table in whole hryvnias.
var DefaultDistricts = map[string]int64{
	"Орджонікідзевський": 100,
	"Дзержинський":       150,
	"Червонозаводський":  120,
	"Київський":          130,
	"Жовтневий":          140,
	"Фрунзенський":       160,
	"Московський":        170,
	"Комінтернівський":   180,
	"Ленінський":         190,
}

// TierPrice is the price of one tier for a district.
type TierPrice struct {
	Tier  Tier
	Price Money
}

// Policy is immutable and safe for concurrent use.
type Policy struct {
	base map[string]Money
}

// NewPolicy builds a policy from a district table in whole hryvnias. A nil
// or empty table uses DefaultDistricts.
func NewPolicy(districts map[string]int64) *Policy {
	if len(districts) == 0 {
		districts = DefaultDistricts
	}
	p := &Policy{base: make(map[string]Money, len(districts))}
	for d, uah := range districts {
		p.base[d] = Hryvnias(uah)
	}
	return p
}

// BasePrice returns the district's base price, or 0 for an unknown district.
func (p *Policy) BasePrice(district string) Money {
	return p.base[district]
}

// Multiplier returns the tier multiplier.
func (p *Policy) Multiplier(t Tier) float64 {
	return t.Multiplier()
}

// PriceFor is BasePrice(district) times the tier multiplier.
func (p *Policy) PriceFor(district string, t Tier) Money {
	return p.BasePrice(district) * Money(t.Percent()) / 100
}

// Quote prices every tier for district in display order.
func (p *Policy) Quote(district string) []TierPrice {
	out := make([]TierPrice, 0, len(Tiers))
	for _, t := range Tiers {
		out = append(out, TierPrice{Tier: t, Price: p.PriceFor(district, t)})
	}
	return out
}

// Districts returns a copy of the base price table.
func (p *Policy) Districts() map[string]Money {
	return maps.Clone(p.base)
}
