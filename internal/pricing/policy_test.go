package pricing

import "testing"

func TestPriceForAllDistricts(t *testing.T) {
	p := NewPolicy(nil)
	for district, uah := range DefaultDistricts {
		base := Money(uah * 100)
		if got := p.BasePrice(district); got != base {
			t.Fatalf("BasePrice(%s) = %v, want %v", district, got, base)
		}
		want := map[Tier]Money{
			Standard: base,
			Comfort:  base * 12 / 10,
			Business: base * 14 / 10,
		}
		for tier, w := range want {
			if got := p.PriceFor(district, tier); got != w {
				t.Errorf("PriceFor(%s, %s) = %v, want %v", district, tier, got, w)
			}
		}
	}
}

func TestPriceForExactDecimals(t *testing.T) {
	p := NewPolicy(map[string]int64{"Центральний": 133})
	cases := []struct {
		tier Tier
		want string
	}{
		{Standard, "133.00"},
		{Comfort, "159.60"},
		{Business, "186.20"},
	}
	for _, tc := range cases {
		if got := p.PriceFor("Центральний", tc.tier).String(); got != tc.want {
			t.Errorf("PriceFor(%s) = %s, want %s", tc.tier, got, tc.want)
		}
	}
}

func TestUnknownDistrictIsFree(t *testing.T) {
	p := NewPolicy(nil)
	if p.BasePrice("Атлантида") != 0 {
		t.Fatal("unknown district must have base price 0")
	}
	for _, q := range p.Quote("Атлантида") {
		if q.Price != 0 {
			t.Errorf("%s price = %v, want 0", q.Tier, q.Price)
		}
	}
}

func TestQuoteOrder(t *testing.T) {
	q := NewPolicy(nil).Quote("Київський")
	if len(q) != 3 {
		t.Fatalf("quote len = %d", len(q))
	}
	want := []string{"130.00", "156.00", "182.00"}
	for i, tp := range q {
		if tp.Tier != Tiers[i] || tp.Price.String() != want[i] {
			t.Errorf("quote[%d] = %s %s, want %s %s", i, tp.Tier, tp.Price, Tiers[i], want[i])
		}
	}
}

func TestParseTier(t *testing.T) {
	cases := []struct {
		in   string
		want Tier
		ok   bool
	}{
		{"standard", Standard, true},
		{"Comfort", Comfort, true},
		{"BUSINESS", Business, true},
		{"комфорт", Comfort, true},
		{" Бізнес ", Business, true},
		{"стандарт", Standard, true},
		{"limo", Standard, false},
		{"", Standard, false},
	}
	for _, tc := range cases {
		got, ok := ParseTier(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseTier(%q) = %s,%v want %s,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	if ResolveTier("limo") != Standard {
		t.Error("unrecognized tier must price as standard")
	}
}

func TestMultiplier(t *testing.T) {
	p := NewPolicy(nil)
	want := map[Tier]float64{Standard: 1.0, Comfort: 1.2, Business: 1.4}
	for tier, w := range want {
		if got := p.Multiplier(tier); got != w {
			t.Errorf("Multiplier(%s) = %v, want %v", tier, got, w)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[Money]string{0: "0.00", 5: "0.05", 14400: "144.00", -250: "-2.50"}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Errorf("Money(%d) = %q, want %q", int64(m), got, want)
		}
	}
}

func TestDistrictsIsACopy(t *testing.T) {
	p := NewPolicy(map[string]int64{"Київський": 130})
	got := p.Districts()
	if len(got) != 1 || got["Київський"] != 13000 {
		t.Fatalf("districts = %v", got)
	}
	got["Київський"] = 1
	if p.BasePrice("Київський") != 13000 {
		t.Fatal("caller mutated the price table")
	}
}
