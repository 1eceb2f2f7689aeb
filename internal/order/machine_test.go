package order

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/taxibot/internal/catalog"
	"github.com/m3rciful/taxibot/internal/pricing"
	"github.com/m3rciful/taxibot/internal/roster"
)

var testDrivers = []roster.Driver{
	{Color: "White", Company: "Toyota", Model: "Camry", ID: "AX1234AA"},
	{Color: "Black", Company: "Skoda", Model: "Octavia", ID: "AX5678BB"},
}

type failingCatalog struct{ err error }

func (f failingCatalog) FindDistrict(string) (catalog.Record, error) { return catalog.Record{}, f.err }

type failingRoster struct{ err error }

func (f failingRoster) Pick() (roster.Driver, error) { return roster.Driver{}, f.err }

func newTestMachine(t *testing.T, mutate ...func(*Config)) *Machine {
	t.Helper()
	cfg := Config{
		Catalog: catalog.New(
			catalog.Record{District: "X", StreetType: "street", StreetName: "Franko St"},
			catalog.Record{District: "Київський", StreetType: "вулиця", StreetName: "Сумська"},
		),
		Roster:      roster.New(testDrivers),
		Pricing:     pricing.NewPolicy(map[string]int64{"X": 150, "Київський": 130}),
		SearchDelay: 2 * time.Second,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	m, err := NewMachine(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// feed runs texts through the machine starting from st and returns the last outcome.
func feed(t *testing.T, m *Machine, st State, texts ...string) Outcome {
	t.Helper()
	var out Outcome
	for _, text := range texts {
		var err error
		out, err = m.Handle(context.Background(), st, text)
		if err != nil {
			t.Fatalf("Handle(%T, %q): %v", st, text, err)
		}
		st = out.Next
	}
	return out
}

func replyTexts(out Outcome) []string {
	texts := make([]string, len(out.Replies))
	for i, r := range out.Replies {
		texts[i] = r.Text
	}
	return texts
}

func TestStart(t *testing.T) {
	out := newTestMachine(t).Start()
	if _, ok := out.Next.(AwaitingOriginStreet); !ok {
		t.Fatalf("Start next = %T", out.Next)
	}
	if len(out.Replies) != 1 || out.Replies[0].Text != textGreeting {
		t.Fatalf("Start replies = %v", replyTexts(out))
	}
}

func TestCollectAddresses(t *testing.T) {
	m := newTestMachine(t)

	out := feed(t, m, AwaitingOriginStreet{}, "Shevchenko St")
	if got := out.Next.(AwaitingOriginHouseNumber); got.OriginStreet != "Shevchenko St" {
		t.Fatalf("origin street = %q", got.OriginStreet)
	}
	if out.Replies[0].Text != "Введіть номер будинку 'Shevchenko St':" {
		t.Fatalf("prompt = %q", out.Replies[0].Text)
	}

	out = feed(t, m, AwaitingOriginStreet{}, "Shevchenko St", "10")
	want := Address{Street: "Shevchenko St", House: "10"}
	if got := out.Next.(AwaitingDestinationStreet); got.Origin != want {
		t.Fatalf("origin = %+v", got.Origin)
	}

	out = feed(t, m, AwaitingOriginStreet{}, "Shevchenko St", "10", "Franko St")
	dest := out.Next.(AwaitingDestinationHouseNumber)
	if dest.DestinationStreet != "Franko St" || dest.Origin != want {
		t.Fatalf("state = %+v", dest)
	}
}

func TestQuoteAfterDestination(t *testing.T) {
	m := newTestMachine(t)
	out := feed(t, m, m.Start().Next, "Shevchenko St", "10", "franko st", "5")

	sel, ok := out.Next.(AwaitingTierSelection)
	if !ok {
		t.Fatalf("next = %T, want AwaitingTierSelection", out.Next)
	}
	wantTrip := Trip{
		Origin:      Address{Street: "Shevchenko St", House: "10"},
		Destination: Address{Street: "Franko St", House: "5"},
		District:    "X",
	}
	if sel.Trip != wantTrip {
		t.Fatalf("trip = %+v", sel.Trip)
	}

	got := replyTexts(out)
	want := []string{
		"Ви виїджаєте з Shevchenko St 10 до Franko St 5 в район X.",
		"Ціна поїздки на стандартному авто: 150.00 грн",
		"Ціна поїздки на комфортному авто: 180.00 грн",
		"Ціна поїздки на бізнес-класі: 210.00 грн",
		"Обери тип авто:",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("replies:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	kb := out.Replies[len(out.Replies)-1].Keyboard
	if strings.Join(kb, ",") != "стандарт,комфорт,бізнес" {
		t.Fatalf("tier keyboard = %v", kb)
	}
}

func TestUnknownStreetLoopsToStreetPrompt(t *testing.T) {
	m := newTestMachine(t)
	out := feed(t, m, m.Start().Next, "Shevchenko St", "10", "Nowhere Ave", "5")

	back, ok := out.Next.(AwaitingDestinationStreet)
	if !ok {
		t.Fatalf("next = %T, want AwaitingDestinationStreet", out.Next)
	}
	if back.Origin != (Address{Street: "Shevchenko St", House: "10"}) {
		t.Fatalf("origin lost: %+v", back.Origin)
	}
	if len(out.Replies) != 1 || out.Replies[0].Text != textStreetNotFound {
		t.Fatalf("replies = %v", replyTexts(out))
	}

	out = feed(t, m, back, "Franko St", "5")
	if _, ok := out.Next.(AwaitingTierSelection); !ok {
		t.Fatalf("retry next = %T", out.Next)
	}
}

func TestCatalogFailureKeepsState(t *testing.T) {
	boom := errors.New("disk gone")
	m := newTestMachine(t, func(c *Config) { c.Catalog = failingCatalog{err: boom} })
	st := AwaitingDestinationHouseNumber{Origin: Address{Street: "A", House: "1"}, DestinationStreet: "B"}
	if _, err := m.Handle(context.Background(), st, "2"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func tierState() AwaitingTierSelection {
	return AwaitingTierSelection{Trip: Trip{
		Origin:      Address{Street: "Shevchenko St", House: "10"},
		Destination: Address{Street: "Franko St", House: "5"},
		District:    "X",
	}}
}

func TestSelectTier(t *testing.T) {
	m := newTestMachine(t)
	cases := []struct {
		input string
		tier  pricing.Tier
		price pricing.Money
	}{
		{"standard", pricing.Standard, 15000},
		{"Comfort", pricing.Comfort, 18000},
		{"бізнес", pricing.Business, 21000},
		{"limousine", pricing.Standard, 15000},
	}
	for _, tc := range cases {
		out := feed(t, m, tierState(), tc.input)
		conf, ok := out.Next.(AwaitingConfirmation)
		if !ok {
			t.Fatalf("%q: next = %T", tc.input, out.Next)
		}
		if conf.Tier != tc.tier || conf.Price != tc.price {
			t.Errorf("%q: tier=%s price=%v, want %s %v", tc.input, conf.Tier, conf.Price, tc.tier, tc.price)
		}
		last := out.Replies[len(out.Replies)-1]
		if last.Text != textConfirmPrompt || strings.Join(last.Keyboard, ",") != "Підтверджую,Назад" {
			t.Errorf("%q: confirm prompt = %+v", tc.input, last)
		}
	}
}

func TestConfirmAnnouncesDriver(t *testing.T) {
	m := newTestMachine(t)
	out := feed(t, m, tierState(), "comfort", "confirm")

	done, ok := out.Next.(Terminal)
	if !ok {
		t.Fatalf("next = %T, want Terminal", out.Next)
	}
	if !IsTerminal(out.Next) {
		t.Fatal("IsTerminal false for Terminal")
	}
	if done.Tier != pricing.Comfort || done.Price != 18000 {
		t.Fatalf("terminal = %+v", done)
	}

	if len(out.Replies) != 2 || out.Replies[0].Text != textSearching {
		t.Fatalf("replies = %v", replyTexts(out))
	}
	announce := out.Replies[1]
	if announce.Pause != 2*time.Second {
		t.Fatalf("announcement pause = %v, want 2s", announce.Pause)
	}
	matched := 0
	for _, d := range testDrivers {
		if announce.Text == "Водій вже до вас прямує. "+d.String() {
			matched++
			if d != done.Driver {
				t.Fatalf("announced %v but state holds %v", d, done.Driver)
			}
		}
	}
	if matched != 1 {
		t.Fatalf("announcement %q matches %d drivers", announce.Text, matched)
	}
}

func TestConfirmUkrainianLabel(t *testing.T) {
	m := newTestMachine(t)
	out := feed(t, m, tierState(), "стандарт", "підтверджую")
	if !IsTerminal(out.Next) {
		t.Fatalf("next = %T", out.Next)
	}
}

func TestBackRetainsTrip(t *testing.T) {
	m := newTestMachine(t)
	first := feed(t, m, tierState(), "comfort")
	out := feed(t, m, first.Next, "Назад")

	sel, ok := out.Next.(AwaitingTierSelection)
	if !ok {
		t.Fatalf("next = %T, want AwaitingTierSelection", out.Next)
	}
	if sel.Trip != tierState().Trip {
		t.Fatalf("trip changed: %+v", sel.Trip)
	}
	if strings.Join(out.Replies[0].Keyboard, ",") != "стандарт,комфорт,бізнес" {
		t.Fatalf("keyboard = %v", out.Replies[0].Keyboard)
	}

	again := feed(t, m, sel, "comfort")
	if again.Next.(AwaitingConfirmation).Price != first.Next.(AwaitingConfirmation).Price {
		t.Fatal("price changed after back")
	}
}

func TestUnrecognizedConfirmationRepeats(t *testing.T) {
	m := newTestMachine(t)
	st := feed(t, m, tierState(), "business").Next
	want := st
	for _, input := range []string{"maybe", "   ", "так", ""} {
		out := feed(t, m, st, input)
		if out.Next != want {
			t.Fatalf("state changed to %+v", out.Next)
		}
		if len(out.Replies) != 1 || out.Replies[0].Text != textUnrecognized {
			t.Fatalf("%q: replies = %v", input, replyTexts(out))
		}
		st = out.Next
	}
}

func TestEmptyRosterStays(t *testing.T) {
	m := newTestMachine(t, func(c *Config) { c.Roster = roster.New(nil) })
	st := feed(t, m, tierState(), "comfort").Next
	out := feed(t, m, st, "confirm")
	if out.Next != st {
		t.Fatalf("next = %+v, want unchanged", out.Next)
	}
	if out.Replies[0].Text != textNoDrivers {
		t.Fatalf("reply = %q", out.Replies[0].Text)
	}
}

func TestRosterFailureIsError(t *testing.T) {
	boom := errors.New("roster offline")
	m := newTestMachine(t, func(c *Config) { c.Roster = failingRoster{err: boom} })
	st := feed(t, m, tierState(), "comfort").Next
	if _, err := m.Handle(context.Background(), st, "confirm"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestEmptyInputRepeatsStep(t *testing.T) {
	m := newTestMachine(t)
	st := AwaitingOriginHouseNumber{OriginStreet: "Shevchenko St"}
	out := feed(t, m, st, "   ")
	if out.Next != State(st) {
		t.Fatalf("next = %+v", out.Next)
	}
}

func TestTerminalRejectsInput(t *testing.T) {
	m := newTestMachine(t)
	if _, err := m.Handle(context.Background(), Terminal{}, "hi"); !errors.Is(err, ErrFinished) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewMachineValidation(t *testing.T) {
	if _, err := NewMachine(Config{}); err == nil {
		t.Fatal("empty config accepted")
	}
	m := newTestMachine(t, func(c *Config) { c.SearchDelay = -1 })
	out := feed(t, m, tierState(), "comfort", "confirm")
	if out.Replies[1].Pause != 0 {
		t.Fatalf("pause = %v, want 0", out.Replies[1].Pause)
	}
}
