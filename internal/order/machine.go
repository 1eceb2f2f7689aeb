// Package order is the taxi order conversation: a pure state machine that
// turns one inbound text into the next state and the replies to send.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/taxibot/core/logger"
	"github.com/m3rciful/taxibot/internal/catalog"
	"github.com/m3rciful/taxibot/internal/pricing"
	"github.com/m3rciful/taxibot/internal/roster"
)

// DefaultSearchDelay is the simulated driver search pause.
const DefaultSearchDelay = 2 * time.Second

// ErrFinished is returned by Handle for a Terminal state.
var ErrFinished = errors.New("order: conversation already finished")

// Catalog resolves a destination street to its district.
type Catalog interface {
	FindDistrict(street string) (catalog.Record, error)
}

// Roster supplies a driver for a confirmed order.
type Roster interface {
	Pick() (roster.Driver, error)
}

// Pricer prices a district per tier.
type Pricer interface {
	PriceFor(district string, t pricing.Tier) pricing.Money
	Quote(district string) []pricing.TierPrice
}

// Reply is one outbound message.
type Reply struct {
	Text string
	// Keyboard is a single row of reply buttons; nil sends none.
	Keyboard       []string
	RemoveKeyboard bool
	// Pause is waited out before the reply is delivered.
	Pause time.Duration
}

// Outcome is the result of handling one inbound text.
type Outcome struct {
	Next    State
	Replies []Reply
}

// Config wires the machine to its reference data.
type Config struct {
	Catalog     Catalog
	Roster      Roster
	Pricing     Pricer
	SearchDelay time.Duration
}

// Machine is stateless; all conversation data lives in the State values.
type Machine struct {
	catalog     Catalog
	roster      Roster
	pricing     Pricer
	searchDelay time.Duration
}

// NewMachine validates cfg and returns a Machine. A negative SearchDelay
// disables the pause; zero uses DefaultSearchDelay.
func NewMachine(cfg Config) (*Machine, error) {
	if cfg.Catalog == nil || cfg.Roster == nil || cfg.Pricing == nil {
		return nil, fmt.Errorf("order: catalog, roster and pricing are required")
	}
	delay := cfg.SearchDelay
	switch {
	case delay == 0:
		delay = DefaultSearchDelay
	case delay < 0:
		delay = 0
	}
	return &Machine{
		catalog:     cfg.Catalog,
		roster:      cfg.Roster,
		pricing:     cfg.Pricing,
		searchDelay: delay,
	}, nil
}

// Start opens a new conversation.
func (m *Machine) Start() Outcome {
	return Outcome{
		Next:    AwaitingOriginStreet{},
		Replies: []Reply{{Text: textGreeting, RemoveKeyboard: true}},
	}
}

// Handle advances st by one inbound text. Recoverable conditions (unknown
// street, unclear choice, empty roster) come back as an Outcome; a returned
// error means the caller keeps st unchanged.
func (m *Machine) Handle(ctx context.Context, st State, text string) (Outcome, error) {
	input := strings.TrimSpace(text)
	if input == "" && promptsForText(st) {
		return Outcome{Next: st, Replies: []Reply{{Text: textEmptyInput}}}, nil
	}

	var (
		out Outcome
		err error
	)
	switch s := st.(type) {
	case AwaitingOriginStreet:
		out = Outcome{
			Next:    AwaitingOriginHouseNumber{OriginStreet: input},
			Replies: []Reply{{Text: textHouseNumber(input)}},
		}
	case AwaitingOriginHouseNumber:
		out = Outcome{
			Next:    AwaitingDestinationStreet{Origin: Address{Street: s.OriginStreet, House: input}},
			Replies: []Reply{{Text: textDestinationStreet}},
		}
	case AwaitingDestinationStreet:
		out = Outcome{
			Next:    AwaitingDestinationHouseNumber{Origin: s.Origin, DestinationStreet: input},
			Replies: []Reply{{Text: textHouseNumber(input)}},
		}
	case AwaitingDestinationHouseNumber:
		out, err = m.resolveDestination(s, input)
	case AwaitingTierSelection:
		out = m.selectTier(ctx, s, input)
	case AwaitingConfirmation:
		out, err = m.confirm(s, input)
	case Terminal:
		return Outcome{}, ErrFinished
	default:
		return Outcome{}, fmt.Errorf("order: unknown state %T", st)
	}
	if err != nil {
		return Outcome{}, err
	}

	logger.LogEvent(ctx, logger.Order, slog.LevelDebug, "order.transition",
		slog.String("step", string(st.Step())),
		slog.String("next_step", string(out.Next.Step())),
		slog.Int("messages", len(out.Replies)),
	)
	return out, nil
}

// promptsForText reports whether st waits for typed text. The confirmation
// step answers blank input with its usual unrecognized-choice reply.
func promptsForText(st State) bool {
	switch st.(type) {
	case AwaitingConfirmation, Terminal:
		return false
	}
	return true
}

func (m *Machine) resolveDestination(s AwaitingDestinationHouseNumber, house string) (Outcome, error) {
	rec, err := m.catalog.FindDistrict(s.DestinationStreet)
	if errors.Is(err, catalog.ErrNotFound) {
		return Outcome{
			Next:    AwaitingDestinationStreet{Origin: s.Origin},
			Replies: []Reply{{Text: textStreetNotFound}},
		}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("find district for %q: %w", s.DestinationStreet, err)
	}

	trip := Trip{
		Origin:      s.Origin,
		Destination: Address{Street: rec.StreetName, House: house},
		District:    rec.District,
	}
	replies := []Reply{{Text: textTripSummary(trip)}}
	for _, tp := range m.pricing.Quote(trip.District) {
		replies = append(replies, Reply{Text: textTierPrice(tp)})
	}
	replies = append(replies, Reply{Text: textChooseTier, Keyboard: tierLabels()})

	return Outcome{Next: AwaitingTierSelection{Trip: trip}, Replies: replies}, nil
}

func (m *Machine) selectTier(ctx context.Context, s AwaitingTierSelection, input string) Outcome {
	tier := pricing.ResolveTier(input)
	if _, ok := pricing.ParseTier(input); !ok {
		logger.LogEvent(ctx, logger.Order, slog.LevelDebug, "order.tier_fallback",
			slog.String("payload", logger.SanitizeLimit(input, 64)),
			slog.String("tier", tier.String()),
		)
	}
	price := m.pricing.PriceFor(s.Trip.District, tier)
	return Outcome{
		Next: AwaitingConfirmation{Trip: s.Trip, Tier: tier, Price: price},
		Replies: []Reply{
			{Text: textTierPrice(pricing.TierPrice{Tier: tier, Price: price})},
			{Text: textConfirmPrompt, Keyboard: []string{LabelConfirm, LabelBack}},
		},
	}
}

func (m *Machine) confirm(s AwaitingConfirmation, input string) (Outcome, error) {
	switch {
	case isConfirm(input):
		driver, err := m.roster.Pick()
		if errors.Is(err, roster.ErrEmpty) {
			return Outcome{Next: s, Replies: []Reply{{Text: textNoDrivers}}}, nil
		}
		if err != nil {
			return Outcome{}, fmt.Errorf("pick driver: %w", err)
		}
		return Outcome{
			Next: Terminal{Trip: s.Trip, Tier: s.Tier, Price: s.Price, Driver: driver},
			Replies: []Reply{
				{Text: textSearching, RemoveKeyboard: true},
				{Text: textDriverFound(driver), Pause: m.searchDelay},
			},
		}, nil
	case isBack(input):
		return Outcome{
			Next:    AwaitingTierSelection{Trip: s.Trip},
			Replies: []Reply{{Text: textChooseTier, Keyboard: tierLabels()}},
		}, nil
	default:
		return Outcome{Next: s, Replies: []Reply{{Text: textUnrecognized}}}, nil
	}
}

func isConfirm(input string) bool {
	return strings.EqualFold(input, LabelConfirm) || strings.EqualFold(input, "confirm")
}

func isBack(input string) bool {
	return strings.EqualFold(input, LabelBack) || strings.EqualFold(input, "back")
}
