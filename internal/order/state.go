package order

import (
	"fmt"

	"github.com/m3rciful/taxibot/internal/pricing"
	"github.com/m3rciful/taxibot/internal/roster"
)

// Step names a conversation state in logs and stats.
type Step string

const (
	StepOriginStreet      Step = "origin_street"
	StepOriginHouse       Step = "origin_house"
	StepDestinationStreet Step = "destination_street"
	StepDestinationHouse  Step = "destination_house"
	StepTierSelection     Step = "tier_selection"
	StepConfirmation      Step = "confirmation"
	StepTerminal          Step = "terminal"
)

// State is one step of the order conversation. Each implementation carries
// only the fields collected so far.
type State interface {
	Step() Step
	isState()
}

// Address is a street with a house number as the user typed them.
type Address struct {
	Street string
	House  string
}

func (a Address) String() string {
	return fmt.Sprintf("%s %s", a.Street, a.House)
}

// Trip is a fully resolved route.
type Trip struct {
	Origin      Address
	Destination Address
	District    string
}

// AwaitingOriginStreet waits for the pickup street.
type AwaitingOriginStreet struct{}

// AwaitingOriginHouseNumber waits for the pickup house number.
type AwaitingOriginHouseNumber struct {
	OriginStreet string
}

// AwaitingDestinationStreet waits for the destination street.
type AwaitingDestinationStreet struct {
	Origin Address
}

// AwaitingDestinationHouseNumber waits for the destination house number.
type AwaitingDestinationHouseNumber struct {
	Origin            Address
	DestinationStreet string
}

// AwaitingTierSelection waits for the vehicle tier.
type AwaitingTierSelection struct {
	Trip Trip
}

// AwaitingConfirmation waits for confirm or back.
type AwaitingConfirmation struct {
	Trip  Trip
	Tier  pricing.Tier
	Price pricing.Money
}

// Terminal is a confirmed and matched order.
type Terminal struct {
	Trip   Trip
	Tier   pricing.Tier
	Price  pricing.Money
	Driver roster.Driver
}

func (AwaitingOriginStreet) Step() Step           { return StepOriginStreet }
func (AwaitingOriginHouseNumber) Step() Step      { return StepOriginHouse }
func (AwaitingDestinationStreet) Step() Step      { return StepDestinationStreet }
func (AwaitingDestinationHouseNumber) Step() Step { return StepDestinationHouse }
func (AwaitingTierSelection) Step() Step          { return StepTierSelection }
func (AwaitingConfirmation) Step() Step           { return StepConfirmation }
func (Terminal) Step() Step                       { return StepTerminal }

func (AwaitingOriginStreet) isState()           {}
func (AwaitingOriginHouseNumber) isState()      {}
func (AwaitingDestinationStreet) isState()      {}
func (AwaitingDestinationHouseNumber) isState() {}
func (AwaitingTierSelection) isState()          {}
func (AwaitingConfirmation) isState()           {}
func (Terminal) isState()                       {}

// IsTerminal reports whether st ends the conversation.
func IsTerminal(st State) bool {
	_, ok := st.(Terminal)
	return ok
}
