package agent

import (
	"fmt"

	"pioneer.ai/internal/sim/model"
)

type Kind uint8

const (
	Idle Kind = iota
	Deciding
	WaitingUntil
	MovingTo
	ChargingTo
	Sleeping
	GatheringResource
	SellingResource
	Depositing
	Exploring
)

var kindNames = [...]string{
	Idle:              "Idle",
	Deciding:          "Deciding",
	WaitingUntil:      "WaitingUntil",
	MovingTo:          "MovingTo",
	ChargingTo:        "ChargingTo",
	Sleeping:          "Sleeping",
	GatheringResource: "GatheringResource",
	SellingResource:   "SellingResource",
	Depositing:        "Depositing",
	Exploring:         "Exploring",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Objective is a tagged variant; only the payload field matching Kind is set.
type Objective struct {
	Kind     Kind
	Until    model.DayTime     // WaitingUntil
	Discover bool              // MovingTo
	Level    int               // ChargingTo
	Resource model.ContentKind // GatheringResource, SellingResource
}

func Decide() Objective                    { return Objective{Kind: Deciding} }
func WaitUntil(t model.DayTime) Objective  { return Objective{Kind: WaitingUntil, Until: t} }
func MoveTo(discover bool) Objective       { return Objective{Kind: MovingTo, Discover: discover} }
func ChargeTo(level int) Objective         { return Objective{Kind: ChargingTo, Level: level} }
func Sleep() Objective                     { return Objective{Kind: Sleeping} }
func Gather(k model.ContentKind) Objective { return Objective{Kind: GatheringResource, Resource: k} }
func Sell(k model.ContentKind) Objective   { return Objective{Kind: SellingResource, Resource: k} }
func Deposit() Objective                   { return Objective{Kind: Depositing} }
func Explore() Objective                   { return Objective{Kind: Exploring} }
func None() Objective                      { return Objective{Kind: Idle} }

func (o Objective) String() string {
	switch o.Kind {
	case WaitingUntil:
		return fmt.Sprintf("WaitingUntil(%s)", o.Until)
	case MovingTo:
		return fmt.Sprintf("MovingTo(%t)", o.Discover)
	case ChargingTo:
		return fmt.Sprintf("ChargingTo(%d)", o.Level)
	case GatheringResource, SellingResource:
		return fmt.Sprintf("%s(%s)", o.Kind, o.Resource)
	}
	return o.Kind.String()
}

// holding reports whether the objective suspends the low-energy override.
func (o Objective) holding() bool {
	switch o.Kind {
	case WaitingUntil, ChargingTo, Sleeping:
		return true
	}
	return false
}
