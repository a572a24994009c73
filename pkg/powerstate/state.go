// SPDX-License-Identifier: BSD-3-Clause

package powerstate

// State is the modem's observable power state, matching enum
// n900_power_state in the original driver exactly.
type State int

const (
	None State = iota
	OnStarted
	On
	OnReset
	OnFailed
	OffStarted
	OffWaiting
	Off
)

func (s State) String() string {
	switch s {
	case None:
		return "None"
	case OnStarted:
		return "OnStarted"
	case On:
		return "On"
	case OnReset:
		return "OnReset"
	case OnFailed:
		return "OnFailed"
	case OffStarted:
		return "OffStarted"
	case OffWaiting:
		return "OffWaiting"
	case Off:
		return "Off"
	default:
		return "<unknown>"
	}
}

// LinkState is the last reported Phonet link edge, matching enum
// phonet_state.
type LinkState int

const (
	LinkNone LinkState = iota
	LinkDown
	LinkUp
)

func (l LinkState) String() string {
	switch l {
	case LinkNone:
		return "None"
	case LinkDown:
		return "Down"
	case LinkUp:
		return "Up"
	default:
		return "<unknown>"
	}
}

// Target is the caller-requested destination link state: Enable wants
// LinkUp, Disable wants LinkDown, and no call has been made yet wants
// None.
type Target int

const (
	TargetNone Target = iota
	TargetDown
	TargetUp
)

func (t Target) String() string {
	switch t {
	case TargetNone:
		return "None"
	case TargetDown:
		return "Down"
	case TargetUp:
		return "Up"
	default:
		return "<unknown>"
	}
}

// HardwareVariant mirrors gpio.Variant without creating a dependency from
// this package on the gpio package.
type HardwareVariant int

const (
	VariantUnknown HardwareVariant = iota
	VariantA
	VariantB
)

func (v HardwareVariant) String() string {
	switch v {
	case VariantA:
		return "A"
	case VariantB:
		return "B"
	default:
		return "unknown"
	}
}

const (
	// PowerOnRetries is the number of power-on retries allowed after the
	// first attempt (11 attempts in all) before giving up and entering
	// OnFailed.
	PowerOnRetries = 10
	// ResetRetries is the maximum number of in-place reset attempts
	// before falling back to a full power-on cycle.
	ResetRetries = 5
)
