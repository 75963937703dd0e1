package model

import "fmt"

// DispatchMode selects the classification policy.
type DispatchMode int

const (
	ModeOff DispatchMode = iota
	ModeArbitrage
	ModeSelfConsumption
	ModeBalanced
)

func (m DispatchMode) String() string {
	switch m {
	case ModeArbitrage:
		return "arbitrage"
	case ModeSelfConsumption:
		return "self_consumption"
	case ModeBalanced:
		return "balanced"
	case ModeOff:
		return "off"
	}
	return fmt.Sprintf("DispatchMode(%d)", int(m))
}

// ParseDispatchMode maps a mode name to its DispatchMode. Unknown names are a
// configuration error.
func ParseDispatchMode(s string) (DispatchMode, error) {
	switch s {
	case "arbitrage":
		return ModeArbitrage, nil
	case "self_consumption":
		return ModeSelfConsumption, nil
	case "balanced":
		return ModeBalanced, nil
	case "off":
		return ModeOff, nil
	}
	return ModeOff, fmt.Errorf("unknown dispatch mode %q", s)
}
