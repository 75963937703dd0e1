package model

import "fmt"

// Slot is one compiled schedule entry in the device's controlTime table.
// PowerW is signed: negative charges from grid, positive discharges.
type Slot struct {
	Enabled bool
	Start   Quarter
	End     Quarter // exclusive, may wrap past midnight
	PowerW  int
	MaxSOC  int
	MinSOC  int
}

// Validate checks the SOC window and the directional power limit against the
// battery state. A violation here is an internal defect and must be caught
// before the slot is encoded for the device.
func (s Slot) Validate(state BatteryState) error {
	if s.MinSOC < 0 || s.MaxSOC > 100 || s.MinSOC > s.MaxSOC {
		return fmt.Errorf("slot %s-%s: invalid SOC window %d-%d", s.Start, s.End, s.MinSOC, s.MaxSOC)
	}
	if s.PowerW < 0 && -s.PowerW > state.MaxChargeW {
		return fmt.Errorf("slot %s-%s: charge power %dW exceeds limit %dW", s.Start, s.End, -s.PowerW, state.MaxChargeW)
	}
	if s.PowerW > 0 && s.PowerW > state.MaxDischargeW {
		return fmt.Errorf("slot %s-%s: discharge power %dW exceeds limit %dW", s.Start, s.End, s.PowerW, state.MaxDischargeW)
	}
	return nil
}

// Contains reports whether the quarter falls inside the slot's time range,
// accounting for ranges that wrap past midnight.
func (s Slot) Contains(q Quarter) bool {
	qm, sm, em := q.Minutes(), s.Start.Minutes(), s.End.Minutes()
	if sm <= em {
		return sm <= qm && qm < em
	}
	return qm >= sm || qm < em
}
