package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotValidate(t *testing.T) {
	state := BatteryState{MaxChargeW: 2400, MaxDischargeW: 2400}

	testCases := []struct {
		name    string
		slot    Slot
		wantErr bool
	}{
		{
			name: "valid charge slot",
			slot: Slot{Enabled: true, Start: Quarter{Hour: 2}, End: Quarter{Hour: 4}, PowerW: -2400, MaxSOC: 95, MinSOC: 15},
		},
		{
			name:    "charge power over limit",
			slot:    Slot{PowerW: -3000, MaxSOC: 95, MinSOC: 15},
			wantErr: true,
		},
		{
			name:    "discharge power over limit",
			slot:    Slot{PowerW: 2500, MaxSOC: 100, MinSOC: 15},
			wantErr: true,
		},
		{
			name:    "inverted SOC window",
			slot:    Slot{PowerW: 1000, MaxSOC: 20, MinSOC: 60},
			wantErr: true,
		},
		{
			name:    "max SOC above 100",
			slot:    Slot{PowerW: 1000, MaxSOC: 110, MinSOC: 10},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.slot.Validate(state)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlotContains_WrapsMidnight(t *testing.T) {
	slot := Slot{Start: Quarter{Hour: 23}, End: Quarter{Hour: 2}}
	assert.True(t, slot.Contains(Quarter{Hour: 23, Minute: 30}))
	assert.True(t, slot.Contains(Quarter{Hour: 0, Minute: 45}))
	assert.False(t, slot.Contains(Quarter{Hour: 2, Minute: 0}))
	assert.False(t, slot.Contains(Quarter{Hour: 12, Minute: 0}))
}

func TestEffectiveReserve(t *testing.T) {
	state := BatteryState{ReserveSOC: 15, EVReserveSOC: 20}
	assert.Equal(t, 15.0, state.EffectiveReserve())
	state.EVCharging = true
	assert.Equal(t, 35.0, state.EffectiveReserve())
}

func TestParseDispatchMode(t *testing.T) {
	for _, name := range []string{"arbitrage", "self_consumption", "balanced", "off"} {
		mode, err := ParseDispatchMode(name)
		assert.NoError(t, err)
		assert.Equal(t, name, mode.String())
	}
	_, err := ParseDispatchMode("turbo")
	assert.Error(t, err)
}
