package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

var testThresholds = model.Thresholds{LowPrice: 0.08, HighPrice: 0.25}

func testState() model.BatteryState {
	return model.BatteryState{
		SOC:           60,
		MaxChargeW:    2400,
		MaxDischargeW: 2400,
		ReserveSOC:    15,
		EVReserveSOC:  20,
	}
}

// curve builds a full 24h quarter curve starting at start with a flat price.
func curve(start model.Quarter, price float64) model.PriceSamples {
	samples := make(model.PriceSamples, 0, 96)
	q := start
	for i := 0; i < 96; i++ {
		samples = append(samples, model.PriceSample{Quarter: q, Price: price})
		q = q.Next()
	}
	return samples
}

// setPrice overrides the price of every quarter in [fromHour, toHour).
func setPrice(samples model.PriceSamples, fromHour, toHour int, price float64) {
	for i, s := range samples {
		if s.Quarter.Hour >= fromHour && s.Quarter.Hour < toHour {
			samples[i].Price = price
		}
	}
}

func TestClassify_ArbitrageBucketsByPrice(t *testing.T) {
	samples := curve(model.Quarter{Hour: 14}, 0.15)
	setPrice(samples, 2, 4, 0.05)
	setPrice(samples, 18, 19, 0.30)

	charge, discharge := Classify(samples, nil, model.ConsumptionProfile{}, model.ModeArbitrage, testState(), testThresholds)

	require.Len(t, charge, 8)
	assert.Equal(t, model.Quarter{Hour: 2}, charge[0])
	assert.Equal(t, model.Quarter{Hour: 3, Minute: 45}, charge[7])
	require.Len(t, discharge, 4)
	assert.Equal(t, model.Quarter{Hour: 18}, discharge[0])
}

func TestClassify_OffProducesNothing(t *testing.T) {
	samples := curve(model.Quarter{Hour: 0}, 0.01)
	charge, discharge := Classify(samples, nil, model.ConsumptionProfile{}, model.ModeOff, testState(), testThresholds)
	assert.Empty(t, charge)
	assert.Empty(t, discharge)
}

func TestClassify_EmptyCurve(t *testing.T) {
	charge, discharge := Classify(nil, nil, model.ConsumptionProfile{}, model.ModeBalanced, testState(), testThresholds)
	assert.Empty(t, charge)
	assert.Empty(t, discharge)
}

func TestClassify_BalancedFlatPrice(t *testing.T) {
	samples := curve(model.Quarter{Hour: 0}, 0.15)
	charge, discharge := Classify(samples, nil, model.ConsumptionProfile{}, model.ModeBalanced, testState(), testThresholds)
	assert.Empty(t, charge)
	assert.Empty(t, discharge)
}

func TestClassify_SolarSurplusSuppressesCharge(t *testing.T) {
	samples := curve(model.Quarter{Hour: 0}, 0.15)
	setPrice(samples, 12, 13, 0.05)

	// 1 kWh expected at hour 12, no consumption: 0.25 kWh per quarter surplus
	solar := model.SolarForecast{12: 1.0}
	charge, _ := Classify(samples, solar, model.ConsumptionProfile{}, model.ModeBalanced, testState(), testThresholds)
	assert.Empty(t, charge)

	// consumption eats the surplus, quarter is charge-worthy again
	consumption := model.FlatConsumption(1.0)
	charge, _ = Classify(samples, solar, consumption, model.ModeBalanced, testState(), testThresholds)
	assert.Len(t, charge, 4)
}

func TestClassify_BalancedSolarGateOnDischarge(t *testing.T) {
	samples := curve(model.Quarter{Hour: 0}, 0.15)
	setPrice(samples, 13, 14, 0.40)

	// 0.6 kWh in hour 13 is 0.15 per quarter, above the 0.125 discharge gate
	solar := model.SolarForecast{13: 0.6}
	_, discharge := Classify(samples, solar, model.ConsumptionProfile{}, model.ModeBalanced, testState(), testThresholds)
	assert.Empty(t, discharge)

	_, discharge = Classify(samples, nil, model.ConsumptionProfile{}, model.ModeBalanced, testState(), testThresholds)
	assert.Len(t, discharge, 4)
}

func TestClassify_SelfConsumptionNeedsHeadroom(t *testing.T) {
	samples := curve(model.Quarter{Hour: 0}, 0.15)
	setPrice(samples, 18, 20, 0.30)
	setPrice(samples, 2, 4, 0.01)

	state := testState()
	state.SOC = 80
	charge, discharge := Classify(samples, nil, model.ConsumptionProfile{}, model.ModeSelfConsumption, state, testThresholds)
	assert.Empty(t, charge, "self consumption never charges from grid")
	assert.Len(t, discharge, 8)

	// SOC at reserve+10 must not discharge
	state.SOC = 25
	_, discharge = Classify(samples, nil, model.ConsumptionProfile{}, model.ModeSelfConsumption, state, testThresholds)
	assert.Empty(t, discharge)
}

func TestClassify_ChargeWinsCollision(t *testing.T) {
	// duplicate quarter, once cheap once expensive
	samples := model.PriceSamples{
		{Quarter: model.Quarter{Hour: 3}, Price: 0.05},
		{Quarter: model.Quarter{Hour: 3}, Price: 0.30},
	}
	charge, discharge := Classify(samples, nil, model.ConsumptionProfile{}, model.ModeArbitrage, testState(), testThresholds)
	assert.Equal(t, []model.Quarter{{Hour: 3}}, charge)
	assert.Empty(t, discharge)
}

func TestClassify_OrdersAcrossMidnight(t *testing.T) {
	samples := curve(model.Quarter{Hour: 14}, 0.15)
	setPrice(samples, 23, 24, 0.05)
	setPrice(samples, 0, 1, 0.05)

	charge, _ := Classify(samples, nil, model.ConsumptionProfile{}, model.ModeBalanced, testState(), testThresholds)
	require.Len(t, charge, 8)
	assert.Equal(t, model.Quarter{Hour: 23}, charge[0])
	assert.Equal(t, model.Quarter{Hour: 0, Minute: 45}, charge[7])
}

func TestCompile_MergesRunsIntoSlots(t *testing.T) {
	samples := curve(model.Quarter{Hour: 14}, 0.15)
	setPrice(samples, 2, 4, 0.05)
	setPrice(samples, 18, 19, 0.30)
	charge, discharge := Classify(samples, nil, model.ConsumptionProfile{}, model.ModeArbitrage, testState(), testThresholds)

	slots := Compile(charge, discharge, samples, testState())
	require.Len(t, slots, 2)

	assert.Equal(t, model.Slot{
		Enabled: true,
		Start:   model.Quarter{Hour: 2},
		End:     model.Quarter{Hour: 4},
		PowerW:  -2400,
		MaxSOC:  95,
		MinSOC:  15,
	}, slots[0])
	assert.Equal(t, model.Slot{
		Enabled: true,
		Start:   model.Quarter{Hour: 18},
		End:     model.Quarter{Hour: 19},
		PowerW:  2400,
		MaxSOC:  100,
		MinSOC:  15,
	}, slots[1])
}

func TestCompile_EmptyClassification(t *testing.T) {
	slots := Compile(nil, nil, nil, testState())
	assert.Empty(t, slots)
}

func TestCompile_CapsRegularSlots(t *testing.T) {
	// 20 isolated quarters become 20 runs, capped at 14
	var charge []model.Quarter
	for h := 0; h < 20; h++ {
		charge = append(charge, model.Quarter{Hour: h})
	}
	slots := Compile(charge, nil, nil, testState())
	assert.Len(t, slots, regularSlotCap)
}

func TestCompile_EVTopUp(t *testing.T) {
	samples := curve(model.Quarter{Hour: 14}, 0.15)
	setPrice(samples, 23, 24, 0.06)
	setPrice(samples, 0, 2, 0.06)

	state := testState()
	state.EVCharging = true

	slots := Compile(nil, nil, samples, state)
	require.Len(t, slots, 1)
	slot := slots[0]
	assert.Equal(t, model.Quarter{Hour: 23}, slot.Start)
	assert.Equal(t, model.Quarter{Hour: 2}, slot.End)
	assert.Equal(t, -1200, slot.PowerW, "EV top-up charges at half power")
	assert.Equal(t, 50, slot.MaxSOC, "reserve + ev reserve + 15")
	assert.Equal(t, 15, slot.MinSOC)
}

func TestCompile_EVTopUpSkipsCoveredRuns(t *testing.T) {
	samples := curve(model.Quarter{Hour: 14}, 0.15)
	setPrice(samples, 23, 24, 0.06)
	setPrice(samples, 0, 2, 0.06)

	state := testState()
	state.EVCharging = true

	// a regular charge run already covers the start of the cheap night window
	charge := []model.Quarter{
		{Hour: 23}, {Hour: 23, Minute: 15}, {Hour: 23, Minute: 30}, {Hour: 23, Minute: 45},
		{Hour: 0}, {Hour: 0, Minute: 15}, {Hour: 0, Minute: 30}, {Hour: 0, Minute: 45},
		{Hour: 1}, {Hour: 1, Minute: 15}, {Hour: 1, Minute: 30}, {Hour: 1, Minute: 45},
	}
	slots := Compile(charge, nil, samples, state)
	require.Len(t, slots, 1)
	assert.Equal(t, -2400, slots[0].PowerW, "covered run is not topped up again")
}

func TestGroupConsecutive(t *testing.T) {
	groups := groupConsecutive([]model.Quarter{
		{Hour: 2}, {Hour: 2, Minute: 15}, {Hour: 2, Minute: 30},
		{Hour: 5},
		{Hour: 23, Minute: 45}, {Hour: 0},
	})
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 3)
	assert.Len(t, groups[1], 1)
	assert.Len(t, groups[2], 2, "midnight wrap continues a run")
}
