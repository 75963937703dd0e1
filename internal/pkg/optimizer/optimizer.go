package optimizer

import (
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

// Slot budget: up to 14 regular slots, the EV top-up may grow the schedule to
// 15, the device accepts 16.
const (
	regularSlotCap = 14
	evSlotCap      = 15
)

// Net-solar gates in kWh per quarter. A quarter with meaningful expected
// surplus is not worth charging from grid (and under balanced mode not worth
// discharging either).
const (
	chargeSolarGate    = 0.025
	dischargeSolarGate = 0.125
)

// Classify buckets every quarter of the price curve into charge or discharge
// candidates according to the dispatch mode. The returned sets are disjoint:
// a quarter claimed by both resolves to charge.
func Classify(
	samples model.PriceSamples,
	solar model.SolarForecast,
	consumption model.ConsumptionProfile,
	mode model.DispatchMode,
	state model.BatteryState,
	th model.Thresholds,
) (charge, discharge []model.Quarter) {
	if len(samples) == 0 || mode == model.ModeOff {
		return nil, nil
	}
	reserve := state.EffectiveReserve()

	for _, sample := range samples {
		h := sample.Quarter.Hour
		// hourly figures spread evenly over the four quarters
		netSolar := solar[h]/4 - consumption[h]/4
		if netSolar < 0 {
			netSolar = 0
		}

		switch mode {
		case model.ModeArbitrage:
			if sample.Price <= th.LowPrice && netSolar < chargeSolarGate {
				charge = append(charge, sample.Quarter)
			} else if sample.Price >= th.HighPrice {
				discharge = append(discharge, sample.Quarter)
			}
		case model.ModeSelfConsumption:
			// never charges from grid; solar and cheap hours do that
			if sample.Price >= th.HighPrice && state.SOC > reserve+10 {
				discharge = append(discharge, sample.Quarter)
			}
		case model.ModeBalanced:
			if sample.Price <= th.LowPrice && netSolar < chargeSolarGate {
				charge = append(charge, sample.Quarter)
			} else if sample.Price >= th.HighPrice && netSolar < dischargeSolarGate {
				discharge = append(discharge, sample.Quarter)
			}
		}
	}

	windowStart := samples[0].Quarter
	charge = dedupe(charge)
	sortQuarters(charge, windowStart)

	inCharge := lo.SliceToMap(charge, func(q model.Quarter) (model.Quarter, struct{}) {
		return q, struct{}{}
	})
	discharge = lo.Filter(dedupe(discharge), func(q model.Quarter, _ int) bool {
		_, collides := inCharge[q]
		return !collides
	})
	sortQuarters(discharge, windowStart)

	return charge, discharge
}

// Compile turns the classified quarter sets into device slots: maximal
// consecutive runs, charge runs first, hard capped, with the EV overnight
// top-up appended when the EV is charging. An empty classification compiles
// to an empty schedule.
func Compile(
	charge, discharge []model.Quarter,
	samples model.PriceSamples,
	state model.BatteryState,
) []model.Slot {
	reserve := int(state.EffectiveReserve())
	slots := []model.Slot{}
	chargeRuns, dischargeRuns := groupConsecutive(charge), groupConsecutive(discharge)

	for _, run := range chargeRuns {
		if len(slots) >= regularSlotCap {
			break
		}
		slots = append(slots, model.Slot{
			Enabled: true,
			Start:   run[0],
			End:     run[len(run)-1].Next(),
			PowerW:  -state.MaxChargeW,
			MaxSOC:  95,
			MinSOC:  reserve,
		})
	}

	for _, run := range dischargeRuns {
		if len(slots) >= regularSlotCap {
			break
		}
		slots = append(slots, model.Slot{
			Enabled: true,
			Start:   run[0],
			End:     run[len(run)-1].Next(),
			PowerW:  state.MaxDischargeW,
			MaxSOC:  100,
			MinSOC:  reserve,
		})
	}

	if state.EVCharging && len(slots) < evSlotCap {
		slots = appendEVTopUp(slots, samples, state)
	}

	zap.L().Info("compiled schedule",
		zap.Int("charge_runs", len(chargeRuns)),
		zap.Int("discharge_runs", len(dischargeRuns)),
		zap.Int("slots", len(slots)))
	return slots
}

// appendEVTopUp adds charge slots over the 12 cheapest overnight quarters
// (22:00-06:00) at half charge power, so the EV reserve is available by
// morning without hogging the full grid connection.
func appendEVTopUp(slots []model.Slot, samples model.PriceSamples, state model.BatteryState) []model.Slot {
	night := lo.Filter(samples, func(s model.PriceSample, _ int) bool {
		return s.Quarter.Hour >= 22 || s.Quarter.Hour < 6
	})
	sort.SliceStable(night, func(i, j int) bool {
		return night[i].Price < night[j].Price
	})
	if len(night) > 12 {
		night = night[:12]
	}

	quarters := dedupe(lo.Map(night, func(s model.PriceSample, _ int) model.Quarter {
		return s.Quarter
	}))
	// order within the overnight window so runs can cross midnight
	sortQuarters(quarters, model.Quarter{Hour: 22})

	maxSOC := int(state.ReserveSOC + state.EVReserveSOC + 15)
	if maxSOC > 95 {
		maxSOC = 95
	}

	for _, run := range groupConsecutive(quarters) {
		if len(slots) >= evSlotCap {
			break
		}
		start := run[0]
		covered := lo.SomeBy(slots, func(s model.Slot) bool {
			return s.PowerW < 0 && s.Contains(start)
		})
		if covered {
			continue
		}
		slots = append(slots, model.Slot{
			Enabled: true,
			Start:   start,
			End:     run[len(run)-1].Next(),
			PowerW:  -(state.MaxChargeW / 2),
			MaxSOC:  maxSOC,
			MinSOC:  int(state.ReserveSOC),
		})
	}
	return slots
}
