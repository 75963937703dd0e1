package model

// PriceSample is one quarter of the resolved price curve, in EUR/kWh.
type PriceSample struct {
	Quarter Quarter `json:"quarter"`
	Price   float64 `json:"price"`
}

type PriceSamples []PriceSample

// SolarForecast maps hour-of-day to expected production in kWh. Sparse;
// missing hours mean zero production.
type SolarForecast map[int]float64

// ConsumptionProfile holds the average household consumption in kWh for each
// hour of the day.
type ConsumptionProfile [24]float64

// FlatConsumption returns a profile with the same value for every hour.
func FlatConsumption(kwh float64) ConsumptionProfile {
	var p ConsumptionProfile
	for h := range p {
		p[h] = kwh
	}
	return p
}

// Thresholds are the price levels separating cheap and expensive quarters.
type Thresholds struct {
	LowPrice  float64
	HighPrice float64
}

// BatteryState is the battery snapshot a dispatch run operates on.
type BatteryState struct {
	SOC           float64
	MaxChargeW    int
	MaxDischargeW int
	ReserveSOC    float64
	EVReserveSOC  float64
	EVCharging    bool
}

// EffectiveReserve is the SOC floor for the current run. While the EV charges
// the EV reserve is stacked on top of the configured reserve.
func (b BatteryState) EffectiveReserve() float64 {
	if b.EVCharging {
		return b.ReserveSOC + b.EVReserveSOC
	}
	return b.ReserveSOC
}
