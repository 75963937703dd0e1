package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emsctl/sunpura/internal/pkg/forecast"
	"github.com/emsctl/sunpura/internal/pkg/model"
	"github.com/emsctl/sunpura/internal/pkg/sunpura"
)

func TestFlatten(t *testing.T) {
	data := &sunpura.HomeCount{
		SolarPower: 1400,
		GridPower:  -200,
		BatPower:   300,
		HomePower:  900,
		LoadPower:  900,
		BatSoc:     73.5,
		PVPowerMap: map[string]float64{"pv2": 700, "pv1": 700},
		BatDataMap: map[string]any{"temp": 21.5, "label": "ok"},
	}

	values := Flatten(data)
	bySlug := map[string]model.SensorValue{}
	for _, v := range values {
		bySlug[v.Slug] = v
	}

	assert.Equal(t, "1400", bySlug["solar-power"].Value)
	assert.Equal(t, "W", bySlug["solar-power"].Unit)
	assert.Equal(t, "-200", bySlug["grid-power"].Value)
	assert.Equal(t, "73.5", bySlug["battery-soc"].Value)
	assert.Equal(t, "%", bySlug["battery-soc"].Unit)
	assert.Equal(t, "700", bySlug["pv-pv1-power"].Value)
	assert.Equal(t, "21.5", bySlug["battery-temp"].Value)
	assert.NotContains(t, bySlug, "battery-label", "non-numeric battery data is skipped")

	// map iteration must not leak into output order
	require.Greater(t, len(values), 6)
	pvIdx1, pvIdx2 := -1, -1
	for i, v := range values {
		if v.Slug == "pv-pv1-power" {
			pvIdx1 = i
		}
		if v.Slug == "pv-pv2-power" {
			pvIdx2 = i
		}
	}
	assert.Less(t, pvIdx1, pvIdx2, "pv strings are emitted in sorted order")
}

func TestFlatten_EmitsConsumptionSlugs(t *testing.T) {
	values := Flatten(&sunpura.HomeCount{HomePower: 900, LoadPower: 850})
	stored := map[string]struct{}{}
	for _, v := range values {
		stored[v.Slug] = struct{}{}
	}

	for _, consumptionSlug := range forecast.ConsumptionSlugs() {
		assert.Contains(t, stored, consumptionSlug,
			"consumption statistics read slug %q, the poller must write it", consumptionSlug)
	}
}
