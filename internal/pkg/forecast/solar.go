package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

const forecastSolarBaseURL = "https://api.forecast.solar"

// SolarProvider yields the expected production per hour-of-day.
type SolarProvider interface {
	HourlyForecast(ctx context.Context, now time.Time) (model.SolarForecast, error)
}

// ForecastSolar reads the public forecast.solar estimate endpoint for a single
// plane. Sub-hour periods are summed into their hour.
type ForecastSolar struct {
	client      *http.Client
	baseURL     string
	latitude    float64
	longitude   float64
	declination float64
	azimuth     float64
	peakKWP     float64
}

func NewForecastSolar(lat, lon, dec, az, kwp float64) *ForecastSolar {
	return &ForecastSolar{
		client:      &http.Client{Timeout: 15 * time.Second},
		baseURL:     forecastSolarBaseURL,
		latitude:    lat,
		longitude:   lon,
		declination: dec,
		azimuth:     az,
		peakKWP:     kwp,
	}
}

type forecastSolarResponse struct {
	Result struct {
		WattHoursPeriod map[string]float64 `json:"watt_hours_period"`
	} `json:"result"`
}

func (f *ForecastSolar) HourlyForecast(ctx context.Context, now time.Time) (model.SolarForecast, error) {
	url := fmt.Sprintf("%s/estimate/%.4f/%.4f/%g/%g/%g",
		f.baseURL, f.latitude, f.longitude, f.declination, f.azimuth, f.peakKWP)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast.solar: status %d", resp.StatusCode)
	}

	out := forecastSolarResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("forecast.solar: decode: %w", err)
	}

	forecast := model.SolarForecast{}
	for period, wh := range out.Result.WattHoursPeriod {
		t, err := time.ParseInLocation("2006-01-02 15:04:05", period, now.Location())
		if err != nil {
			continue
		}
		forecast[t.Hour()] += wh / 1000
	}
	return forecast, nil
}

// Solar wraps a provider with the degrade-and-continue contract: a failing or
// absent provider yields an all-zero profile, never an error.
func Solar(ctx context.Context, provider SolarProvider, now time.Time) model.SolarForecast {
	if provider == nil {
		return model.SolarForecast{}
	}
	forecast, err := provider.HourlyForecast(ctx, now)
	if err != nil {
		zap.L().Warn("solar forecast unavailable, assuming zero production", zap.Error(err))
		return model.SolarForecast{}
	}
	return forecast
}
