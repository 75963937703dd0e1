package forecast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

var testNow = time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

func TestForecastSolar_SumsPeriodsIntoHours(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/estimate/52.0000/4.9000/30/0/5")
		w.Write([]byte(`{"result":{"watt_hours_period":{
			"2026-03-01 10:30:00": 400,
			"2026-03-01 10:45:00": 350,
			"2026-03-01 11:00:00": 500
		}}}`))
	}))
	defer srv.Close()

	f := NewForecastSolar(52, 4.9, 30, 0, 5)
	f.baseURL = srv.URL

	forecast, err := f.HourlyForecast(context.Background(), testNow)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, forecast[10], 1e-9)
	assert.InDelta(t, 0.5, forecast[11], 1e-9)
	assert.Zero(t, forecast[12])
}

func TestForecastSolar_ErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewForecastSolar(52, 4.9, 30, 0, 5)
	f.baseURL = srv.URL

	_, err := f.HourlyForecast(context.Background(), testNow)
	assert.Error(t, err)
}

type failingProvider struct{}

func (failingProvider) HourlyForecast(ctx context.Context, now time.Time) (model.SolarForecast, error) {
	return nil, errors.New("unreachable")
}

func TestSolar_DegradesToZeroProfile(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Solar(context.Background(), nil, testNow))
	assert.Empty(t, Solar(context.Background(), failingProvider{}, testNow))
}

type fakeStatsStore struct {
	means map[string]map[int]float64
	err   error
}

func (f *fakeStatsStore) MeanByHourOfDay(ctx context.Context, slug string, since time.Time) (map[int]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.means[slug], nil
}

func TestConsumptionProfile_FromHistory(t *testing.T) {
	t.Parallel()
	store := &fakeStatsStore{means: map[string]map[int]float64{
		"home-power": {8: 0.8, 19: 1.4},
	}}
	stats := NewConsumptionStats(store, 0.5)

	profile := stats.Profile(context.Background(), testNow)
	assert.Equal(t, 0.8, profile[8])
	assert.Equal(t, 1.4, profile[19])
	assert.Equal(t, 0.5, profile[3], "hours without history keep the default")
}

func TestConsumptionProfile_FallsBackToSecondSlug(t *testing.T) {
	t.Parallel()
	store := &fakeStatsStore{means: map[string]map[int]float64{
		"load-power": {12: 0.9},
	}}
	stats := NewConsumptionStats(store, 0.5)

	profile := stats.Profile(context.Background(), testNow)
	assert.Equal(t, 0.9, profile[12])
}

func TestConsumptionProfile_DefaultOnErrorOrNilStore(t *testing.T) {
	t.Parallel()
	stats := NewConsumptionStats(&fakeStatsStore{err: errors.New("db down")}, 0.5)
	assert.Equal(t, model.FlatConsumption(0.5), stats.Profile(context.Background(), testNow))

	stats = NewConsumptionStats(nil, 0.5)
	assert.Equal(t, model.FlatConsumption(0.5), stats.Profile(context.Background(), testNow))
}
