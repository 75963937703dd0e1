package forecast

import (
	"context"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

// Telemetry slugs that carry the household load, in preference order. Derived
// with the same slugifier the poller stores under so the two stay in sync.
var consumptionSlugs = []string{slug.Make("Home Power"), slug.Make("Load Power")}

// ConsumptionSlugs returns the telemetry slugs the profile is computed from.
func ConsumptionSlugs() []string {
	return append([]string(nil), consumptionSlugs...)
}

const consumptionWindowDays = 30

// statsStore is the slice of the database the consumption profile needs.
type statsStore interface {
	MeanByHourOfDay(ctx context.Context, slug string, since time.Time) (map[int]float64, error)
}

// ConsumptionStats derives the average consumption per hour-of-day from the
// trailing 30 days of telemetry.
type ConsumptionStats struct {
	store      statsStore
	defaultKWH float64
	logger     *zap.Logger
}

func NewConsumptionStats(store statsStore, defaultKWH float64) *ConsumptionStats {
	return &ConsumptionStats{
		store:      store,
		defaultKWH: defaultKWH,
		logger:     zap.L(),
	}
}

// Profile never fails: an unavailable store or empty history degrades to the
// flat default profile, hours without data points keep the default.
func (c *ConsumptionStats) Profile(ctx context.Context, now time.Time) model.ConsumptionProfile {
	profile := model.FlatConsumption(c.defaultKWH)
	if c.store == nil {
		return profile
	}
	since := now.AddDate(0, 0, -consumptionWindowDays)
	for _, sensorSlug := range consumptionSlugs {
		means, err := c.store.MeanByHourOfDay(ctx, sensorSlug, since)
		if err != nil {
			c.logger.Warn("could not load consumption history", zap.String("slug", sensorSlug), zap.Error(err))
			return profile
		}
		if len(means) == 0 {
			continue
		}
		for hour, kwh := range means {
			if hour >= 0 && hour < 24 {
				profile[hour] = kwh
			}
		}
		c.logger.Debug("consumption profile from history",
			zap.String("slug", sensorSlug), zap.Int("hours", len(means)))
		return profile
	}
	c.logger.Debug("no consumption history, using default profile",
		zap.Float64("kwh_per_hour", c.defaultKWH))
	return profile
}
