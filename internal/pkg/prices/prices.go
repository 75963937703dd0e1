package prices

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

const maxQuarters = 96 // 24h at 15-minute resolution

// Interval is a provider-native price sample: a start timestamp in local wall
// clock, the period it covers, and the price in EUR/kWh.
type Interval struct {
	Start    time.Time
	Duration time.Duration
	Price    float64
}

// Source is one ranked price provider.
type Source interface {
	Name() string
	Intervals(ctx context.Context, now time.Time) ([]Interval, error)
}

// Resolver walks its sources in priority order and returns the first curve
// that yields data. Sources are never merged. When everything fails it falls
// back to a flat price so the pipeline always has a curve to classify.
type Resolver struct {
	sources       []Source
	fallbackPrice float64
	timeout       time.Duration
	logger        *zap.Logger
}

func NewResolver(fallbackPrice float64, timeout time.Duration, sources ...Source) *Resolver {
	return &Resolver{
		sources:       sources,
		fallbackPrice: fallbackPrice,
		timeout:       timeout,
		logger:        zap.L(),
	}
}

// Resolve returns an ordered curve of up to 96 quarter samples starting at the
// current quarter. It never fails; lack of price data degrades to the flat
// fallback curve.
func (r *Resolver) Resolve(ctx context.Context, now time.Time) model.PriceSamples {
	for _, src := range r.sources {
		sctx, cancel := context.WithTimeout(ctx, r.timeout)
		intervals, err := src.Intervals(sctx, now)
		cancel()
		if err != nil {
			r.logger.Warn("price source failed", zap.String("source", src.Name()), zap.Error(err))
			continue
		}
		samples := Normalize(intervals, now)
		if len(samples) == 0 {
			continue
		}
		r.logger.Debug("resolved prices",
			zap.String("source", src.Name()),
			zap.Int("quarters", len(samples)))
		return samples
	}

	r.logger.Warn("no price data from any source, using flat fallback",
		zap.Float64("price", r.fallbackPrice))
	return Flat(r.fallbackPrice, now)
}

// Normalize converts provider intervals to the quarter grid: hourly intervals
// expand into four identical quarters, samples older than one quarter before
// now are dropped, and the curve is capped at 96 quarters.
func Normalize(intervals []Interval, now time.Time) model.PriceSamples {
	stale := now.Add(-15 * time.Minute)
	samples := make(model.PriceSamples, 0, maxQuarters)
	for _, iv := range intervals {
		quarters := 1
		if iv.Duration >= time.Hour {
			quarters = 4
		}
		start := iv.Start
		for i := 0; i < quarters; i++ {
			t := start.Add(time.Duration(i) * 15 * time.Minute)
			if t.Before(stale) {
				continue
			}
			if len(samples) >= maxQuarters {
				return samples
			}
			samples = append(samples, model.PriceSample{
				Quarter: model.QuarterOf(t),
				Price:   iv.Price,
			})
		}
	}
	return samples
}

// Flat builds a constant-price curve of 96 quarters starting at now's quarter.
func Flat(price float64, now time.Time) model.PriceSamples {
	samples := make(model.PriceSamples, 0, maxQuarters)
	q := model.QuarterOf(now)
	for i := 0; i < maxQuarters; i++ {
		samples = append(samples, model.PriceSample{Quarter: q, Price: price})
		q = q.Next()
	}
	return samples
}
