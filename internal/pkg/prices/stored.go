package prices

import (
	"context"
	"time"
)

// priceStore is the slice of the database the stored source needs.
type priceStore interface {
	GetLatestPriceCurve(ctx context.Context) ([]StoredPrice, error)
}

// StoredPrice is a persisted curve point as written by the price refresh job.
type StoredPrice struct {
	StartTime time.Time
	Duration  time.Duration
	Price     float64
}

// StoredSource serves the most recently persisted curve. Ranked after the
// live sources it bridges short provider outages between refresh runs.
type StoredSource struct {
	store priceStore
}

func NewStoredSource(store priceStore) *StoredSource {
	return &StoredSource{store: store}
}

func (s *StoredSource) Name() string { return "stored" }

func (s *StoredSource) Intervals(ctx context.Context, now time.Time) ([]Interval, error) {
	rows, err := s.store.GetLatestPriceCurve(ctx)
	if err != nil {
		return nil, err
	}
	intervals := make([]Interval, 0, len(rows))
	for _, row := range rows {
		intervals = append(intervals, Interval{
			Start:    row.StartTime.In(now.Location()),
			Duration: row.Duration,
			Price:    row.Price,
		})
	}
	return intervals, nil
}
