package database

import (
	"context"
	"time"

	"github.com/emsctl/sunpura/internal/pkg/model"
	"github.com/emsctl/sunpura/internal/pkg/prices"
)

func (db *Database) WriteSensors(ctx context.Context, device model.Device, values []model.SensorValue) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for _, value := range values {
		if _, err := tx.Exec(ctx, `
			INSERT INTO Property (time_stamp, unit_of_measurement, value, identifier, slug)
			VALUES ($1, $2, $3, $4, $5)
		`, now, value.Unit, value.Value, device.SerialNumber, value.Slug); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ReplacePriceCurve swaps the stored curve for the given source. The curve is
// replaced wholesale so stale intervals from a previous fetch never linger.
func (db *Database) ReplacePriceCurve(ctx context.Context, source string, intervals []prices.Interval) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM PriceCurve WHERE source = $1", source); err != nil {
		return err
	}
	for _, interval := range intervals {
		if _, err := tx.Exec(ctx, `
			INSERT INTO PriceCurve (source, start_time, duration_minutes, price, created_at)
			VALUES ($1, $2, $3, $4, now())
		`, source, interval.Start, int(interval.Duration.Minutes()), interval.Price); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
