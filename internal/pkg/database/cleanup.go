package database

import (
	"context"
	"time"
)

// Cleanup removes telemetry older than a week and price curves older than two
// days.
func (db *Database) Cleanup(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, "DELETE FROM Property WHERE time_stamp < $1", time.Now().AddDate(0, 0, -8)); err != nil {
		return err
	}
	if _, err := db.pool.Exec(ctx, "DELETE FROM PriceCurve WHERE created_at < $1", time.Now().AddDate(0, 0, -2)); err != nil {
		return err
	}
	return nil
}
