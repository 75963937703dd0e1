package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/emsctl/sunpura/internal/pkg/model"
	"github.com/emsctl/sunpura/internal/pkg/prices"
)

// MeanByHourOfDay averages the stored readings for a slug per hour of day
// since the given time. Readings are watts; the mean is scaled to kWh per
// hour.
func (db *Database) MeanByHourOfDay(ctx context.Context, slug string, since time.Time) (map[int]float64, error) {
	const query = `
	SELECT extract(hour FROM time_stamp)::int AS hour, avg(value::float) / 1000
	FROM Property
	WHERE slug = $1 AND time_stamp >= $2
	GROUP BY hour;
	`

	rows, err := db.pool.Query(ctx, query, slug, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	means := map[int]float64{}
	for rows.Next() {
		var hour int
		var mean float64
		if err := rows.Scan(&hour, &mean); err != nil {
			return nil, err
		}
		means[hour] = mean
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return means, nil
}

// GetLatestPriceCurve returns the most recently stored curve, whichever
// source wrote it.
func (db *Database) GetLatestPriceCurve(ctx context.Context) ([]prices.StoredPrice, error) {
	const query = `
	SELECT start_time, duration_minutes, price
	FROM PriceCurve
	WHERE source = (
		SELECT source FROM PriceCurve ORDER BY created_at DESC LIMIT 1
	)
	ORDER BY start_time ASC;
	`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var curve []prices.StoredPrice
	for rows.Next() {
		var stored prices.StoredPrice
		var minutes int
		if err := rows.Scan(&stored.StartTime, &minutes, &stored.Price); err != nil {
			return nil, err
		}
		stored.Duration = time.Duration(minutes) * time.Minute
		curve = append(curve, stored)
	}
	if err := rows.Err(); err != nil {
		if err == pgx.ErrNoRows {
			return curve, nil
		}
		return nil, err
	}
	return curve, nil
}

func (db *Database) GetLatestProperties(ctx context.Context) (model.Properties, error) {
	const query = `
	SELECT DISTINCT ON (slug) id, time_stamp, unit_of_measurement, value, identifier, slug
	FROM Property
	ORDER BY slug, time_stamp DESC;
	`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProperties(rows)
}

func (db *Database) GetProperties(ctx context.Context, identifier, slug string, from, to *time.Time) (model.Properties, error) {
	if from == nil || to == nil {
		f := time.Now().AddDate(0, 0, -2)
		t := time.Now()
		from, to = &f, &t
	}
	const query = `
	SELECT id, time_stamp, unit_of_measurement, value, identifier, slug
	FROM Property
	WHERE identifier = $1 AND slug = $2 AND time_stamp BETWEEN $3 AND $4
	ORDER BY time_stamp DESC;
	`

	rows, err := db.pool.Query(ctx, query, identifier, slug, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProperties(rows)
}

func scanProperties(rows pgx.Rows) (model.Properties, error) {
	var properties model.Properties
	for rows.Next() {
		var property model.Property
		if err := rows.Scan(&property.Id, &property.TimeStamp, &property.Unit, &property.Value, &property.Identifier, &property.Slug); err != nil {
			return nil, err
		}
		properties = append(properties, property)
	}

	if err := rows.Err(); err != nil {
		if err == pgx.ErrNoRows {
			return properties, nil
		}
		return nil, err
	}

	return properties, nil
}
