package cmd

import (
	"context"

	"github.com/emsctl/sunpura/internal/pkg/dispatch"
	"github.com/emsctl/sunpura/internal/pkg/prices"
)

// Dispatcher is what the cron wiring needs from the dispatch service.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
}

// PriceStore is what the cron wiring needs from the database.
type PriceStore interface {
	ReplacePriceCurve(ctx context.Context, source string, intervals []prices.Interval) error
	Cleanup(ctx context.Context) error
}
