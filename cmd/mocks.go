package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/emsctl/sunpura/internal/pkg/dispatch"
	"github.com/emsctl/sunpura/internal/pkg/prices"
)

// MockDispatcher is a function-field mock of the Dispatcher interface.
type MockDispatcher struct {
	DispatchFunc func(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
}

func (m *MockDispatcher) Dispatch(ctx context.Context, req dispatch.Request) (*dispatch.Result, error) {
	if m.DispatchFunc != nil {
		return m.DispatchFunc(ctx, req)
	}
	return nil, errors.New("mocked Dispatch not implemented")
}

// MockPriceStore is a function-field mock of the PriceStore interface.
type MockPriceStore struct {
	ReplacePriceCurveFunc func(ctx context.Context, source string, intervals []prices.Interval) error
	CleanupFunc           func(ctx context.Context) error
}

func (m *MockPriceStore) ReplacePriceCurve(ctx context.Context, source string, intervals []prices.Interval) error {
	if m.ReplacePriceCurveFunc != nil {
		return m.ReplacePriceCurveFunc(ctx, source, intervals)
	}
	return errors.New("mocked ReplacePriceCurve not implemented")
}

func (m *MockPriceStore) Cleanup(ctx context.Context) error {
	if m.CleanupFunc != nil {
		return m.CleanupFunc(ctx)
	}
	return errors.New("mocked Cleanup not implemented")
}

// MockSource is a function-field mock of the prices.Source interface.
type MockSource struct {
	SourceName    string
	IntervalsFunc func(ctx context.Context, now time.Time) ([]prices.Interval, error)
}

func (m *MockSource) Name() string {
	return m.SourceName
}

func (m *MockSource) Intervals(ctx context.Context, now time.Time) ([]prices.Interval, error) {
	if m.IntervalsFunc != nil {
		return m.IntervalsFunc(ctx, now)
	}
	return nil, errors.New("mocked Intervals not implemented")
}
