package dispatch

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emsctl/sunpura/internal/pkg/config"
	"github.com/emsctl/sunpura/internal/pkg/forecast"
	"github.com/emsctl/sunpura/internal/pkg/model"
	"github.com/emsctl/sunpura/internal/pkg/optimizer"
	"github.com/emsctl/sunpura/internal/pkg/prices"
	"github.com/emsctl/sunpura/internal/pkg/sunpura"
)

const (
	recordCacheKey    = "schedule_record"
	homeCountCacheKey = "home_count"
	cacheTTL          = 30 * time.Second
	energyModeCustom  = 2
)

type deviceClient interface {
	ScheduleRecord(ctx context.Context, datalogSn string, energyMode int) (model.ScheduleRecord, error)
	WriteScheduleRecord(ctx context.Context, record model.ScheduleRecord) error
	HomeCountData(ctx context.Context, plantID int64, deviceSn string) (*sunpura.HomeCount, error)
}

type schedulePublisher interface {
	PublishSchedule(ctx context.Context, summary model.ScheduleSummary) error
}

// Request parametrizes one dispatch run. ExplicitSlots bypasses the pricing
// pipeline entirely (manual override). A nil ModeOverride uses the configured
// mode.
type Request struct {
	ExplicitSlots []model.Slot
	ModeOverride  *model.DispatchMode
	EVCharging    bool
	DryRun        bool
}

// Result is the outcome of a dispatch run. Payload is the full record that
// was (or on dry run, would have been) written.
type Result struct {
	SlotCount int                  `json:"applied_slot_count"`
	Payload   model.ScheduleRecord `json:"payload"`
	DryRun    bool                 `json:"dry_run"`
}

// Service runs the schedule pipeline for one device: resolve prices and
// forecasts, classify, compile, merge, write. Runs against the same device
// are serialized; the read-modify-write of the schedule record is not safe
// under concurrent callers.
type Service struct {
	device    deviceClient
	resolver  *prices.Resolver
	solar     forecast.SolarProvider
	stats     *forecast.ConsumptionStats
	publisher schedulePublisher
	cfg       *config.OptimizerConfig
	mode      model.DispatchMode
	plantID   int64
	datalogSn string
	cache     *gocache.Cache
	now       func() time.Time
	logger    *zap.Logger

	mu sync.Mutex // serializes read-modify-write per device
}

func New(
	device deviceClient,
	resolver *prices.Resolver,
	solar forecast.SolarProvider,
	stats *forecast.ConsumptionStats,
	publisher schedulePublisher,
	cfg *config.OptimizerConfig,
	mode model.DispatchMode,
	plantID int64,
	datalogSn string,
) *Service {
	return &Service{
		device:    device,
		resolver:  resolver,
		solar:     solar,
		stats:     stats,
		publisher: publisher,
		cfg:       cfg,
		mode:      mode,
		plantID:   plantID,
		datalogSn: datalogSn,
		cache:     gocache.New(cacheTTL, time.Minute),
		now:       time.Now,
		logger:    zap.L(),
	}
}

// Dispatch runs the pipeline once. With DryRun set the merged payload is
// returned without writing and without touching the record cache.
func (s *Service) Dispatch(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode := s.mode
	if req.ModeOverride != nil {
		mode = *req.ModeOverride
	}
	now := s.now()

	if mode == model.ModeOff && len(req.ExplicitSlots) == 0 {
		s.logger.Info("dispatch mode off, leaving device record untouched")
		return &Result{SlotCount: 0, DryRun: req.DryRun}, nil
	}

	record, err := s.scheduleRecord(ctx)
	if err != nil {
		return nil, err
	}
	state := s.batteryState(ctx, record, req.EVCharging)

	slots := req.ExplicitSlots
	if slots == nil {
		slots = s.computeSlots(ctx, now, mode, state)
	}

	payload, err := sunpura.MergeSchedule(record, slots, s.datalogSn, state)
	if err != nil {
		return nil, err
	}

	result := &Result{SlotCount: len(slots), Payload: payload, DryRun: req.DryRun}
	if req.DryRun {
		s.logger.Info("dry run, skipping device write", zap.Int("slots", len(slots)))
		return result, nil
	}

	if err := s.device.WriteScheduleRecord(ctx, payload); err != nil {
		return nil, err
	}
	// patch the cached record so reads before the next refresh see the new
	// slots
	cached := record.Clone()
	for k, v := range payload {
		cached[k] = v
	}
	s.cache.Set(recordCacheKey, cached, cacheTTL)

	s.logger.Info("schedule written",
		zap.String("mode", mode.String()),
		zap.Int("slots", len(slots)))
	s.publishSummary(ctx, mode, slots, req.DryRun)
	return result, nil
}

// computeSlots runs the read stages concurrently, then classifies and
// compiles. Every stage degrades instead of failing, so classification always
// starts on a complete input set.
func (s *Service) computeSlots(ctx context.Context, now time.Time, mode model.DispatchMode, state model.BatteryState) []model.Slot {
	var (
		curve       model.PriceSamples
		solar       model.SolarForecast
		consumption model.ConsumptionProfile
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		curve = s.resolver.Resolve(egctx, now)
		return nil
	})
	eg.Go(func() error {
		solar = forecast.Solar(egctx, s.solar, now)
		return nil
	})
	eg.Go(func() error {
		consumption = s.stats.Profile(egctx, now)
		return nil
	})
	_ = eg.Wait() // the stages degrade rather than error

	th := model.Thresholds{LowPrice: s.cfg.LowPriceThreshold, HighPrice: s.cfg.HighPriceThreshold}
	s.logger.Info("optimizer input",
		zap.String("mode", mode.String()),
		zap.Float64("soc", state.SOC),
		zap.Float64("effective_reserve", state.EffectiveReserve()),
		zap.Bool("ev_charging", state.EVCharging),
		zap.Int("price_quarters", len(curve)))

	charge, discharge := optimizer.Classify(curve, solar, consumption, mode, state, th)
	return optimizer.Compile(charge, discharge, curve, state)
}

// scheduleRecord reads the device record through the short-lived cache.
func (s *Service) scheduleRecord(ctx context.Context) (model.ScheduleRecord, error) {
	if cached, ok := s.cache.Get(recordCacheKey); ok {
		return cached.(model.ScheduleRecord), nil
	}
	record, err := s.device.ScheduleRecord(ctx, s.datalogSn, energyModeCustom)
	if err != nil {
		return nil, err
	}
	s.cache.Set(recordCacheKey, record, cacheTTL)
	return record, nil
}

// batteryState assembles the battery snapshot: power limits from the device's
// own configuration when present, SOC from the live energy flow, reserves
// from configuration. Telemetry being unavailable degrades to a 50% SOC
// assumption rather than blocking the run.
func (s *Service) batteryState(ctx context.Context, record model.ScheduleRecord, evCharging bool) model.BatteryState {
	state := model.BatteryState{
		SOC:           50,
		MaxChargeW:    s.cfg.DefaultChargeW,
		MaxDischargeW: s.cfg.DefaultDischargeW,
		ReserveSOC:    s.cfg.ReserveSOC,
		EVReserveSOC:  s.cfg.EVReserveSOC,
		EVCharging:    evCharging,
	}
	if w, ok := record.Int("maxChargePower"); ok && w > 0 {
		state.MaxChargeW = w
	}
	if w, ok := record.Int("maxFeedPower"); ok && w > 0 {
		state.MaxDischargeW = w
	}

	home, err := s.homeCount(ctx)
	if err != nil {
		s.logger.Warn("live telemetry unavailable, assuming 50% SOC", zap.Error(err))
		return state
	}
	state.SOC = home.BatSoc
	return state
}

func (s *Service) homeCount(ctx context.Context) (*sunpura.HomeCount, error) {
	if cached, ok := s.cache.Get(homeCountCacheKey); ok {
		return cached.(*sunpura.HomeCount), nil
	}
	home, err := s.device.HomeCountData(ctx, s.plantID, s.datalogSn)
	if err != nil {
		return nil, err
	}
	s.cache.Set(homeCountCacheKey, home, cacheTTL)
	return home, nil
}

func (s *Service) publishSummary(ctx context.Context, mode model.DispatchMode, slots []model.Slot, dryRun bool) {
	if s.publisher == nil {
		return
	}
	summary := model.ScheduleSummary{
		Mode:      mode.String(),
		SlotCount: len(slots),
		DryRun:    dryRun,
		Slots: lo.Map(slots, func(slot model.Slot, _ int) string {
			return sunpura.EncodeSlot(slot)
		}),
	}
	if err := s.publisher.PublishSchedule(ctx, summary); err != nil {
		s.logger.Warn("could not publish schedule summary", zap.Error(err))
	}
}
