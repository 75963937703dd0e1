package cmd

import (
	"context"
	"errors"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emsctl/sunpura/internal/pkg/config"
	"github.com/emsctl/sunpura/internal/pkg/database"
	"github.com/emsctl/sunpura/internal/pkg/database/migration"
	"github.com/emsctl/sunpura/internal/pkg/dispatch"
	"github.com/emsctl/sunpura/internal/pkg/forecast"
	"github.com/emsctl/sunpura/internal/pkg/model"
	"github.com/emsctl/sunpura/internal/pkg/mqtt"
	"github.com/emsctl/sunpura/internal/pkg/prices"
	"github.com/emsctl/sunpura/internal/pkg/publisher"
	"github.com/emsctl/sunpura/internal/pkg/server"
	"github.com/emsctl/sunpura/internal/pkg/sunpura"
	"github.com/emsctl/sunpura/internal/pkg/telemetry"
)

func ControllerCommand(ctx *cli.Context) error {
	cfg := &config.Config{
		CloudCfg: &config.CloudConfig{
			Email:        ctx.String("cloud-email"),
			Password:     ctx.String("cloud-password"),
			PlantID:      ctx.Int64("plant-id"),
			PollInterval: ctx.Duration("poll-interval"),
		},
		PriceCfg: &config.PriceConfig{
			TibberToken:  ctx.String("tibber-token"),
			EntsoeToken:  ctx.String("entsoe-token"),
			EntsoeDomain: ctx.String("entsoe-domain"),
			NordpoolArea: ctx.String("nordpool-area"),
		},
		MqttCfg: &config.MqttConfig{
			Host:     ctx.String("mqtt-host"),
			Username: ctx.String("mqtt-user"),
			Password: ctx.String("mqtt-pass"),
		},
		DatabaseURL:  ctx.String("database-url"),
		Migrations:   ctx.String("migrations-folder"),
		Mode:         ctx.String("mode"),
		DispatchCron: ctx.String("dispatch-cron"),
		DryRun:       ctx.Bool("dry-run"),
		EVCharging:   ctx.Bool("ev-charging"),
		ListenAddr:   ctx.String("listen-addr"),
		APITokenHash: ctx.String("api-token-hash"),
		LogLevel:     ctx.String("log-level"),
	}

	var err error
	if cfg.Optimizer, err = config.OptimizerFromEnv(); err != nil {
		return err
	}
	if cfg.Solar, err = config.SolarFromEnv(); err != nil {
		return err
	}

	return run(ctx.Context, cfg)
}

func run(ctx context.Context, cfg *config.Config) error {
	errorChan := make(chan error, 1000)
	var err error

	eg, ctx := errgroup.WithContext(ctx)
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)))
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	mode, err := model.ParseDispatchMode(cfg.Mode)
	if err != nil {
		return err
	}

	if err := migration.Migrate(cfg.DatabaseURL, cfg.Migrations); err != nil {
		return err
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	db := database.NewDatabase(pool)
	defer db.Close()

	registry := publisher.NewRegistry()
	if cfg.MqttCfg.Host != "" {
		opts := paho_mqtt.NewClientOptions().
			AddBroker(cfg.MqttCfg.Host).
			SetUsername(cfg.MqttCfg.Username).
			SetPassword(cfg.MqttCfg.Password).
			SetClientID("sunpura-controller")
		mqttSvc := mqtt.New(paho_mqtt.NewClient(opts))
		if err := mqttSvc.Connect(); err != nil {
			return err
		}
		if err := registry.Register("mqtt", mqttSvc); err != nil {
			return err
		}
	}

	client := sunpura.NewClient(cfg.CloudCfg.Email, cfg.CloudCfg.Password)
	if err := client.Login(ctx); err != nil {
		return err
	}
	plantID := cfg.CloudCfg.PlantID
	if plantID == 0 {
		plants, err := client.PlantList(ctx)
		if err != nil {
			return err
		}
		if len(plants) == 0 {
			return errors.New("no plants registered for account")
		}
		plantID = plants[0].ID
	}
	datalogSn, err := client.MainControlDevice(ctx, plantID)
	if err != nil {
		return err
	}
	logger.Info("controlling plant", zap.Int64("plant_id", plantID), zap.String("datalog_sn", datalogSn))

	sources := []prices.Source{}
	if cfg.PriceCfg.EntsoeToken != "" {
		sources = append(sources, prices.NewEntsoeSource(cfg.PriceCfg.EntsoeToken, cfg.PriceCfg.EntsoeDomain))
	}
	if cfg.PriceCfg.TibberToken != "" {
		sources = append(sources, prices.NewTibberSource(cfg.PriceCfg.TibberToken))
	}
	if cfg.PriceCfg.NordpoolArea != "" {
		sources = append(sources, prices.NewNordpoolSource(cfg.PriceCfg.NordpoolArea))
	}
	stored := prices.NewStoredSource(db)
	resolver := prices.NewResolver(cfg.Optimizer.FallbackPrice, cfg.Optimizer.SourceTimeout, append(sources, stored)...)

	var solarProvider forecast.SolarProvider
	if cfg.Solar.Configured() {
		solarProvider = forecast.NewForecastSolar(cfg.Solar.Latitude, cfg.Solar.Longitude, cfg.Solar.Declination, cfg.Solar.Azimuth, cfg.Solar.KWP)
	}
	stats := forecast.NewConsumptionStats(db, cfg.Optimizer.DefaultConsumption)

	dispatcher := dispatch.New(client, resolver, solarProvider, stats, registry, cfg.Optimizer, mode, plantID, datalogSn)

	eg.Go(func() error {
		return cronJobs(ctx, cfg, db, dispatcher, sources, errorChan)
	})

	poller := telemetry.NewPoller(client, registry, db, plantID, datalogSn, cfg.CloudCfg.PollInterval)
	eg.Go(func() error {
		return poller.Run(ctx)
	})

	eg.Go(func() error {
		srv := server.NewHTTPServer(cfg.ListenAddr, server.New(dispatcher, client, resolver, db, datalogSn, cfg.APITokenHash))
		return srv.ListenAndServe()
	})

	eg.Go(func() error {
		// handle any async errors from cron jobs
		for {
			select {
			case err := <-errorChan:
				if errors.Is(err, errCron) {
					logger.Error("cron error", zap.Error(err))
					return err
				}
			case <-ctx.Done():
				logger.Info("context done")
				return ctx.Err()
			}
		}
	})

	return eg.Wait()
}

var errCron = errors.New("cron error")

// scheduledRequest builds the request for timer-driven runs. The EV hint comes
// from configuration so overnight top-ups happen without a manual API call.
func scheduledRequest(cfg *config.Config) dispatch.Request {
	return dispatch.Request{
		DryRun:     cfg.DryRun,
		EVCharging: cfg.EVCharging,
	}
}

// cronJobs runs the periodic work: dispatch on the configured schedule, a price
// curve refresh every half hour, and a nightly cleanup.
func cronJobs(ctx context.Context, cfg *config.Config, db PriceStore, dispatcher Dispatcher, sources []prices.Source, errChan chan error) error {
	c := cron.New()

	if _, err := c.AddFunc(cfg.DispatchCron, func() {
		if _, err := dispatcher.Dispatch(ctx, scheduledRequest(cfg)); err != nil {
			zap.L().Error("scheduled dispatch failed", zap.Error(err))
			errChan <- errCron
		}
	}); err != nil {
		return err
	}

	if _, err := c.AddFunc("*/30 * * * *", func() {
		refreshPriceCurve(ctx, db, sources)
	}); err != nil {
		return err
	}

	if _, err := c.AddFunc("0 3 * * *", func() {
		if err := db.Cleanup(context.Background()); err != nil {
			zap.L().Error("error cleaning up database", zap.Error(err))
			errChan <- errCron
		}
	}); err != nil {
		return err
	}

	refreshPriceCurve(ctx, db, sources)

	c.Start()
	<-ctx.Done()
	c.Stop()
	return ctx.Err()
}

// refreshPriceCurve persists the first live curve so the stored source has
// something to serve when the upstreams are down.
func refreshPriceCurve(ctx context.Context, db PriceStore, sources []prices.Source) {
	for _, source := range sources {
		fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		intervals, err := source.Intervals(fetchCtx, time.Now())
		cancel()
		if err != nil || len(intervals) == 0 {
			continue
		}
		if err := db.ReplacePriceCurve(ctx, source.Name(), intervals); err != nil {
			zap.L().Error("failed to store price curve", zap.Error(err), zap.String("source", source.Name()))
			return
		}
		zap.L().Info("stored price curve", zap.String("source", source.Name()), zap.Int("intervals", len(intervals)))
		return
	}
}
