package telemetry

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/emsctl/sunpura/internal/pkg/model"
	"github.com/emsctl/sunpura/internal/pkg/sunpura"
)

type homeCountClient interface {
	HomeCountData(ctx context.Context, plantID int64, deviceSn string) (*sunpura.HomeCount, error)
}

type sensorPublisher interface {
	PublishSensors(ctx context.Context, device model.Device, values []model.SensorValue) error
	RegisterDevice(device model.Device) error
}

type sensorStore interface {
	WriteSensors(ctx context.Context, device model.Device, values []model.SensorValue) error
}

// Poller reads plant telemetry on an interval and fans it out to the
// publisher registry and the statistics store.
type Poller struct {
	client    homeCountClient
	publisher sensorPublisher
	store     sensorStore
	plantID   int64
	deviceSn  string
	interval  time.Duration
	logger    *zap.Logger
}

func NewPoller(client homeCountClient, pub sensorPublisher, store sensorStore, plantID int64, deviceSn string, interval time.Duration) *Poller {
	return &Poller{
		client:    client,
		publisher: pub,
		store:     store,
		plantID:   plantID,
		deviceSn:  deviceSn,
		interval:  interval,
		logger:    zap.L(),
	}
}

// Run polls until the context is cancelled. A failed poll is logged and the
// next tick tries again.
func (p *Poller) Run(ctx context.Context) error {
	device := model.Device{
		ID:           p.deviceSn,
		Model:        "sunpura",
		SerialNumber: p.deviceSn,
	}
	if err := p.publisher.RegisterDevice(device); err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if err := p.poll(ctx, device); err != nil {
			p.logger.Error("telemetry poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context, device model.Device) error {
	data, err := p.client.HomeCountData(ctx, p.plantID, p.deviceSn)
	if err != nil {
		return err
	}
	values := Flatten(data)
	if p.store != nil {
		if err := p.store.WriteSensors(ctx, device, values); err != nil {
			p.logger.Error("failed to persist sensors", zap.Error(err))
		}
	}
	return p.publisher.PublishSensors(ctx, device, values)
}

// Flatten turns a HomeCountData response into sensor values, expanding the
// per-string PV and battery maps.
func Flatten(data *sunpura.HomeCount) []model.SensorValue {
	values := []model.SensorValue{
		powerValue("Solar Power", data.SolarPower),
		powerValue("Grid Power", data.GridPower),
		powerValue("Battery Power", data.BatPower),
		powerValue("Home Power", data.HomePower),
		powerValue("Load Power", data.LoadPower),
		{
			Name:  "Battery SOC",
			Slug:  slug.Make("Battery SOC"),
			Value: formatFloat(data.BatSoc),
			Unit:  "%",
		},
	}

	for _, key := range sortedKeys(data.PVPowerMap) {
		values = append(values, powerValue(fmt.Sprintf("PV %s Power", key), data.PVPowerMap[key]))
	}
	for _, key := range sortedKeys(data.BatDataMap) {
		value, ok := data.BatDataMap[key].(float64)
		if !ok {
			continue
		}
		values = append(values, model.SensorValue{
			Name:  fmt.Sprintf("Battery %s", key),
			Slug:  slug.Make(fmt.Sprintf("Battery %s", key)),
			Value: formatFloat(value),
		})
	}
	return values
}

func powerValue(name string, value float64) model.SensorValue {
	return model.SensorValue{
		Name:  name,
		Slug:  slug.Make(name),
		Value: formatFloat(value),
		Unit:  "W",
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
