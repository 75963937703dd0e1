package publisher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

var ErrAlreadyRegistered = errors.New("publisher already registered")

// Publisher is one sink for telemetry and schedule results.
type Publisher interface {
	PublishSensors(ctx context.Context, device model.Device, values []model.SensorValue) error
	PublishSchedule(ctx context.Context, summary model.ScheduleSummary) error
	RegisterDevice(device model.Device) error
}

// Registry fans out to its registered publishers. It is owned by the command
// wiring and injected where needed; a failing sink is logged and skipped so
// one broken adapter never blocks the others.
type Registry struct {
	mu         sync.Mutex
	publishers map[string]Publisher
	sensors    sync.Map // change suppression per device+slug
	logger     *zap.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		publishers: make(map[string]Publisher),
		logger:     zap.L(),
	}
}

func (r *Registry) Register(name string, p Publisher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.publishers[name]; ok {
		return ErrAlreadyRegistered
	}
	r.publishers[name] = p
	return nil
}

// PublishSensors forwards the values whose state changed since the last
// publication.
func (r *Registry) PublishSensors(ctx context.Context, device model.Device, values []model.SensorValue) error {
	changed := make([]model.SensorValue, 0, len(values))
	for _, v := range values {
		if r.shouldUpdate(device, v) {
			changed = append(changed, v)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	for name, p := range r.snapshot() {
		if err := p.PublishSensors(ctx, device, changed); err != nil {
			r.logger.Error("failed to publish sensors", zap.Error(err), zap.String("publisher", name))
			continue
		}
		r.logger.Debug("published sensors", zap.Int("count", len(changed)), zap.String("publisher", name))
	}
	return nil
}

func (r *Registry) PublishSchedule(ctx context.Context, summary model.ScheduleSummary) error {
	for name, p := range r.snapshot() {
		if err := p.PublishSchedule(ctx, summary); err != nil {
			r.logger.Error("failed to publish schedule", zap.Error(err), zap.String("publisher", name))
		}
	}
	return nil
}

func (r *Registry) RegisterDevice(device model.Device) error {
	for name, p := range r.snapshot() {
		if err := p.RegisterDevice(device); err != nil {
			r.logger.Error("failed to register device", zap.Error(err), zap.String("publisher", name))
			continue
		}
		r.logger.Debug("registered device", zap.String("device", device.SerialNumber), zap.String("publisher", name))
	}
	return nil
}

func (r *Registry) snapshot() map[string]Publisher {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Publisher, len(r.publishers))
	for k, v := range r.publishers {
		out[k] = v
	}
	return out
}

func (r *Registry) shouldUpdate(device model.Device, v model.SensorValue) bool {
	key := fmt.Sprintf("%s_%s_%s", strings.ReplaceAll(device.Model, ".", ""), device.SerialNumber, v.Slug)
	old, exists := r.sensors.Load(key)
	if exists && strings.EqualFold(v.Value, old.(string)) {
		return false
	}
	r.sensors.Store(key, v.Value)
	return true
}
