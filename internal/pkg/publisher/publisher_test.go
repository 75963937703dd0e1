package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

type mockPublisher struct {
	sensors   [][]model.SensorValue
	schedules []model.ScheduleSummary
	devices   []model.Device
	err       error
}

func (m *mockPublisher) PublishSensors(ctx context.Context, device model.Device, values []model.SensorValue) error {
	if m.err != nil {
		return m.err
	}
	m.sensors = append(m.sensors, values)
	return nil
}

func (m *mockPublisher) PublishSchedule(ctx context.Context, summary model.ScheduleSummary) error {
	if m.err != nil {
		return m.err
	}
	m.schedules = append(m.schedules, summary)
	return nil
}

func (m *mockPublisher) RegisterDevice(device model.Device) error {
	if m.err != nil {
		return m.err
	}
	m.devices = append(m.devices, device)
	return nil
}

var testDevice = model.Device{ID: "SN1", Model: "sunpura", SerialNumber: "SN1"}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	require.NoError(t, r.Register("mqtt", &mockPublisher{}))
	assert.ErrorIs(t, r.Register("mqtt", &mockPublisher{}), ErrAlreadyRegistered)
}

func TestRegistry_SuppressesUnchangedValues(t *testing.T) {
	t.Parallel()
	sink := &mockPublisher{}
	r := NewRegistry()
	require.NoError(t, r.Register("sink", sink))

	values := []model.SensorValue{{Slug: "battery_soc", Value: "73"}}
	require.NoError(t, r.PublishSensors(context.Background(), testDevice, values))
	require.NoError(t, r.PublishSensors(context.Background(), testDevice, values))
	assert.Len(t, sink.sensors, 1, "unchanged value must not be republished")

	changed := []model.SensorValue{{Slug: "battery_soc", Value: "74"}}
	require.NoError(t, r.PublishSensors(context.Background(), testDevice, changed))
	assert.Len(t, sink.sensors, 2)
}

func TestRegistry_FailingSinkDoesNotBlockOthers(t *testing.T) {
	t.Parallel()
	broken := &mockPublisher{err: errors.New("broker down")}
	healthy := &mockPublisher{}
	r := NewRegistry()
	require.NoError(t, r.Register("broken", broken))
	require.NoError(t, r.Register("healthy", healthy))

	values := []model.SensorValue{{Slug: "solar_power", Value: "1400"}}
	require.NoError(t, r.PublishSensors(context.Background(), testDevice, values))
	assert.Len(t, healthy.sensors, 1)

	require.NoError(t, r.PublishSchedule(context.Background(), model.ScheduleSummary{Mode: "balanced"}))
	assert.Len(t, healthy.schedules, 1)

	require.NoError(t, r.RegisterDevice(testDevice))
	assert.Len(t, healthy.devices, 1)
}
