package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

func (s *service) PublishSensors(ctx context.Context, device model.Device, values []model.SensorValue) error {
	for _, v := range values {
		if err := s.publishValue(device, v); err != nil {
			return err
		}
	}
	return nil
}

// PublishSchedule writes the dispatch outcome to a retained topic so Home
// Assistant restarts pick up the last applied schedule.
func (s *service) PublishSchedule(ctx context.Context, summary model.ScheduleSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	token := s.client.Publish("sunpura/schedule", 1, true, payload)
	if res := token.WaitTimeout(time.Second * 10); !res {
		if err := token.Error(); err != nil {
			return err
		}
	}
	return token.Error()
}

func (s *service) RegisterDevice(device model.Device) error {
	if _, exists := s.configuredDevices[device.ID]; exists {
		return nil
	}
	registerMessage := defaultRegisterMsg(device)
	slugIdentifier := fmt.Sprintf("%s_%s", device.Model, device.SerialNumber)

	topic := fmt.Sprintf("homeassistant/sensor/%s/config", slugIdentifier)

	payload, err := json.Marshal(registerMessage)
	if err != nil {
		return err
	}
	token := s.client.Publish(topic, 1, true, payload)
	if err := token.Error(); err != nil {
		return err
	}
	if res := token.WaitTimeout(time.Second * 5); res {
		s.configuredDevices[device.ID] = struct{}{}
	}
	return nil
}

func (s *service) publishValue(device model.Device, value model.SensorValue) error {
	slugIdentifier := fmt.Sprintf("%s_%s", device.Model, device.SerialNumber)
	topic := fmt.Sprintf("homeassistant/sensor/%s/%s/state", slugIdentifier, value.Slug)

	payload := map[string]string{
		"value": value.Value,
	}
	if value.Unit != "" {
		payload["unit_of_measurement"] = value.Unit
	}

	publishData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	token := s.client.Publish(topic, 0, false, publishData)
	res := token.WaitTimeout(time.Second * 10)
	if res {
		return nil
	}
	if err := token.Error(); err != nil {
		return err
	}
	return nil
}

func defaultRegisterMsg(device model.Device) model.RegisterMessage {
	name := fmt.Sprintf("%s %s", device.Model, device.SerialNumber)
	slugIdentifier := fmt.Sprintf("%s_%s", device.Model, device.SerialNumber)

	return model.RegisterMessage{
		Tilda:      fmt.Sprintf("homeassistant/sensor/%s", slugIdentifier),
		Name:       name,
		ID:         strings.ToLower(slugIdentifier),
		StateTopic: "~/state",
		Device: model.RegisterDevice{
			Name:         name,
			Identifiers:  []string{slugIdentifier},
			Model:        device.Model,
			Manufacturer: "Sunpura",
		},
	}
}
