package sunpura

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

// energyModeCustom marks the custom-schedule mode in which the controlTime
// table is active.
const energyModeCustom = 2

const slotCount = 16

// Server-side read-only fields. Including any of these in a SET payload makes
// the API silently reject or misprocess the request.
var readOnlyFields = map[string]struct{}{
	"id":                 {},
	"sn":                 {},
	"createTime":         {},
	"updateTime":         {},
	"currentPower":       {},
	"currentWorkMode":    {},
	"modeStr":            {},
	"aiActiveTime":       {},
	"priceType":          {},
	"smartModeLimitFlag": {},
}

var ErrNoDevice = errors.New("sunpura: datalogSn not set, refusing to build write payload")

// MergeSchedule builds the write payload from the current record and the
// compiled slots: writable non-null fields are carried over, every one of the
// 16 controlTime positions is rewritten (unused ones with the disabled
// sentinel), and the device is switched to custom mode. Slots are validated
// against the battery state before encoding; a failing slot aborts the merge.
func MergeSchedule(current model.ScheduleRecord, slots []model.Slot, datalogSn string, state model.BatteryState) (model.ScheduleRecord, error) {
	if datalogSn == "" {
		return nil, ErrNoDevice
	}
	if len(slots) > slotCount {
		return nil, fmt.Errorf("sunpura: %d slots exceed the %d-slot table", len(slots), slotCount)
	}

	payload := model.ScheduleRecord{}
	for key, value := range current {
		if _, readOnly := readOnlyFields[key]; readOnly {
			continue
		}
		if value == nil {
			continue
		}
		if strings.HasPrefix(key, "controlTime") {
			continue // always fully recomputed below
		}
		payload[key] = value
	}

	payload["energyMode"] = energyModeCustom
	payload["datalogSn"] = datalogSn

	for i, slot := range slots {
		if err := slot.Validate(state); err != nil {
			return nil, fmt.Errorf("sunpura: refusing to encode: %w", err)
		}
		payload[fmt.Sprintf("controlTime%d", i+1)] = EncodeSlot(slot)
	}
	for i := len(slots); i < slotCount; i++ {
		payload[fmt.Sprintf("controlTime%d", i+1)] = DisabledSlot
	}

	return payload, nil
}
