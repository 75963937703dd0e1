package sunpura

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

// controlTime wire format, 11 comma-separated fields:
//
//	enabled,startTime,endTime,powerW,0,6,0,0,0,maxSOC,minSOC
//
// powerW is signed: negative charges from grid, positive discharges. Field 5
// is always 0 and field 6 always 6; both are required by the firmware and
// their meaning is unknown. Fields 7-9 are always 0.
const DisabledSlot = "0,00:00,00:00,0,0,6,0,0,0,100,10"

const slotFieldCount = 11

// EncodeSlot renders a slot in the controlTime format.
func EncodeSlot(s model.Slot) string {
	enabled := 0
	if s.Enabled {
		enabled = 1
	}
	return fmt.Sprintf("%d,%s,%s,%d,0,6,0,0,0,%d,%d",
		enabled, s.Start, s.End, s.PowerW, s.MaxSOC, s.MinSOC)
}

// DecodeSlot parses a controlTime string back into a slot. It is the exact
// inverse of EncodeSlot for every valid slot.
func DecodeSlot(raw string) (model.Slot, error) {
	fields := strings.Split(raw, ",")
	if len(fields) != slotFieldCount {
		return model.Slot{}, fmt.Errorf("controlTime: expected %d fields, got %d", slotFieldCount, len(fields))
	}
	enabled, err := strconv.Atoi(fields[0])
	if err != nil {
		return model.Slot{}, fmt.Errorf("controlTime: enabled: %w", err)
	}
	start, err := model.ParseQuarter(fields[1])
	if err != nil {
		return model.Slot{}, err
	}
	end, err := model.ParseQuarter(fields[2])
	if err != nil {
		return model.Slot{}, err
	}
	power, err := strconv.Atoi(fields[3])
	if err != nil {
		return model.Slot{}, fmt.Errorf("controlTime: power: %w", err)
	}
	maxSOC, err := strconv.Atoi(fields[9])
	if err != nil {
		return model.Slot{}, fmt.Errorf("controlTime: maxSOC: %w", err)
	}
	minSOC, err := strconv.Atoi(fields[10])
	if err != nil {
		return model.Slot{}, fmt.Errorf("controlTime: minSOC: %w", err)
	}
	return model.Slot{
		Enabled: enabled == 1,
		Start:   start,
		End:     end,
		PowerW:  power,
		MaxSOC:  maxSOC,
		MinSOC:  minSOC,
	}, nil
}
