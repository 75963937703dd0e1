package model

// Device identifies the storage system telemetry and schedules are published
// for.
type Device struct {
	ID           string
	Model        string
	SerialNumber string
}

// SensorValue is one published telemetry reading.
type SensorValue struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// ScheduleSummary is the published outcome of a dispatch run.
type ScheduleSummary struct {
	Mode      string   `json:"mode"`
	SlotCount int      `json:"slot_count"`
	DryRun    bool     `json:"dry_run"`
	Slots     []string `json:"slots"`
}

// Home Assistant MQTT discovery payloads.

type RegisterDevice struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

type RegisterMessage struct {
	Tilda      string         `json:"~"`
	Name       string         `json:"name"`
	ID         string         `json:"unique_id"`
	StateTopic string         `json:"state_topic"`
	Device     RegisterDevice `json:"device"`
}
