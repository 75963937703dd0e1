package model

// ScheduleRecord is the device's full writable configuration as returned by
// the cloud, a flat JSON object. Field presence matters when merging: a key
// that is absent is not the same as a key holding null, so the record stays a
// map and is only mutated through the schedule merger.
type ScheduleRecord map[string]any

// Clone returns a shallow copy. Slot strings and scalars are immutable, so a
// shallow copy is enough for read-modify-write.
func (r ScheduleRecord) Clone() ScheduleRecord {
	out := make(ScheduleRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Int reads a numeric field. Cloud JSON numbers decode as float64.
func (r ScheduleRecord) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Float reads a numeric field as float64.
func (r ScheduleRecord) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// String reads a string field.
func (r ScheduleRecord) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}
