package model

import (
	"fmt"
	"time"
)

// Quarter is a 15-minute bucket on the local wall clock. Minute is always one
// of 0, 15, 30, 45. All schedule math wraps at midnight.
type Quarter struct {
	Hour   int
	Minute int
}

// QuarterOf rounds t down to its quarter.
func QuarterOf(t time.Time) Quarter {
	return Quarter{Hour: t.Hour(), Minute: (t.Minute() / 15) * 15}
}

// Next returns the quarter 15 minutes after q.
func (q Quarter) Next() Quarter {
	m := q.Minute + 15
	h := q.Hour
	if m >= 60 {
		m -= 60
		h = (h + 1) % 24
	}
	return Quarter{Hour: h, Minute: m}
}

func (q Quarter) String() string {
	return fmt.Sprintf("%02d:%02d", q.Hour, q.Minute)
}

// Minutes returns the minute-of-day for q.
func (q Quarter) Minutes() int {
	return q.Hour*60 + q.Minute
}

// Index returns the position of q in the 96-quarter window beginning at start,
// treating the midnight wrap as a continuation of the sequence.
func (q Quarter) Index(start Quarter) int {
	d := q.Minutes() - start.Minutes()
	if d < 0 {
		d += 24 * 60
	}
	return d / 15
}

// ParseQuarter parses an "HH:MM" string as emitted by String.
func ParseQuarter(s string) (Quarter, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return Quarter{}, fmt.Errorf("invalid quarter %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Quarter{}, fmt.Errorf("quarter %q out of range", s)
	}
	return Quarter{Hour: h, Minute: m}, nil
}
