package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuarterOf(t *testing.T) {
	testCases := []struct {
		name     string
		input    time.Time
		expected Quarter
	}{
		{
			name:     "exact quarter",
			input:    time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC),
			expected: Quarter{Hour: 14, Minute: 30},
		},
		{
			name:     "rounds down",
			input:    time.Date(2026, 3, 1, 14, 44, 59, 0, time.UTC),
			expected: Quarter{Hour: 14, Minute: 30},
		},
		{
			name:     "start of day",
			input:    time.Date(2026, 3, 1, 0, 7, 0, 0, time.UTC),
			expected: Quarter{Hour: 0, Minute: 0},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, QuarterOf(tc.input))
		})
	}
}

func TestQuarterNext_WrapsMidnight(t *testing.T) {
	assert.Equal(t, Quarter{Hour: 0, Minute: 0}, Quarter{Hour: 23, Minute: 45}.Next())
	assert.Equal(t, Quarter{Hour: 15, Minute: 0}, Quarter{Hour: 14, Minute: 45}.Next())
	assert.Equal(t, Quarter{Hour: 14, Minute: 15}, Quarter{Hour: 14, Minute: 0}.Next())
}

func TestQuarterIndex(t *testing.T) {
	start := Quarter{Hour: 14, Minute: 0}
	assert.Equal(t, 0, start.Index(start))
	assert.Equal(t, 1, Quarter{Hour: 14, Minute: 15}.Index(start))
	// quarters before the window start wrap to the end of the window
	assert.Equal(t, 95, Quarter{Hour: 13, Minute: 45}.Index(start))
	assert.Equal(t, 40, Quarter{Hour: 0, Minute: 0}.Index(start))
}

func TestParseQuarter(t *testing.T) {
	q, err := ParseQuarter("08:45")
	require.NoError(t, err)
	assert.Equal(t, Quarter{Hour: 8, Minute: 45}, q)

	_, err = ParseQuarter("25:00")
	assert.Error(t, err)
	_, err = ParseQuarter("junk")
	assert.Error(t, err)
}

func TestQuarterString(t *testing.T) {
	assert.Equal(t, "05:00", Quarter{Hour: 5}.String())
	assert.Equal(t, "23:45", Quarter{Hour: 23, Minute: 45}.String())
}
