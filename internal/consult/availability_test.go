package consult

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// monday returns a known Monday with the given wall-clock time.
func monday(hour, minute int) time.Time {
	return time.Date(2026, 9, 7, hour, minute, 0, 0, time.UTC)
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		input   string
		minutes int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9am", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		got, err := parseClock(tc.input)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.input)
		} else {
			assert.NoError(t, err, "input %q", tc.input)
			assert.Equal(t, tc.minutes, got, "input %q", tc.input)
		}
	}
}

func TestIsDoctorAvailable_HalfOpenBoundaries(t *testing.T) {
	doctor := &types.Doctor{
		Availability: []types.AvailabilityWindow{
			{Day: time.Monday, StartTime: "09:00", EndTime: "12:00"},
		},
	}

	// The start minute is bookable, the end minute is not.
	assert.True(t, IsDoctorAvailable(doctor, monday(9, 0)))
	assert.True(t, IsDoctorAvailable(doctor, monday(11, 59)))
	assert.False(t, IsDoctorAvailable(doctor, monday(12, 0)))
	assert.False(t, IsDoctorAvailable(doctor, monday(8, 59)))
}

func TestIsDoctorAvailable_WrongDay(t *testing.T) {
	doctor := &types.Doctor{
		Availability: []types.AvailabilityWindow{
			{Day: time.Tuesday, StartTime: "09:00", EndTime: "17:00"},
		},
	}

	assert.False(t, IsDoctorAvailable(doctor, monday(10, 0)))
	assert.True(t, IsDoctorAvailable(doctor, monday(10, 0).AddDate(0, 0, 1)))
}

func TestIsDoctorAvailable_MultipleWindows(t *testing.T) {
	doctor := &types.Doctor{
		Availability: []types.AvailabilityWindow{
			{Day: time.Monday, StartTime: "09:00", EndTime: "12:00"},
			{Day: time.Monday, StartTime: "14:00", EndTime: "18:00"},
		},
	}

	assert.True(t, IsDoctorAvailable(doctor, monday(10, 0)))
	assert.False(t, IsDoctorAvailable(doctor, monday(13, 0)))
	assert.True(t, IsDoctorAvailable(doctor, monday(14, 0)))
}

func TestIsDoctorAvailable_MalformedWindowSkipped(t *testing.T) {
	doctor := &types.Doctor{
		Availability: []types.AvailabilityWindow{
			{Day: time.Monday, StartTime: "garbage", EndTime: "12:00"},
			{Day: time.Monday, StartTime: "14:00", EndTime: "18:00"},
		},
	}

	// The bad window is skipped, the good one still matches.
	assert.False(t, IsDoctorAvailable(doctor, monday(10, 0)))
	assert.True(t, IsDoctorAvailable(doctor, monday(15, 0)))
}

func TestIsDoctorAvailable_NoWindows(t *testing.T) {
	doctor := &types.Doctor{}
	assert.False(t, IsDoctorAvailable(doctor, monday(10, 0)))
}
