package consult

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// parseClock converts a zero-padded "HH:MM" wall-clock string into minutes
// since midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}

	return hours*60 + minutes, nil
}

// windowContains reports whether the instant falls inside the window. The
// interval is half-open: the start minute is bookable, the end minute is not.
func windowContains(w *types.AvailabilityWindow, at time.Time) (bool, error) {
	if at.Weekday() != w.Day {
		return false, nil
	}

	start, err := parseClock(w.StartTime)
	if err != nil {
		return false, err
	}
	end, err := parseClock(w.EndTime)
	if err != nil {
		return false, err
	}

	minute := at.Hour()*60 + at.Minute()
	return minute >= start && minute < end, nil
}

// IsDoctorAvailable reports whether the instant falls inside any of the
// doctor's weekly availability windows. Malformed windows are skipped so a
// single bad record cannot take a doctor fully offline.
func IsDoctorAvailable(doctor *types.Doctor, at time.Time) bool {
	for i := range doctor.Availability {
		ok, err := windowContains(&doctor.Availability[i], at)
		if err != nil {
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
