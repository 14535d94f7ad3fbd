package routes

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock converts a "h:mm:ss AM/PM" clock string into fractional minutes
// since midnight. Seconds may carry a fractional part. 12 AM maps to hour 0
// and 12 PM stays 12.
func ParseClock(s string) (float64, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return 0, fmt.Errorf("clock %q: want \"h:mm:ss AM/PM\"", s)
	}
	period := strings.ToUpper(fields[1])
	if period != "AM" && period != "PM" {
		return 0, fmt.Errorf("clock %q: unknown period %q", s, fields[1])
	}
	parts := strings.Split(fields[0], ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("clock %q: want three time components", s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("clock %q: hours: %w", s, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("clock %q: minutes: %w", s, err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("clock %q: seconds: %w", s, err)
	}
	if hours < 1 || hours > 12 || minutes < 0 || minutes > 59 || seconds < 0 || seconds >= 60 {
		return 0, fmt.Errorf("clock %q: out of range", s)
	}
	if period == "PM" && hours != 12 {
		hours += 12
	} else if period == "AM" && hours == 12 {
		hours = 0
	}
	return float64(hours)*60 + float64(minutes) + seconds/60, nil
}

// MinutesOfDay expresses t as fractional minutes since local midnight.
func MinutesOfDay(t time.Time) float64 {
	return float64(t.Hour())*60 + float64(t.Minute()) + float64(t.Second())/60 +
		float64(t.Nanosecond())/float64(time.Minute)
}
