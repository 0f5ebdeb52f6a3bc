// Package slottime parses and normalizes the "HH:MM - HH:MM" time ranges stored on availability slots.
package slottime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	rangeSplit = regexp.MustCompile(`\s*[-–]\s*`)
	clockPart  = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*([AaPp][Mm])?$`)
)

// Range is a parsed slot, in minutes after local midnight.
type Range struct {
	Start int
	End   int
}

func (r Range) String() string {
	return fmt.Sprintf("%s - %s", formatMinutes(r.Start), formatMinutes(r.End))
}

// Parse accepts 24-hour ("09:00-10:00") and 12-hour ("9:00 AM - 10:30 AM") forms.
func Parse(s string) (Range, error) {
	parts := rangeSplit.Split(strings.TrimSpace(s), -1)
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("invalid time slot %q: expected \"HH:MM - HH:MM\"", s)
	}

	start, err := parseClock(parts[0])
	if err != nil {
		return Range{}, fmt.Errorf("invalid time slot %q: %w", s, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return Range{}, fmt.Errorf("invalid time slot %q: %w", s, err)
	}
	if end <= start {
		return Range{}, fmt.Errorf("invalid time slot %q: end must be after start", s)
	}

	return Range{Start: start, End: end}, nil
}

// Normalize returns the canonical "HH:MM - HH:MM" form of s.
func Normalize(s string) (string, error) {
	r, err := Parse(s)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// StartMinutes returns the start of the slot in minutes after midnight.
func StartMinutes(s string) (int, error) {
	r, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return r.Start, nil
}

func parseClock(s string) (int, error) {
	m := clockPart.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("malformed time %q", s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	} else if m[3] == "" {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	if minute > 59 {
		return 0, fmt.Errorf("minute out of range in %q", s)
	}

	switch strings.ToUpper(m[3]) {
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("hour out of range in %q", s)
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("hour out of range in %q", s)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, fmt.Errorf("hour out of range in %q", s)
		}
	}

	return hour*60 + minute, nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
