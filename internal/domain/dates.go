package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate parses an ISO YYYY-MM-DD date string. Any time-of-day suffix is
// truncated before parsing.
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidInput, s)
	}
	return t, nil
}

// FormatDate renders a date as YYYY-MM-DD; the zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// ParseStartTime parses an HH-MM clock string into minutes since midnight.
func ParseStartTime(s string) (int64, error) {
	hh, mm, ok := strings.Cut(s, "-")
	if !ok {
		return 0, fmt.Errorf("%w: bad start time %q", ErrInvalidInput, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: bad start time %q", ErrInvalidInput, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: bad start time %q", ErrInvalidInput, s)
	}
	return int64(h*60 + m), nil
}

// FormatStartTime renders minutes since midnight as HH-MM.
func FormatStartTime(minutes int64) string {
	return fmt.Sprintf("%02d-%02d", minutes/60, minutes%60)
}
