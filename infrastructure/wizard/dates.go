package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"condowater/models"
)

const readingDateLayout = "2006-01-02T15:04:05"

// NextReferenceDate returns the first day of the month after the most recent
// baseline reference date, as YYYY-MM-01. It returns nil when no baseline
// carries a parseable date.
func NextReferenceDate(baselines []models.LatestReading) *string {
	var latest time.Time
	for _, b := range baselines {
		if b.DataRef == nil {
			continue
		}
		t, ok := parseReferenceDate(*b.DataRef)
		if !ok {
			continue
		}
		if t.After(latest) {
			latest = t
		}
	}
	if latest.IsZero() {
		return nil
	}
	next := time.Date(latest.Year(), latest.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return ptr(next.Format("2006-01-02"))
}

func parseReferenceDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 10 {
		if t, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return t, true
		}
	}
	// Flask serializes date columns as RFC 1123 when not configured otherwise.
	if t, err := time.Parse(time.RFC1123, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ParseReadingDate converts DD/MM/YY or DD/MM/YYYY, with an optional HH:mm
// suffix, into YYYY-MM-DDT00:00:00. Two-digit years resolve to the current
// century unless that lands more than 50 years after now.
func ParseReadingDate(raw string, now time.Time) (string, error) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 || len(fields) > 2 {
		return "", fmt.Errorf("invalid reading date %q", raw)
	}
	if len(fields) == 2 {
		if _, err := time.Parse("15:04", fields[1]); err != nil {
			return "", fmt.Errorf("invalid reading time %q", fields[1])
		}
	}

	parts := strings.Split(fields[0], "/")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid reading date %q", raw)
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid day in %q", raw)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("invalid month in %q", raw)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil || year < 0 {
		return "", fmt.Errorf("invalid year in %q", raw)
	}
	switch len(parts[2]) {
	case 2:
		year = expandTwoDigitYear(year, now)
	case 4:
	default:
		return "", fmt.Errorf("invalid year in %q", raw)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", fmt.Errorf("invalid calendar date %q", raw)
	}
	return t.Format(readingDateLayout), nil
}

func expandTwoDigitYear(yy int, now time.Time) int {
	century := now.Year() / 100 * 100
	year := century + yy
	if year > now.Year()+50 {
		year -= 100
	}
	return year
}

// NormalizeFormDate converts an HTML date input (YYYY-MM-DD) into the reading
// date format. An empty value yields nil.
func NormalizeFormDate(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid reading date %q", raw)
	}
	return ptr(t.Format(readingDateLayout)), nil
}
