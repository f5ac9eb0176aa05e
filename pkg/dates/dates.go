package dates

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DisplayLayout is the only format dates are rendered in.
	DisplayLayout = "02/01/2006"
	// ISOLayout is the storage format used by settings and exports.
	ISOLayout = "2006-01-02"

	minYear = 1900
	maxYear = 2100

	minSerial = 30000
	maxSerial = 100000
)

// Convention tells the parser which order of an NN/NN/YYYY string to try
// first. The other order is tried when the first is not a valid date.
type Convention string

const (
	DayFirst   Convention = "day-first"
	MonthFirst Convention = "month-first"
)

// ParseConvention accepts "day-first" / "month-first" and the short forms
// "dmy" / "mdy".
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DayFirst), "dmy":
		return DayFirst, nil
	case string(MonthFirst), "mdy":
		return MonthFirst, nil
	default:
		return "", fmt.Errorf("unknown date convention %q", s)
	}
}

var serialEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	isoRegex   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`)
	slashRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:\s.*)?$`)
	dotRegex   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})(?:\s.*)?$`)
	dashRegex  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})(?:\s.*)?$`)

	clockRegex    = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	meridiemRegex = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*[ap]\.?m\.?\b`)
	isoTimeRegex  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}`)
)

// Free-form layouts tried last, in order.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02-Jan-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
	time.ANSIC,
}

// FromSerial converts a spreadsheet serial day number to a date. Serial 1 is
// 1900-01-01. The phantom 1900-02-29 (serial 60) lands on 1900-03-01 and every
// later serial is shifted back one day to compensate for it.
func FromSerial(serial float64) time.Time {
	days := int(math.Floor(serial))
	offset := days - 1
	if days > 60 {
		offset--
	}
	return serialEpoch.AddDate(0, 0, offset)
}

// Parse turns a cell value into a calendar date at UTC midnight. The second
// result is false when no known representation matched.
func Parse(v any, conv Convention) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return dateOnly(val), true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return Parse(*val, conv)
	case float64:
		return parseSerial(val)
	case float32:
		return parseSerial(float64(val))
	case int:
		return parseSerial(float64(val))
	case int64:
		return parseSerial(float64(val))
	case string:
		return parseString(val, conv)
	default:
		return time.Time{}, false
	}
}

// Normalize returns the parsed date, or v itself when it cannot be parsed.
func Normalize(v any, conv Convention) any {
	if t, ok := Parse(v, conv); ok {
		return t
	}
	return v
}

// FormatValue renders v as DD/MM/YYYY when it parses, otherwise as its
// original text.
func FormatValue(v any, conv Convention) string {
	if t, ok := Parse(v, conv); ok {
		return FormatDisplay(t)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func FormatDisplay(t time.Time) string {
	return t.Format(DisplayLayout)
}

func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// ParseDisplay parses a strict DD/MM/YYYY string.
func ParseDisplay(s string) (time.Time, error) {
	return time.Parse(DisplayLayout, strings.TrimSpace(s))
}

// ParseISO parses a strict YYYY-MM-DD string.
func ParseISO(s string) (time.Time, error) {
	return time.Parse(ISOLayout, strings.TrimSpace(s))
}

// HasTime reports whether v carries a time of day.
func HasTime(v any) bool {
	switch val := v.(type) {
	case time.Time:
		return val.Hour() != 0 || val.Minute() != 0 || val.Second() != 0 || val.Nanosecond() != 0
	case *time.Time:
		return val != nil && HasTime(*val)
	case float64:
		return hasFraction(val)
	case float32:
		return hasFraction(float64(val))
	case string:
		s := strings.TrimSpace(val)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return hasFraction(f)
		}
		return clockRegex.MatchString(s) || meridiemRegex.MatchString(s) || isoTimeRegex.MatchString(s)
	default:
		return false
	}
}

func hasFraction(f float64) bool {
	_, frac := math.Modf(f)
	return frac != 0
}

func parseSerial(f float64) (time.Time, bool) {
	if f < minSerial || f >= maxSerial {
		return time.Time{}, false
	}
	return FromSerial(f), true
}

func parseString(s string, conv Convention) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return parseSerial(f)
	}

	if m := isoRegex.FindStringSubmatch(s); m != nil {
		if t, ok := build(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := slashRegex.FindStringSubmatch(s); m != nil {
		first, second := m[1], m[2]
		if conv == MonthFirst {
			first, second = second, first
		}
		// The convention only picks which order is tried first.
		if t, ok := build(m[3], second, first); ok {
			return t, true
		}
		if t, ok := build(m[3], first, second); ok {
			return t, true
		}
	}
	if m := dotRegex.FindStringSubmatch(s); m != nil {
		if t, ok := build(m[3], m[2], m[1]); ok {
			return t, true
		}
	}
	if m := dashRegex.FindStringSubmatch(s); m != nil {
		if t, ok := build(m[3], m[1], m[2]); ok {
			return t, true
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() < minYear || t.Year() > maxYear {
				continue
			}
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// build validates the components and rejects days the month does not have.
func build(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || y < minYear || y > maxYear {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
