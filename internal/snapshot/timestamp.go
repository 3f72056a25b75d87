package snapshot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/doublemover/activationgate/internal/jsonv"
)

// Extended (2026-10-18T23:00:00Z) and basic (20261018T230000Z) forms share
// one capture layout: year, month, day, hour, minute, second, fraction, zone.
var isoTimestamps = []*regexp.Regexp{
	regexp.MustCompile(
		`^(\d{4})-(\d{2})-(\d{2})` +
			`(?:[Tt ](\d{2})(?::(\d{2})(?::(\d{2})(?:[.,](\d{1,9}))?)?)?` +
			`([Zz]|[+-]\d{2}(?::?\d{2}(?::?\d{2})?)?)?)?$`),
	regexp.MustCompile(
		`^(\d{4})(\d{2})(\d{2})` +
			`(?:[Tt ](\d{2})(?:(\d{2})(?:(\d{2})(?:[.,](\d{1,9}))?)?)?` +
			`([Zz]|[+-]\d{2}(?:\d{2}(?:\d{2})?)?)?)?$`),
}

var (
	errInvalidTimestamp = errors.New("invalid timestamp")
	errNaiveTimestamp   = errors.New("timestamp has no timezone")
)

// ParseGeneratedAt parses a snapshot's generated_at_utc value. label is the
// snapshot label used in messages ("open issues", "catalog", ...).
func ParseGeneratedAt(v *jsonv.Value, label string) (time.Time, error) {
	raw, ok := v.Str()
	if !ok || strings.TrimSpace(raw) == "" {
		return time.Time{}, fmt.Errorf("%s snapshot field 'generated_at_utc' must be a non-empty ISO-8601 timestamp", label)
	}

	t, err := parseISOTimestamp(strings.TrimSpace(raw))
	switch {
	case errors.Is(err, errNaiveTimestamp):
		return time.Time{}, fmt.Errorf("%s snapshot field 'generated_at_utc' must include a timezone (for example 'Z')", label)
	case err != nil:
		return time.Time{}, fmt.Errorf("%s snapshot field 'generated_at_utc' must be a valid ISO-8601 timestamp", label)
	}
	return t.UTC(), nil
}

// FormatUTC renders t as whole-second UTC with a Z suffix.
func FormatUTC(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

func parseISOTimestamp(s string) (time.Time, error) {
	var m []string
	for _, re := range isoTimestamps {
		if m = re.FindStringSubmatch(s); m != nil {
			break
		}
	}
	if m == nil {
		return time.Time{}, errInvalidTimestamp
	}

	num := func(field string) int {
		if field == "" {
			return 0
		}
		n, _ := strconv.Atoi(field)
		return n
	}
	year, month, day := num(m[1]), num(m[2]), num(m[3])
	hour, minute, second := num(m[4]), num(m[5]), num(m[6])

	nanos := 0
	if frac := m[7]; frac != "" {
		nanos = num(frac + strings.Repeat("0", 9-len(frac)))
	}

	if year < 1 || month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, errInvalidTimestamp
	}
	if day > daysIn(year, time.Month(month)) {
		return time.Time{}, errInvalidTimestamp
	}

	zone := m[8]
	if zone == "" {
		return time.Time{}, errNaiveTimestamp
	}
	loc, err := parseOffset(zone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, nanos, loc), nil
}

func parseOffset(zone string) (*time.Location, error) {
	if zone == "Z" || zone == "z" {
		return time.UTC, nil
	}

	sign := 1
	if zone[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(zone[1:], ":", "")
	hours, _ := strconv.Atoi(digits[0:2])
	minutes, seconds := 0, 0
	if len(digits) >= 4 {
		minutes, _ = strconv.Atoi(digits[2:4])
	}
	if len(digits) == 6 {
		seconds, _ = strconv.Atoi(digits[4:6])
	}
	if hours > 23 || minutes > 59 || seconds > 59 {
		return nil, errInvalidTimestamp
	}
	offset := sign * (hours*3600 + minutes*60 + seconds)
	return time.FixedZone("", offset), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
