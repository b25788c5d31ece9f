package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"checkeasy-report/models"
)

var (
	// hourRegexp matches "H:mm", "HH:mm" and "HH:mm:ss"
	hourRegexp = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)

	// bubbleLayouts are the date formats used by the bundle ("Nov 26, 2025 11:22 am")
	bubbleLayouts = []string{
		"Jan 2, 2006 3:04 pm",
		"Jan 2, 2006 3:04 PM",
		"Jan 2, 2006 15:04",
		"Jan 2, 2006",
	}

	// timestampLayouts are the ISO-like formats found in session documents
	timestampLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

// ParseBubbleDate parses a bundle date string. Times without a zone are
// read as UTC and keep their wall clock.
func ParseBubbleDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range bubbleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return ParseTimestamp(s)
}

// ParseTimestamp parses an ISO-8601 timestamp in any of the accepted layouts.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BubbleDateToHour converts a bundle date to "HH:mm", or nil when the value
// is blank or unparseable.
func BubbleDateToHour(s string) *string {
	t, ok := ParseBubbleDate(s)
	if !ok {
		return nil
	}
	h := t.Format("15:04")
	return &h
}

// FormatHour normalises a display hour to "HH:mm". Clock strings keep their
// hour and minute (the hour is zero-padded); full dates are reduced to their
// time of day. Anything else yields nil.
func FormatHour(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if m := hourRegexp.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		h := fmt.Sprintf("%02d:%s", hour, m[2])
		return &h
	}
	if t, ok := ParseBubbleDate(s); ok {
		h := t.Format("15:04")
		return &h
	}
	return nil
}

// FormatFrenchDate renders a timestamp as dd/mm/yyyy. Unparseable values are
// returned unchanged.
func FormatFrenchDate(s string) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return s
	}
	return t.Format("02/01/2006")
}

// firstHour returns the first non-nil hour, formatted.
func firstHour(candidates ...*string) *string {
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if h := FormatHour(*c); h != nil {
			return h
		}
	}
	return nil
}

// derefOr returns the pointed value, or fallback when nil or blank.
func derefOr(s *string, fallback string) string {
	if s == nil || models.IsBlank(*s) {
		return fallback
	}
	return *s
}
