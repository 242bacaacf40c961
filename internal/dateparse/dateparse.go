// Package dateparse normalizes human date input for experience entries.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parse normalizes a date string to YYYY-MM-DD. Employment dates are
// usually coarse, so month-year and bare-year forms resolve to the first
// of the period. Supported formats:
//   - YYYY-MM-DD (passthrough)
//   - YYYY-MM, MM/YYYY
//   - jan 2020, january 2020
//   - 2020 (bare year)
//   - today, yesterday
//   - N years ago, N months ago
//   - current, present, now (empty string: still in the role)
//
// Unrecognized input is returned as-is so the server can reject it with a
// proper validation error.
func Parse(input string) string {
	return ParseFrom(input, time.Now())
}

// ParseFrom parses relative to a reference time, for tests and for callers
// replaying historical input.
func ParseFrom(input string, now time.Time) string {
	input = strings.ToLower(strings.TrimSpace(input))

	switch input {
	case "":
		return ""
	case "current", "present", "now", "ongoing":
		// An open-ended role carries no end date.
		return ""
	case "today":
		return formatDate(now)
	case "yesterday":
		return formatDate(now.AddDate(0, 0, -1))
	case "last month":
		return formatDate(firstOfMonth(now.AddDate(0, -1, 0)))
	case "last year":
		return formatDate(time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, now.Location()))
	}

	if datePattern.MatchString(input) {
		return input
	}

	// YYYY-MM
	if match := yearMonthPattern.FindStringSubmatch(input); match != nil {
		if month, _ := strconv.Atoi(match[2]); month >= 1 && month <= 12 {
			return match[1] + "-" + match[2] + "-01"
		}
	}

	// MM/YYYY
	if match := slashPattern.FindStringSubmatch(input); match != nil {
		month, _ := strconv.Atoi(match[1])
		if month >= 1 && month <= 12 {
			year, _ := strconv.Atoi(match[2])
			return formatDate(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location()))
		}
	}

	// "jan 2020" / "january 2020"
	if match := monthNamePattern.FindStringSubmatch(input); match != nil {
		if month, ok := parseMonth(match[1]); ok {
			year, _ := strconv.Atoi(match[2])
			return formatDate(time.Date(year, month, 1, 0, 0, 0, 0, now.Location()))
		}
	}

	// Bare year
	if yearPattern.MatchString(input) {
		return input + "-01-01"
	}

	// "N years ago" / "N months ago"
	if match := yearsAgoPattern.FindStringSubmatch(input); match != nil {
		n, _ := strconv.Atoi(match[1])
		return formatDate(firstOfMonth(now.AddDate(-n, 0, 0)))
	}
	if match := monthsAgoPattern.FindStringSubmatch(input); match != nil {
		n, _ := strconv.Atoi(match[1])
		return formatDate(firstOfMonth(now.AddDate(0, -n, 0)))
	}

	return input
}

var (
	datePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	yearMonthPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	slashPattern     = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
	monthNamePattern = regexp.MustCompile(`^([a-z]+)\s+(\d{4})$`)
	yearPattern      = regexp.MustCompile(`^\d{4}$`)
	yearsAgoPattern  = regexp.MustCompile(`^(\d+) years? ago$`)
	monthsAgoPattern = regexp.MustCompile(`^(\d+) months? ago$`)
)

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func firstOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

func parseMonth(name string) (time.Month, bool) {
	months := map[string]time.Month{
		"jan": time.January, "january": time.January,
		"feb": time.February, "february": time.February,
		"mar": time.March, "march": time.March,
		"apr": time.April, "april": time.April,
		"may": time.May,
		"jun": time.June, "june": time.June,
		"jul": time.July, "july": time.July,
		"aug": time.August, "august": time.August,
		"sep": time.September, "september": time.September,
		"oct": time.October, "october": time.October,
		"nov": time.November, "november": time.November,
		"dec": time.December, "december": time.December,
	}
	m, ok := months[name]
	return m, ok
}

// IsValid reports whether input normalizes to a usable value. The empty
// string is valid ("present").
func IsValid(input string) bool {
	result := Parse(input)
	return result == "" || datePattern.MatchString(result)
}
