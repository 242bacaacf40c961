package presenter

import (
	"fmt"
	"strings"
	"time"
)

// FormatField formats a field value according to its FieldSpec.
func FormatField(spec FieldSpec, val any, loc Locale) string {
	switch spec.Format {
	case "boolean":
		return formatBoolean(spec, val)
	case "date":
		return formatDate(val, loc)
	case "relative_time":
		return formatRelativeTime(val, loc)
	case "percent":
		return formatPercent(val)
	case "list":
		return formatList(val)
	default:
		return formatText(val, loc)
	}
}

func formatBoolean(spec FieldSpec, val any) string {
	b := toBool(val)
	if label, ok := spec.Labels[fmt.Sprintf("%v", b)]; ok {
		return label
	}
	if b {
		return "yes"
	}
	return "no"
}

func formatDate(val any, loc Locale) string {
	str, ok := val.(string)
	if !ok || str == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return loc.FormatDate(t)
	}
	if t, err := time.Parse("2006-01-02", str); err == nil {
		return loc.FormatDate(t)
	}
	return str
}

func formatRelativeTime(val any, loc Locale) string {
	str, ok := val.(string)
	if !ok || str == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		if t, err = time.Parse("2006-01-02", str); err != nil {
			return str
		}
	}

	diff := time.Since(t)
	if diff < 0 {
		return loc.FormatDate(t)
	}
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return plural(days, "day")
	default:
		return loc.FormatDate(t)
	}
}

// plural renders English relative-time units. True i18n of these strings
// would need a message catalog.
func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func formatPercent(val any) string {
	switch v := val.(type) {
	case float64:
		return fmt.Sprintf("%d%%", int(v))
	case int:
		return fmt.Sprintf("%d%%", v)
	default:
		return ""
	}
}

// formatList renders an array of strings, or of objects carrying a "name"
// field, as a comma-separated line. Skills and suggestion lists use this.
func formatList(val any) string {
	arr, ok := val.([]any)
	if !ok || len(arr) == 0 {
		return ""
	}
	var items []string
	for _, item := range arr {
		switch v := item.(type) {
		case string:
			items = append(items, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				items = append(items, name)
			}
		}
	}
	return strings.Join(items, ", ")
}

func formatText(val any, loc Locale) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case float64:
		return loc.FormatNumber(v)
	case int:
		return loc.FormatNumber(float64(v))
	case int64:
		return loc.FormatNumber(float64(v))
	case []any:
		return formatList(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1" || v == "yes"
	case float64:
		return v != 0
	default:
		return false
	}
}
