package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime reads a backend date or datetime in the zone it was written in.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate formats a date or datetime for display as "Jan 02, 2006".
func FormatDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return "—"
	}
	t, ok := ParseTime(date)
	if !ok {
		return date
	}
	return t.Format("Jan 02, 2006")
}

// FormatDateTime formats a datetime as "Jan 02, 2006 15:04".
func FormatDateTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "—"
	}
	t, ok := ParseTime(value)
	if !ok {
		return value
	}
	return t.Format("Jan 02, 2006 15:04")
}

// FormatDateHuman formats a date relative to now.
// "Today", "Yesterday", "3d ago", "in 2d", "Jan 15", "Jan 15 '24"
func FormatDateHuman(date string, now time.Time) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return "—"
	}
	t, ok := ParseTime(date)
	if !ok {
		return date
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dateDay := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(dateDay).Hours() / 24)

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days == -1:
		return "Tomorrow"
	case days > 1 && days < 7:
		return fmt.Sprintf("%dd ago", days)
	case days < -1 && days > -7:
		return fmt.Sprintf("in %dd", -days)
	case t.Year() == now.Year():
		return t.Format("Jan 02")
	default:
		return t.Format("Jan 02 '06")
	}
}

// FormatAmount formats money with thousands separators and two decimals,
// prefixed by the currency code when there is one.
func FormatAmount(amount float64, currency string) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	if currency = strings.TrimSpace(currency); currency != "" {
		out = currency + " " + out
	}
	return out
}

// FormatBool renders a flag as Yes/No.
func FormatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// FormatOptionalID renders a nullable foreign key as its display name, or
// "—" when unset.
func FormatOptionalID(id *int64, name string) string {
	if id == nil {
		return "—"
	}
	if name != "" {
		return name
	}
	return "#" + strconv.FormatInt(*id, 10)
}

// Humanize turns a snake_case enum value into words.
func Humanize(value string) string {
	value = strings.ReplaceAll(strings.TrimSpace(value), "_", " ")
	if value == "" {
		return ""
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
