package steps

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

// storageDateFormat is the layout dates are stored with.
const storageDateFormat = "2006-01-02 15:04:05"

// upcastDates replaces every value that reads as a date, absolute or
// relative to now, with its UTC storage form. The "published" column
// becomes a unix timestamp. Other values are returned unchanged.
func upcastDates(values map[string]string, now time.Time) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		out[key] = value
		date, ok := parseDate(value, now)
		if !ok {
			continue
		}
		if key == "published" {
			out[key] = strconv.FormatInt(date.Unix(), 10)
			continue
		}
		out[key] = date.Format(storageDateFormat)
	}
	return out
}

func parseDate(value string, now time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" || isDigits(value) {
		return time.Time{}, false
	}
	if t, ok := relativeDate(value, now.UTC()); ok {
		return t, true
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// relativeDate understands anchors ("now", "today", "midnight", "tomorrow",
// "yesterday") followed by any number of offsets such as "+1 day",
// "-2 weeks" or "3 hours ago".
func relativeDate(value string, now time.Time) (time.Time, bool) {
	words := strings.Fields(strings.ToLower(value))
	t := now
	matched := false

	for i := 0; i < len(words); i++ {
		switch words[i] {
		case "now":
			matched = true
			continue
		case "today", "midnight":
			t = truncateDay(t)
			matched = true
			continue
		case "tomorrow":
			t = truncateDay(t).AddDate(0, 0, 1)
			matched = true
			continue
		case "yesterday":
			t = truncateDay(t).AddDate(0, 0, -1)
			matched = true
			continue
		}

		amount, err := strconv.Atoi(words[i])
		if err != nil || i+1 >= len(words) {
			return time.Time{}, false
		}
		unit := words[i+1]
		i++
		if i+1 < len(words) && words[i+1] == "ago" {
			amount = -amount
			i++
		}
		shifted, err := addUnits(t, amount, unit)
		if err != nil {
			return time.Time{}, false
		}
		t = shifted
		matched = true
	}
	return t, matched
}

func addUnits(t time.Time, amount int, unit string) (time.Time, error) {
	switch strings.TrimSuffix(unit, "s") {
	case "sec", "second":
		return t.Add(time.Duration(amount) * time.Second), nil
	case "min", "minute":
		return t.Add(time.Duration(amount) * time.Minute), nil
	case "hour":
		return t.Add(time.Duration(amount) * time.Hour), nil
	case "day":
		return t.AddDate(0, 0, amount), nil
	case "week":
		return t.AddDate(0, 0, 7*amount), nil
	case "month":
		return t.AddDate(0, amount, 0), nil
	case "year":
		return t.AddDate(amount, 0, 0), nil
	default:
		return t, fmt.Errorf("unknown time unit %q", unit)
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
