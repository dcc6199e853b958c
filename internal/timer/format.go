package timer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Format renders d as H:MM:SS, e.g. 0:05:00.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
}

// Danish renders d in words, e.g. "1 time og 30 minutter".
func Danish(d time.Duration) string {
	s := int(d / time.Second)
	if s <= 0 {
		return "0 sekunder"
	}
	h, m, sec := s/3600, s/60%60, s%60

	var parts []string
	if h > 0 {
		parts = append(parts, plural(h, "time", "timer"))
	}
	if m > 0 {
		parts = append(parts, plural(m, "minut", "minutter"))
	}
	if sec > 0 {
		parts = append(parts, plural(sec, "sekund", "sekunder"))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " og " + parts[len(parts)-1]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}

var danishUnit = regexp.MustCompile(`(\d+)\s*(timer|time|t|minutter|minut|min|m|sekunder|sekund|sek|s)\b`)

// ParseDuration accepts H:MM:SS, MM:SS, Go durations ("5m30s"), plain
// seconds ("300") and Danish phrases ("1 time og 5 minutter").
func ParseDuration(raw string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if strings.Contains(s, ":") {
		return parseClock(s)
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && n >= 0 {
		return time.Duration(n * float64(time.Second)), nil
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d, nil
	}

	matches := danishUnit.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("unrecognised duration %q", raw)
	}
	var d time.Duration
	for _, m := range matches {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "timer", "time", "t":
			d += time.Duration(n) * time.Hour
		case "minutter", "minut", "min", "m":
			d += time.Duration(n) * time.Minute
		default:
			d += time.Duration(n) * time.Second
		}
	}
	return d, nil
}

func parseClock(s string) (time.Duration, error) {
	fields := strings.Split(s, ":")
	if len(fields) > 3 {
		return 0, fmt.Errorf("unrecognised duration %q", s)
	}
	var total int
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("unrecognised duration %q", s)
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, nil
}

// SameDuration reports whether spoken matches d, either numerically or,
// failing a parse, by the H:MM:SS text with "00:" normalised to "0:".
func SameDuration(d time.Duration, spoken string) bool {
	if parsed, err := ParseDuration(spoken); err == nil {
		return parsed.Truncate(time.Second) == d.Truncate(time.Second)
	}
	norm := func(s string) string { return strings.ReplaceAll(strings.TrimSpace(s), "00:", "0:") }
	return norm(Format(d)) == norm(spoken)
}
