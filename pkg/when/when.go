// Package when resolves user-typed time expressions into zone-aware instants.
package when

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrTimeParse reports that a time expression matched none of the known grammars.
var ErrTimeParse = errors.New("unrecognized time expression")

const defaultHour = 9 // "завтра" with no time means 09:00

// Resolve converts text into an absolute instant in loc. Recognized forms,
// tried in order:
//   - relative: "+30m", "+2h"/"+2ч", "+1d"/"+1д", counted from now
//   - "завтра [HH:MM]" / "tomorrow [HH:MM]", 09:00 when the time is omitted
//   - "сегодня [HH:MM]" / "today [HH:MM]"
//   - anything else goes to a general month-first date parser
//
// Callers must sample now fresh per call so relative math is accurate.
func Resolve(text string, now time.Time, loc *time.Location) (time.Time, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	now = now.In(loc)

	if strings.HasPrefix(text, "+") {
		return resolveRelative(text, now)
	}
	for _, word := range []string{"завтра", "tomorrow"} {
		if strings.HasPrefix(text, word) {
			return resolveDayWord(strings.TrimPrefix(text, word), now.AddDate(0, 0, 1), loc)
		}
	}
	for _, word := range []string{"сегодня", "today"} {
		if strings.HasPrefix(text, word) {
			return resolveDayWord(strings.TrimPrefix(text, word), now, loc)
		}
	}

	t, err := dateparse.ParseIn(text, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimeParse, text)
	}
	return t.In(loc), nil
}

func resolveRelative(text string, now time.Time) (time.Time, error) {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimeParse, text)
	}
	switch {
	case strings.HasSuffix(text, "m"):
		return now.Add(time.Duration(n) * time.Minute), nil
	case strings.HasSuffix(text, "h"), strings.HasSuffix(text, "ч"):
		return now.Add(time.Duration(n) * time.Hour), nil
	case strings.HasSuffix(text, "d"), strings.HasSuffix(text, "д"):
		return now.AddDate(0, 0, n), nil
	}
	return time.Time{}, fmt.Errorf("%w: relative forms are +30m, +2h, +1d", ErrTimeParse)
}

// resolveDayWord combines base's calendar date with an optional trailing
// time-of-day token.
func resolveDayWord(rest string, base time.Time, loc *time.Location) (time.Time, error) {
	hour, minute := defaultHour, 0
	if fields := strings.Fields(rest); len(fields) > 0 {
		tod, err := parseTimeOfDay(fields[0], loc)
		if err != nil {
			return time.Time{}, err
		}
		hour, minute = tod.Hour(), tod.Minute()
	}
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, loc), nil
}

func parseTimeOfDay(token string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse("15:04", token); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(token, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time of day %q", ErrTimeParse, token)
	}
	return t, nil
}
