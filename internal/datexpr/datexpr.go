// Package datexpr parses the date expressions accepted by date nodes: absolute
// calendar dates ("2020-01-31", "31 January 2020", RFC 3339 timestamps) and
// relative phrases anchored at a reference time ("-1 year", "now -1 year",
// "2 weeks ago", "next monday", "first day of next month").
package datexpr

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical calendar-date rendering.
const Layout = "2006-01-02"

// ErrSyntax is returned for expressions that are neither dates nor offsets.
var ErrSyntax = errors.New("datexpr: unrecognized date expression")

var absoluteLayouts = []string{
	Layout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"02.01.2006",
	"01/02/2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var (
	baseRe     = regexp.MustCompile(`^(now|today|midnight|noon|tomorrow|yesterday)\b`)
	dayOfRe    = regexp.MustCompile(`^(first|last) day of\b`)
	offsetRe   = regexp.MustCompile(`^([+-]?)\s*(\d+)\s*([a-z]+)\b`)
	relativeRe = regexp.MustCompile(`^(next|last|previous|this)\s+([a-z]+)\b`)
	wordRe     = regexp.MustCompile(`^([a-z]+)\b`)
	agoRe      = regexp.MustCompile(`^ago$`)
)

// phrase collects the parts of a relative expression before they are applied.
type phrase struct {
	base       string
	years      int
	months     int
	days       int
	dur        time.Duration
	weekday    *time.Weekday
	weekdayDir int // -1 last, 0 this, +1 next
	firstOf    bool
	lastOf     bool
	any        bool
}

// Parse resolves expr relative to now. Absolute dates are interpreted in
// now's location.
func Parse(expr string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrSyntax)
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t, nil
		}
	}

	p, err := parsePhrase(strings.ToLower(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", err, expr)
	}
	return p.apply(now), nil
}

func parsePhrase(s string) (*phrase, error) {
	p := &phrase{}
	var ago bool
	for s = strings.TrimSpace(s); s != ""; s = strings.TrimSpace(s) {
		if m := baseRe.FindStringSubmatch(s); m != nil && p.base == "" && !p.any {
			p.base = m[1]
			s = s[len(m[0]):]
			continue
		}
		if m := dayOfRe.FindStringSubmatch(s); m != nil {
			p.firstOf, p.lastOf = m[1] == "first", m[1] == "last"
			p.any = true
			s = s[len(m[0]):]
			continue
		}
		if m := offsetRe.FindStringSubmatch(s); m != nil {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, ErrSyntax
			}
			if m[1] == "-" {
				n = -n
			}
			if err := p.shift(n, m[3]); err != nil {
				return nil, err
			}
			s = s[len(m[0]):]
			continue
		}
		if m := relativeRe.FindStringSubmatch(s); m != nil {
			dir := map[string]int{"next": 1, "last": -1, "previous": -1, "this": 0}[m[1]]
			if wd, ok := weekdays[m[2]]; ok {
				p.setWeekday(wd, dir)
			} else if err := p.shift(dir, m[2]); err != nil {
				return nil, err
			}
			s = s[len(m[0]):]
			continue
		}
		if m := wordRe.FindStringSubmatch(s); m != nil {
			if wd, ok := weekdays[m[1]]; ok {
				p.setWeekday(wd, 0)
				s = s[len(m[0]):]
				continue
			}
		}
		if agoRe.MatchString(s) && p.any {
			ago = true
			break
		}
		return nil, ErrSyntax
	}
	if p.base == "" && !p.any {
		return nil, ErrSyntax
	}
	if ago {
		p.years, p.months, p.days, p.dur = -p.years, -p.months, -p.days, -p.dur
	}
	return p, nil
}

func (p *phrase) setWeekday(wd time.Weekday, dir int) {
	p.weekday = &wd
	p.weekdayDir = dir
	p.any = true
}

func (p *phrase) shift(n int, unit string) error {
	switch strings.TrimSuffix(unit, "s") {
	case "sec", "second":
		p.dur += time.Duration(n) * time.Second
	case "min", "minute":
		p.dur += time.Duration(n) * time.Minute
	case "hour":
		p.dur += time.Duration(n) * time.Hour
	case "day":
		p.days += n
	case "week":
		p.days += 7 * n
	case "fortnight":
		p.days += 14 * n
	case "month":
		p.months += n
	case "year":
		p.years += n
	default:
		return fmt.Errorf("%w: unit %q", ErrSyntax, unit)
	}
	p.any = true
	return nil
}

// apply resolves the phrase: base time, then offsets, then the weekday, with
// "first/last day of" pinning the day before month arithmetic overflows.
func (p *phrase) apply(now time.Time) time.Time {
	t := now
	switch p.base {
	case "today", "midnight":
		t = Truncate(now)
	case "noon":
		t = Truncate(now).Add(12 * time.Hour)
	case "tomorrow":
		t = Truncate(now).AddDate(0, 0, 1)
	case "yesterday":
		t = Truncate(now).AddDate(0, 0, -1)
	}
	if p.firstOf || p.lastOf {
		t = t.AddDate(0, 0, 1-t.Day())
	}
	t = t.AddDate(p.years, p.months, p.days).Add(p.dur)
	if p.lastOf {
		t = t.AddDate(0, 1, -1)
	}
	if p.weekday != nil {
		t = Truncate(t)
		diff := int(*p.weekday - t.Weekday())
		switch p.weekdayDir {
		case 1:
			if diff <= 0 {
				diff += 7
			}
		case -1:
			if diff >= 0 {
				diff -= 7
			}
		default:
			if diff < 0 {
				diff += 7
			}
		}
		t = t.AddDate(0, 0, diff)
	}
	return t
}

// Truncate drops the time of day, keeping the location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Date parses expr and truncates the result to a calendar date.
func Date(expr string, now time.Time) (time.Time, error) {
	t, err := Parse(expr, now)
	if err != nil {
		return time.Time{}, err
	}
	return Truncate(t), nil
}

// Format renders t as YYYY-MM-DD.
func Format(t time.Time) string { return t.Format(Layout) }
