package schemaforge

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/reoring/schemaforge/internal/datexpr"
)

var formats = validator.New()

// checkString applies length and pattern bounds to the string rendering of
// input, whatever its type.
func (s *session) checkString(n *Node, input any) Issues {
	path := n.FullPath()
	str := display(input)
	length := utf8.RuneCountInString(str)
	var out Issues
	if hi, ok := n.MaxLength(); ok && length > hi {
		out = append(out, s.issue(path, CodeMoreThanMaxLength, map[string]any{"length": length, "max": hi}))
	}
	if lo, ok := n.MinLength(); ok && length < lo {
		out = append(out, s.issue(path, CodeLessThanMinLength, map[string]any{"length": length, "min": lo}))
	}
	if n.pattern != "" && (n.re == nil || !n.re.MatchString(str)) {
		out = append(out, s.issue(path, CodeRegexpIsNotMatch, map[string]any{"value": str, "pattern": n.pattern}))
	}
	return out
}

func (s *session) checkEmail(n *Node, input any) Issues {
	str := display(input)
	if validEmail(str) {
		return nil
	}
	return Issues{s.issue(n.FullPath(), CodeNotValidEmail, map[string]any{"value": str})}
}

// validEmail accepts a bare address with a dotted domain.
func validEmail(s string) bool {
	if formats.Var(s, "required,email") != nil {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

// checkDate parses input as a date and applies the bounds. Empty input stands
// for the current time. A bound in the
// past is an age limit: for minValue the date must not be after it, for
// maxValue not before it. A bound in the future is a plain limit.
func (s *session) checkDate(n *Node, input any) Issues {
	path := n.FullPath()
	str := display(input)
	now := clock()
	date := now
	if str != "" {
		d, err := datexpr.Parse(str, now)
		if err != nil {
			return Issues{s.issue(path, CodeNotValidDate, map[string]any{"value": str})}
		}
		date = d
	}
	var out Issues
	if lo := n.minValue; lo != nil {
		if (lo.Before(now) && date.After(*lo)) || (!lo.Before(now) && date.Before(*lo)) {
			out = append(out, s.issue(path, CodeLessThanMinValue, map[string]any{"value": str, "min": n.MinValue()}))
		}
	}
	if hi := n.maxValue; hi != nil {
		if (hi.After(now) && date.After(*hi)) || (!hi.After(now) && date.Before(*hi)) {
			out = append(out, s.issue(path, CodeMoreThanMaxValue, map[string]any{"value": str, "max": n.MaxValue()}))
		}
	}
	return out
}

func (s *session) checkBoolean(n *Node, input any) Issues {
	if _, ok := input.(bool); ok {
		return nil
	}
	return Issues{s.issue(n.FullPath(), CodeNotBoolean, map[string]any{"value": input})}
}

func (s *session) checkEnum(n *Node, input any) Issues {
	for _, o := range n.options {
		if equalValues(input, o) {
			return nil
		}
	}
	opts := make([]string, len(n.options))
	for i, o := range n.options {
		opts[i] = display(o)
	}
	params := map[string]any{"value": input, "options": strings.Join(opts, "|")}
	return Issues{s.issue(n.FullPath(), CodeNotInOptions, params)}
}
