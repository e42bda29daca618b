package schemaforge

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/reoring/schemaforge/internal/datexpr"
)

// clock anchors relative date bounds and date checks.
var clock = time.Now

// MaxLength returns the maximum length and whether it is set.
func (n *Node) MaxLength() (int, bool) { return derefInt(n.maxLength) }

// MinLength returns the minimum length and whether it is set.
func (n *Node) MinLength() (int, bool) { return derefInt(n.minLength) }

func (n *Node) Format() string  { return n.format }
func (n *Node) Pattern() string { return n.pattern }

// PatternError reports a pattern that failed to compile.
func (n *Node) PatternError() error { return n.patternErr }

func (n *Node) SetMaxLength(v int) *Node { n.maxLength = &v; return n }
func (n *Node) SetMinLength(v int) *Node { n.minLength = &v; return n }

// SetFormat records the declared format. It does not change the node kind.
func (n *Node) SetFormat(f string) *Node { n.format = f; return n }

// SetPattern compiles p. PCRE-style delimited patterns ("/^a+$/i") are
// accepted. A pattern that does not compile is kept, reported by PatternError
// and never matches.
func (n *Node) SetPattern(p string) *Node {
	n.pattern = p
	n.re, n.patternErr = compilePattern(p)
	return n
}

func compilePattern(p string) (*regexp.Regexp, error) {
	if p == "" {
		return nil, nil
	}
	expr := p
	if len(p) >= 2 && p[0] == '/' {
		if end := strings.LastIndexByte(p, '/'); end > 0 {
			body, flags := p[1:end], p[end+1:]
			var goFlags strings.Builder
			for _, f := range flags {
				switch f {
				case 'i', 'm', 's':
					goFlags.WriteRune(f)
				case 'u', 'D':
				default:
					return nil, fmt.Errorf("%w: unsupported flag %q in %s", ErrInvalidPattern, f, p)
				}
			}
			expr = body
			if goFlags.Len() > 0 {
				expr = "(?" + goFlags.String() + ")" + body
			}
		}
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

// MinValue returns the resolved lower date bound as YYYY-MM-DD, or "".
func (n *Node) MinValue() string { return formatDate(n.minValue) }

// MaxValue returns the resolved upper date bound as YYYY-MM-DD, or "".
func (n *Node) MaxValue() string { return formatDate(n.maxValue) }

// SetMinValue resolves expr ("-18 years", "2000-01-01", ...) to a calendar
// date now. The stored bound never moves afterwards.
func (n *Node) SetMinValue(expr string) error {
	t, err := resolveDate(expr)
	if err != nil {
		return err
	}
	n.minValue = t
	return nil
}

// SetMaxValue resolves expr to a calendar date now.
func (n *Node) SetMaxValue(expr string) error {
	t, err := resolveDate(expr)
	if err != nil {
		return err
	}
	n.maxValue = t
	return nil
}

func resolveDate(expr string) (*time.Time, error) {
	t, err := datexpr.Date(expr, clock())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return datexpr.Format(*t)
}

// Options returns the enum options.
func (n *Node) Options() []any { return n.options }

// SetOptions replaces the enum options.
func (n *Node) SetOptions(opts ...any) *Node { n.options = opts; return n }

// Ref returns the definition id a reference node points at.
func (n *Node) Ref() string { return n.ref }

func (n *Node) SetRef(ref string) *Node { n.ref = ref; return n }

func derefInt(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
