package dsl

import (
	"errors"
	"fmt"

	"github.com/reoring/schemaforge"
)

// ErrKindMismatch is reported by Build when a setting does not apply to the
// part's kind.
var ErrKindMismatch = errors.New("dsl: setting does not apply to this kind")

// Part is a buildable schema fragment: a leaf, an object, or a reference.
type Part interface {
	node(id string) (*schemaforge.Node, error)
}

// mod mutates a freshly constructed node.
type mod func(*schemaforge.Node) error

// common holds the settings every kind understands.
type common struct {
	mods []mod
}

func (c *common) add(m mod) { c.mods = append(c.mods, m) }

func (c *common) apply(n *schemaforge.Node) error {
	for _, m := range c.mods {
		if err := m(n); err != nil {
			return fmt.Errorf("%s: %w", n.ID(), err)
		}
	}
	return nil
}

func (c *common) compose(op schemaforge.CompositionOp, items []Part) {
	c.add(func(n *schemaforge.Node) error {
		nodes := make([]*schemaforge.Node, 0, len(items))
		for i, it := range items {
			child, err := it.node("")
			if err != nil {
				return fmt.Errorf("%s[%d]: %w", op, i, err)
			}
			nodes = append(nodes, child)
		}
		n.SetComposition(op, nodes...)
		return nil
	})
}

// Leaf is a non-object part.
type Leaf struct {
	common
	kind    schemaforge.Kind
	options []any
	ref     string
}

func newLeaf(k schemaforge.Kind) *Leaf { return &Leaf{kind: k} }

func String() *Leaf { return newLeaf(schemaforge.KindString) }
func Email() *Leaf  { return newLeaf(schemaforge.KindEmailString) }
func Date() *Leaf   { return newLeaf(schemaforge.KindDateString) }
func Bool() *Leaf   { return newLeaf(schemaforge.KindBoolean) }
func Null() *Leaf   { return newLeaf(schemaforge.KindNull) }

// Enum returns an enum part with the allowed options.
func Enum(options ...any) *Leaf {
	l := newLeaf(schemaforge.KindEnum)
	l.options = options
	return l
}

// Ref returns a reference to the root definition named def.
func Ref(def string) *Leaf {
	l := newLeaf(schemaforge.KindReference)
	l.ref = def
	return l
}

func (l *Leaf) node(id string) (*schemaforge.Node, error) {
	var n *schemaforge.Node
	switch l.kind {
	case schemaforge.KindNull:
		n = schemaforge.NewNull(id)
	case schemaforge.KindString:
		n = schemaforge.NewString(id)
	case schemaforge.KindEmailString:
		n = schemaforge.NewEmailString(id)
	case schemaforge.KindDateString:
		n = schemaforge.NewDateString(id)
	case schemaforge.KindBoolean:
		n = schemaforge.NewBoolean(id)
	case schemaforge.KindEnum:
		n = schemaforge.NewEnum(id, l.options...)
	case schemaforge.KindReference:
		n = schemaforge.NewReference(id, l.ref)
	default:
		return nil, fmt.Errorf("%s: %w", id, ErrKindMismatch)
	}
	if err := l.apply(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (l *Leaf) stringOnly(setting string, fn func(*schemaforge.Node) error) *Leaf {
	l.add(func(n *schemaforge.Node) error {
		switch n.Kind() {
		case schemaforge.KindString, schemaforge.KindEmailString, schemaforge.KindDateString:
			return fn(n)
		}
		return fmt.Errorf("%s on %s: %w", setting, n.Kind(), ErrKindMismatch)
	})
	return l
}

func (l *Leaf) MaxLength(v int) *Leaf {
	return l.stringOnly(schemaforge.KeyMaxLength, func(n *schemaforge.Node) error { n.SetMaxLength(v); return nil })
}

func (l *Leaf) MinLength(v int) *Leaf {
	return l.stringOnly(schemaforge.KeyMinLength, func(n *schemaforge.Node) error { n.SetMinLength(v); return nil })
}

// Pattern accepts a bare expression or a delimited one such as "/^a/i".
func (l *Leaf) Pattern(p string) *Leaf {
	return l.stringOnly(schemaforge.KeyPattern, func(n *schemaforge.Node) error {
		return n.SetPattern(p).PatternError()
	})
}

// MinDate sets the lower bound of a date part from an expression such as
// "-18 years" or "2000-01-01".
func (l *Leaf) MinDate(expr string) *Leaf {
	return l.dateOnly(schemaforge.KeyMinValue, func(n *schemaforge.Node) error { return n.SetMinValue(expr) })
}

// MaxDate sets the upper bound of a date part.
func (l *Leaf) MaxDate(expr string) *Leaf {
	return l.dateOnly(schemaforge.KeyMaxValue, func(n *schemaforge.Node) error { return n.SetMaxValue(expr) })
}

func (l *Leaf) dateOnly(setting string, fn func(*schemaforge.Node) error) *Leaf {
	l.add(func(n *schemaforge.Node) error {
		if n.Kind() != schemaforge.KindDateString {
			return fmt.Errorf("%s on %s: %w", setting, n.Kind(), ErrKindMismatch)
		}
		return fn(n)
	})
	return l
}

func (l *Leaf) Const(v any) *Leaf {
	l.add(setter(func(n *schemaforge.Node) { n.SetConst(v) }))
	return l
}

func (l *Leaf) Default(v any) *Leaf {
	l.add(setter(func(n *schemaforge.Node) { n.SetDefault(v) }))
	return l
}

// Readonly pins the value: it becomes both the const and the default.
func (l *Leaf) Readonly(v any) *Leaf {
	l.add(setter(func(n *schemaforge.Node) { n.SetReadonly(v) }))
	return l
}

func (l *Leaf) Description(s string) *Leaf {
	l.add(setter(func(n *schemaforge.Node) { n.SetDescription(s) }))
	return l
}

func (l *Leaf) Inline() *Leaf {
	l.add(setter(func(n *schemaforge.Node) { n.SetInline(true) }))
	return l
}

func (l *Leaf) MergeStrategy(s schemaforge.MergeStrategy) *Leaf {
	l.add(setter(func(n *schemaforge.Node) { n.SetMergeStrategy(s) }))
	return l
}

// Validator attaches a remote field validator.
func (l *Leaf) Validator(url, method string, fields map[string]string) *Leaf {
	l.add(setter(func(n *schemaforge.Node) { n.AddValidator(schemaforge.NewValidator(url, method, fields)) }))
	return l
}

// Source attaches a remote sub-schema source.
func (l *Leaf) Source(url, method string, fields map[string]string) *Leaf {
	l.add(setter(func(n *schemaforge.Node) { n.SetSource(schemaforge.NewSource(url, method, fields)) }))
	return l
}

func (l *Leaf) OneOf(items ...Part) *Leaf { l.compose(schemaforge.OneOf, items); return l }
func (l *Leaf) AnyOf(items ...Part) *Leaf { l.compose(schemaforge.AnyOf, items); return l }
func (l *Leaf) AllOf(items ...Part) *Leaf { l.compose(schemaforge.AllOf, items); return l }
func (l *Leaf) Not(item Part) *Leaf       { l.compose(schemaforge.Not, []Part{item}); return l }

func setter(fn func(*schemaforge.Node)) mod {
	return func(n *schemaforge.Node) error { fn(n); return nil }
}
