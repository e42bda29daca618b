package schemaforge

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// RootID is the id of the root node of a schema tree.
const RootID = "#"

// PathSeparator joins node ids into full paths.
const PathSeparator = "/"

// Kind is the closed set of node variants.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindEmailString
	KindDateString
	KindBoolean
	KindEnum
	KindObject
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindEmailString:
		return "email"
	case KindDateString:
		return "date"
	case KindBoolean:
		return "boolean"
	case KindEnum:
		return "enum"
	case KindObject:
		return "object"
	case KindReference:
		return "reference"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// TypeName is the declared "type" value of the kind. The string family shares
// "string" and is told apart by its format.
func (k Kind) TypeName() string {
	switch k {
	case KindString, KindEmailString, KindDateString:
		return "string"
	case KindReference:
		return "ref"
	}
	return k.String()
}

// MergeStrategy selects how an overlay node combines with its base.
type MergeStrategy string

const (
	MergeAdd     MergeStrategy = "add"
	MergeReplace MergeStrategy = "replace"
	MergeRemove  MergeStrategy = "remove"
)

// ParseMergeStrategy validates a declared merge strategy.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch MergeStrategy(s) {
	case MergeAdd, MergeReplace, MergeRemove:
		return MergeStrategy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMergeStrategy, s)
}

// CompositionOp is the operator of a composition.
type CompositionOp string

const (
	AllOf CompositionOp = "allOf"
	AnyOf CompositionOp = "anyOf"
	OneOf CompositionOp = "oneOf"
	Not   CompositionOp = "not"
)

// CompositionOps lists the operators in declaration-key lookup order.
var CompositionOps = []CompositionOp{OneOf, AnyOf, AllOf, Not}

// Composition attaches sub-schemas that the owning node's input must satisfy
// according to Op.
type Composition struct {
	Op    CompositionOp
	Items []*Node
}

// Node is a schema tree node. The common record is shared by every Kind;
// variant fields are only meaningful for their Kind.
type Node struct {
	id       string
	kind     Kind
	parent   *Node
	anchor   *Node // owning object of an if/then branch; used for root lookup only
	strategy MergeStrategy

	required    *bool
	inline      *bool
	description *string
	def         any
	constant    any
	dependsOn   string

	validators  []*Validator
	source      *Source
	composition *Composition

	// string family
	maxLength  *int
	minLength  *int
	format     string
	pattern    string
	re         *regexp.Regexp
	patternErr error

	// date
	minValue *time.Time
	maxValue *time.Time

	// enum
	options []any

	// reference
	ref string

	// object
	properties  nodeMap
	definitions nodeMap
	ifNode      *Node
	thenNode    *Node
}

func newNode(id string, kind Kind) *Node {
	return &Node{id: id, kind: kind, strategy: MergeAdd}
}

// NewNull returns a node that accepts anything. Merge uses it as a tombstone
// for removed nodes.
func NewNull(id string) *Node { return newNode(id, KindNull) }

// NewString returns a plain string node.
func NewString(id string) *Node { return newNode(id, KindString) }

// NewEmailString returns a string node that also checks email syntax.
func NewEmailString(id string) *Node {
	n := newNode(id, KindEmailString)
	n.format = "email"
	return n
}

// NewDateString returns a string node that also checks calendar dates.
func NewDateString(id string) *Node {
	n := newNode(id, KindDateString)
	n.format = "date"
	return n
}

// NewBoolean returns a boolean node.
func NewBoolean(id string) *Node { return newNode(id, KindBoolean) }

// NewEnum returns an enum node with the given options.
func NewEnum(id string, options ...any) *Node {
	n := newNode(id, KindEnum)
	n.options = options
	return n
}

// NewReference returns a node resolved through the root's definition ref.
func NewReference(id, ref string) *Node {
	n := newNode(id, KindReference)
	n.ref = ref
	return n
}

// NewObject returns an object node without properties.
func NewObject(id string) *Node { return newNode(id, KindObject) }

func (n *Node) ID() string                   { return n.id }
func (n *Node) Kind() Kind                   { return n.kind }
func (n *Node) Parent() *Node                { return n.parent }
func (n *Node) MergeStrategy() MergeStrategy { return n.strategy }
func (n *Node) DependsOn() string            { return n.dependsOn }
func (n *Node) Default() any                 { return n.def }
func (n *Node) Const() any                   { return n.constant }
func (n *Node) Validators() []*Validator     { return n.validators }
func (n *Node) Source() *Source              { return n.source }
func (n *Node) Composition() *Composition    { return n.composition }
func (n *Node) IsRequired() bool             { return n.required != nil && *n.required }
func (n *Node) IsInline() bool               { return n.inline != nil && *n.inline }

// Description returns the description, or "" when unset.
func (n *Node) Description() string {
	if n.description == nil {
		return ""
	}
	return *n.description
}

func (n *Node) SetRequired(v bool) *Node      { n.required = &v; return n }
func (n *Node) SetInline(v bool) *Node        { n.inline = &v; return n }
func (n *Node) SetDescription(s string) *Node { n.description = &s; return n }
func (n *Node) SetDefault(v any) *Node        { n.def = v; return n }
func (n *Node) SetConst(v any) *Node          { n.constant = v; return n }
func (n *Node) SetDependsOn(id string) *Node  { n.dependsOn = id; return n }
func (n *Node) SetSource(src *Source) *Node   { n.source = src; return n }
func (n *Node) SetMergeStrategy(s MergeStrategy) *Node {
	n.strategy = s
	return n
}

// SetReadonly fixes the node's value: it becomes both the const and the
// default.
func (n *Node) SetReadonly(v any) *Node {
	n.constant = v
	n.def = v
	return n
}

// AddValidator appends v. A validator with the same URL is replaced in place.
func (n *Node) AddValidator(v *Validator) *Node {
	for i, cur := range n.validators {
		if cur.URL == v.URL {
			n.validators[i] = v
			return n
		}
	}
	n.validators = append(n.validators, v)
	return n
}

// SetComposition attaches a composition. Items become children of n.
func (n *Node) SetComposition(op CompositionOp, items ...*Node) *Node {
	for _, it := range items {
		it.parent = n
	}
	n.composition = &Composition{Op: op, Items: items}
	return n
}

// FullPath joins the non-empty ids from the root down to n.
func (n *Node) FullPath() string {
	var ids []string
	for cur := n; cur != nil; cur = cur.parent {
		if cur.id != "" {
			ids = append(ids, cur.id)
		}
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return strings.Join(ids, PathSeparator)
}

// Root returns the nearest ancestor whose id is RootID, or the topmost
// ancestor when there is none. if/then branches resolve through their owning
// object.
func (n *Node) Root() *Node {
	cur := n
	for cur.id != RootID {
		next := cur.parent
		if next == nil {
			next = cur.anchor
		}
		if next == nil {
			break
		}
		cur = next
	}
	return cur
}

// nodeMap is an insertion-ordered id -> node map.
type nodeMap struct {
	keys []string
	byID map[string]*Node
}

func (m *nodeMap) set(n *Node) {
	if m.byID == nil {
		m.byID = map[string]*Node{}
	}
	if _, ok := m.byID[n.id]; !ok {
		m.keys = append(m.keys, n.id)
	}
	m.byID[n.id] = n
}

func (m *nodeMap) get(id string) *Node { return m.byID[id] }

func (m *nodeMap) len() int { return len(m.keys) }

func (m *nodeMap) list() []*Node {
	out := make([]*Node, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.byID[k])
	}
	return out
}

func (m *nodeMap) reset() {
	m.keys = nil
	m.byID = nil
}
