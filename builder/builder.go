// Package builder assembles a publishable schema from one or more loaded
// configs: roots are merged in order, variables and customData are layered,
// and Generate renders the result with inline definitions flattened and
// {{variable}} placeholders filled.
package builder

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/loader"
)

var (
	// ErrVariableNotSet is returned by Generate for a placeholder without a
	// variable.
	ErrVariableNotSet = errors.New("builder: variable not set")
	// ErrReference is returned by Generate for a reference property without a
	// resolvable target.
	ErrReference = errors.New("builder: unresolved reference")
	// ErrCompositionConflict is returned by Schema when both root-level oneOf
	// and allOf lists are present.
	ErrCompositionConflict = errors.New("builder: root oneOf and allOf cannot be combined")
)

// Output keys added on top of the root export.
const (
	KeyVariables  = loader.KeyVariables
	KeyCustomData = loader.KeyCustomData
	KeyOneOf      = loader.KeyOneOf
	KeyAllOf      = loader.KeyAllOf
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// Builder accumulates configs. It is not safe for concurrent use.
type Builder struct {
	id         string
	log        *zap.Logger
	root       *schemaforge.Node
	variables  map[string]any
	customData map[string]any
	oneOf      []any
	allOf      []any
	// attached is the composition Schema put on root.
	attached   *schemaforge.Composition
}

// New returns an empty Builder. id only appears in error messages.
func New(id string, opts ...Option) *Builder {
	b := &Builder{id: id, log: zap.NewNop(), variables: map[string]any{}, customData: map[string]any{}}
	for _, o := range opts {
		o(b)
	}
	b.log = b.log.With(zap.String("builder", id))
	return b
}

// AddConfig layers cfg over what was added before.
func (b *Builder) AddConfig(cfg *loader.Config) *Builder {
	if cfg == nil {
		return b
	}
	if cfg.Root != nil {
		b.AddRoot(cfg.Root)
	}
	b.AddVariables(cfg.Variables)
	b.AddCustomData(cfg.CustomData)
	if len(cfg.OneOf) > 0 {
		b.oneOf = append(b.oneOf, cfg.OneOf...)
	}
	if len(cfg.AllOf) > 0 {
		b.allOf = cfg.AllOf
	}
	if b.root != nil {
		b.log.Debug("config added",
			zap.Int("properties", len(b.root.Properties())),
			zap.Int("variables", len(b.variables)))
	}
	return b
}

// AddRoot adopts root, or merges it over the current root.
func (b *Builder) AddRoot(root *schemaforge.Node) *Builder {
	if b.root == nil {
		b.root = root
		return b
	}
	b.root = schemaforge.Merge(b.root, root)
	return b
}

// AddVariables sets variables; later values win.
func (b *Builder) AddVariables(vars map[string]any) *Builder {
	for k, v := range vars {
		b.variables[k] = v
	}
	return b
}

// AddCustomData merges data recursively; later leaves win.
func (b *Builder) AddCustomData(data map[string]any) *Builder {
	if len(data) > 0 {
		b.customData = replaceRecursive(b.customData, data)
	}
	return b
}

// Root returns the merged root, or nil before the first config.
func (b *Builder) Root() *schemaforge.Node { return b.root }

func (b *Builder) Variables() map[string]any  { return b.variables }
func (b *Builder) CustomData() map[string]any { return b.customData }
func (b *Builder) OneOf() []any               { return b.oneOf }
func (b *Builder) AllOf() []any               { return b.allOf }

// Generate renders the schema. The public rendering flattens inline
// definitions and fills variables; the private one carries the variables as
// a plain map and round-trips through loader.FromMap. Empty top-level
// entries are dropped.
func (b *Builder) Generate(public bool) (map[string]any, error) {
	root := b.root
	if root == nil {
		root = schemaforge.NewObject(schemaforge.RootID)
	}
	out, _ := deepCopy(root.Export(public)).(map[string]any)

	if public {
		if defs, _ := out[schemaforge.KeyDefinitions].(map[string]any); len(defs) > 0 {
			if err := flattenInline(out, defs); err != nil {
				return nil, err
			}
		}
		if props, ok := out[schemaforge.KeyProperties]; ok {
			filled, err := b.fill(props)
			if err != nil {
				return nil, err
			}
			out[schemaforge.KeyProperties] = filled
		}
	} else {
		out[KeyVariables] = deepCopy(b.variables)
	}
	if len(b.customData) > 0 {
		out[KeyCustomData] = deepCopy(b.customData)
	}
	if len(b.oneOf) > 0 {
		out[KeyOneOf] = deepCopy(b.oneOf)
	}
	if len(b.allOf) > 0 {
		out[KeyAllOf] = deepCopy(b.allOf)
	}

	for k, v := range out {
		if empty(v) {
			delete(out, k)
		}
	}
	b.log.Debug("schema generated", zap.Bool("public", public), zap.Int("keys", len(out)))
	return out, nil
}

// GenerateJSON is Generate encoded as JSON.
func (b *Builder) GenerateJSON(public bool) ([]byte, error) {
	out, err := b.Generate(public)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// Schema returns a validatable node: the merged root with the root-level
// oneOf or allOf list attached as its composition. Items without a type are
// objects. The root is extended in place.
func (b *Builder) Schema() (*schemaforge.Node, error) {
	if b.root == nil {
		b.root = schemaforge.NewObject(schemaforge.RootID)
	}
	if len(b.oneOf) == 0 && len(b.allOf) == 0 {
		return b.root, nil
	}
	if len(b.oneOf) > 0 && len(b.allOf) > 0 {
		return nil, ErrCompositionConflict
	}
	op, items := schemaforge.OneOf, b.oneOf
	if len(b.allOf) > 0 {
		op, items = schemaforge.AllOf, b.allOf
	}
	if c := b.root.Composition(); c != nil && c != b.attached {
		return nil, fmt.Errorf("%w: root already declares %s", ErrCompositionConflict, c.Op)
	}
	nodes := make([]*schemaforge.Node, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, &schemaforge.BuildError{
				Path:   schemaforge.JoinPath(schemaforge.RootID, string(op), strconv.Itoa(i)),
				Field:  string(op),
				Err:    schemaforge.ErrMalformed,
				Detail: "composition item is not a mapping",
			}
		}
		if _, set := m[schemaforge.KeyType]; !set {
			m = withType(m, "object")
		}
		n, err := schemaforge.FromDeclaration("", m)
		if err != nil {
			return nil, fmt.Errorf("%s item %d: %w", op, i, err)
		}
		nodes = append(nodes, n)
	}
	b.root.SetComposition(op, nodes...)
	b.attached = b.root.Composition()
	return b.root, nil
}

func (b *Builder) fill(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			filled, err := b.fill(item)
			if err != nil {
				return nil, err
			}
			x[k] = filled
		}
		return x, nil
	case []any:
		for i, item := range x {
			filled, err := b.fill(item)
			if err != nil {
				return nil, err
			}
			x[i] = filled
		}
		return x, nil
	case string:
		m := placeholderRe.FindStringSubmatch(x)
		if m == nil {
			return x, nil
		}
		val, ok := b.variables[m[1]]
		if !ok {
			if b.id != "" {
				return nil, fmt.Errorf("%w: %s in %s", ErrVariableNotSet, m[1], b.id)
			}
			return nil, fmt.Errorf("%w: %s", ErrVariableNotSet, m[1])
		}
		return deepCopy(val), nil
	}
	return v, nil
}

func withType(m map[string]any, t string) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[schemaforge.KeyType] = t
	return out
}
