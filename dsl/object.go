package dsl

import (
	"fmt"

	"github.com/reoring/schemaforge"
)

type entry struct {
	name      string
	part      Part
	dependsOn string
}

// ObjectBuilder declares an object part. Fields keep their declaration order.
type ObjectBuilder struct {
	common
	fields   []entry
	required map[string]struct{}
	defs     []entry
	ifPart   *ObjectBuilder
	thenPart *ObjectBuilder
}

type fieldStep struct {
	b    *ObjectBuilder
	name string
}

// Object creates an empty object builder.
func Object() *ObjectBuilder {
	return &ObjectBuilder{required: map[string]struct{}{}}
}

// Field registers a property. Registering a name again replaces the part
// and keeps its position.
func (b *ObjectBuilder) Field(name string, p Part) *fieldStep {
	for i := range b.fields {
		if b.fields[i].name == name {
			b.fields[i].part = p
			return &fieldStep{b: b, name: name}
		}
	}
	b.fields = append(b.fields, entry{name: name, part: p})
	return &fieldStep{b: b, name: name}
}

// Required marks the field as required and returns the builder.
func (f *fieldStep) Required() *ObjectBuilder {
	f.b.required[f.name] = struct{}{}
	return f.b
}

// Optional marks the field as optional (default) and returns the builder.
func (f *fieldStep) Optional() *ObjectBuilder {
	delete(f.b.required, f.name)
	return f.b
}

// DependsOn makes the field depend on the sibling property id.
func (f *fieldStep) DependsOn(id string) *ObjectBuilder {
	for i := range f.b.fields {
		if f.b.fields[i].name == f.name {
			f.b.fields[i].dependsOn = id
		}
	}
	return f.b
}

func (f *fieldStep) Field(name string, p Part) *fieldStep          { return f.b.Field(name, p) }
func (f *fieldStep) Definition(name string, p Part) *ObjectBuilder { return f.b.Definition(name, p) }
func (f *fieldStep) When(cond, then *ObjectBuilder) *ObjectBuilder { return f.b.When(cond, then) }
func (f *fieldStep) Build() (*schemaforge.Node, error)             { return f.b.Build() }
func (f *fieldStep) MustBuild() *schemaforge.Node                  { return f.b.MustBuild() }

// Require marks one or more fields as required.
func (b *ObjectBuilder) Require(names ...string) *ObjectBuilder {
	for _, n := range names {
		b.required[n] = struct{}{}
	}
	return b
}

// Definition registers a definition reachable through Ref(name). Only the
// definitions of the built root are consulted.
func (b *ObjectBuilder) Definition(name string, p Part) *ObjectBuilder {
	b.defs = append(b.defs, entry{name: name, part: p})
	return b
}

// When validates then against the whole object whenever cond passes.
func (b *ObjectBuilder) When(cond, then *ObjectBuilder) *ObjectBuilder {
	b.ifPart, b.thenPart = cond, then
	return b
}

func (b *ObjectBuilder) Description(s string) *ObjectBuilder {
	b.add(setter(func(n *schemaforge.Node) { n.SetDescription(s) }))
	return b
}

func (b *ObjectBuilder) Inline() *ObjectBuilder {
	b.add(setter(func(n *schemaforge.Node) { n.SetInline(true) }))
	return b
}

func (b *ObjectBuilder) MergeStrategy(s schemaforge.MergeStrategy) *ObjectBuilder {
	b.add(setter(func(n *schemaforge.Node) { n.SetMergeStrategy(s) }))
	return b
}

// Validator attaches a remote validator to the object itself.
func (b *ObjectBuilder) Validator(url, method string, fields map[string]string) *ObjectBuilder {
	b.add(setter(func(n *schemaforge.Node) { n.AddValidator(schemaforge.NewValidator(url, method, fields)) }))
	return b
}

// Source attaches a remote sub-schema source.
func (b *ObjectBuilder) Source(url, method string, fields map[string]string) *ObjectBuilder {
	b.add(setter(func(n *schemaforge.Node) { n.SetSource(schemaforge.NewSource(url, method, fields)) }))
	return b
}

func (b *ObjectBuilder) OneOf(items ...Part) *ObjectBuilder { b.compose(schemaforge.OneOf, items); return b }
func (b *ObjectBuilder) AnyOf(items ...Part) *ObjectBuilder { b.compose(schemaforge.AnyOf, items); return b }
func (b *ObjectBuilder) AllOf(items ...Part) *ObjectBuilder { b.compose(schemaforge.AllOf, items); return b }
func (b *ObjectBuilder) Not(item Part) *ObjectBuilder       { b.compose(schemaforge.Not, []Part{item}); return b }

// Build returns the root node ("#").
func (b *ObjectBuilder) Build() (*schemaforge.Node, error) {
	return b.node(schemaforge.RootID)
}

// MustBuild is like Build but panics on error.
func (b *ObjectBuilder) MustBuild() *schemaforge.Node {
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}

func (b *ObjectBuilder) node(id string) (*schemaforge.Node, error) {
	n := schemaforge.NewObject(id)
	for _, d := range b.defs {
		child, err := d.part.node(d.name)
		if err != nil {
			return nil, wrap(id, err)
		}
		n.AddDefinition(child)
	}
	for _, f := range b.fields {
		child, err := f.part.node(f.name)
		if err != nil {
			return nil, wrap(id, err)
		}
		if _, ok := b.required[f.name]; ok {
			child.SetRequired(true)
		}
		if f.dependsOn != "" {
			child.SetDependsOn(f.dependsOn)
		}
		n.AddProperty(child)
	}
	for name := range b.required {
		if n.Property(name) == nil {
			return nil, wrap(id, fmt.Errorf("required %q: %w", name, schemaforge.ErrPropertyNotFound))
		}
	}
	if (b.ifPart == nil) != (b.thenPart == nil) {
		return nil, wrap(id, schemaforge.ErrIncompleteCondition)
	}
	if b.ifPart != nil {
		cond, err := b.ifPart.node("")
		if err != nil {
			return nil, wrap(id, fmt.Errorf("if: %w", err))
		}
		then, err := b.thenPart.node("")
		if err != nil {
			return nil, wrap(id, fmt.Errorf("then: %w", err))
		}
		n.SetCondition(cond, then)
	}
	if err := b.apply(n); err != nil {
		return nil, err
	}
	return n, nil
}

func wrap(id string, err error) error {
	if id == "" {
		return err
	}
	return fmt.Errorf("%s/%w", id, err)
}
