package builder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/reoring/schemaforge"
)

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// overridable keys keep the property's own value when a definition is
// inlined over it.
var overridable = []string{
	schemaforge.KeyDefault, schemaforge.KeyConst, schemaforge.KeyRequired, schemaforge.KeyDescription,
}

var compositionKeys = []string{
	string(schemaforge.Not), string(schemaforge.OneOf), string(schemaforge.AllOf), string(schemaforge.AnyOf),
}

// flattenInline replaces references to inline definitions with the
// definition itself and drops those definitions from root.
func flattenInline(root map[string]any, defs map[string]any) error {
	if props, ok := root[schemaforge.KeyProperties].(map[string]any); ok {
		if err := inlineProperties(props, defs); err != nil {
			return err
		}
	}
	kept := make(map[string]any, len(defs))
	for id, d := range defs {
		if !isInline(d) {
			kept[id] = d
		}
	}
	root[schemaforge.KeyDefinitions] = kept
	return nil
}

func inlineProperties(props map[string]any, defs map[string]any) error {
	for id, raw := range props {
		p, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		out, err := inlineProperty(id, p, defs)
		if err != nil {
			return err
		}
		props[id] = out
	}
	return nil
}

func inlineProperty(id string, p map[string]any, defs map[string]any) (map[string]any, error) {
	for _, key := range compositionKeys {
		items, _ := p[key].([]any)
		for i, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			out, err := inlineProperty(fmt.Sprint(i), item, defs)
			if err != nil {
				return nil, err
			}
			items[i] = out
		}
	}

	switch p[schemaforge.KeyType] {
	case "object":
		if props, ok := p[schemaforge.KeyProperties].(map[string]any); ok {
			return p, inlineProperties(props, defs)
		}
		return p, nil
	case "ref":
	default:
		return p, nil
	}

	ref, _ := p[schemaforge.KeyDollarRef].(string)
	if ref == "" {
		return nil, fmt.Errorf("%w: %s has no $ref field", ErrReference, id)
	}
	target := strings.TrimPrefix(ref, schemaforge.DefinitionsPrefix)
	def, ok := defs[target].(map[string]any)
	if !ok || len(def) == 0 {
		return nil, fmt.Errorf("%w: %s reference not found", ErrReference, target)
	}
	if !isInline(def) {
		return p, nil
	}

	def, _ = deepCopy(def).(map[string]any)
	for _, k := range overridable {
		if !empty(p[k]) {
			delete(def, k)
		}
	}
	for k, v := range def {
		p[k] = v
	}
	if p[schemaforge.KeyType] != "ref" {
		delete(p, schemaforge.KeyDollarRef)
	} else {
		out, err := inlineProperty(id, p, defs)
		if err != nil {
			return nil, err
		}
		p = out
	}
	if props, ok := p[schemaforge.KeyProperties].(map[string]any); ok && p[schemaforge.KeyType] == "object" {
		if err := inlineProperties(props, defs); err != nil {
			return nil, err
		}
	}
	delete(p, schemaforge.KeyInline)
	return p, nil
}

func isInline(def any) bool {
	m, _ := def.(map[string]any)
	b, _ := m[schemaforge.KeyInline].(bool)
	return b
}

// replaceRecursive overlays src on dst. Maps merge by key and lists by
// index; anything else is replaced.
func replaceRecursive(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = replaceValue(out[k], v)
	}
	return out
}

func replaceValue(dst, src any) any {
	switch s := src.(type) {
	case map[string]any:
		if d, ok := dst.(map[string]any); ok {
			return replaceRecursive(d, s)
		}
	case []any:
		if d, ok := dst.([]any); ok {
			out := make([]any, max(len(d), len(s)))
			copy(out, d)
			for i, v := range s {
				out[i] = replaceValue(out[i], v)
			}
			return out
		}
	}
	return src
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = deepCopy(item)
		}
		return out
	}
	return v
}

// empty reports values dropped from generated output.
func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == "" || x == "0"
	case bool:
		return !x
	case int:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return false
}
