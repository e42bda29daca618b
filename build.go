package schemaforge

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Declaration keys.
const (
	KeyType          = "type"
	KeyFormat        = "format"
	KeyDefault       = "default"
	KeyConst         = "const"
	KeyRequired      = "required"
	KeyReadonly      = "readonly"
	KeyDescription   = "description"
	KeyMergeStrategy = "mergeStrategy"
	KeyDependsOn     = "dependsOn"
	KeyInline        = "inline"
	KeyValidators    = "validators"
	KeySource        = "source"
	KeyMaxLength     = "maxLength"
	KeyMinLength     = "minLength"
	KeyPattern       = "pattern"
	KeyMinValue      = "minValue"
	KeyMaxValue      = "maxValue"
	KeyOptions       = "options"
	KeyRef           = "ref"
	KeyDollarRef     = "$ref"
	KeyProperties    = "properties"
	KeyDefinitions   = "definitions"
	KeyDependencies  = "dependencies"
	KeyIf            = "if"
	KeyThen          = "then"
	KeyURL           = "url"
	KeyMethod        = "method"
	KeyFields        = "fields"
)

// DefinitionsPrefix prefixes exported reference targets.
const DefinitionsPrefix = "#/definitions/"

// generalKeys are the keys every kind understands. Enum nodes accept nothing
// beyond these and their options.
var generalKeys = []string{
	KeyDefault, KeyConst, KeyRequired, KeyReadonly, KeyDescription,
	KeyMergeStrategy, KeyType, KeyDependsOn, KeyInline, KeyValidators,
}

// Build builds a root object node (id RootID) from decl. The declaration's
// type, when present, is ignored.
func Build(decl map[string]any) (*Node, error) {
	return buildObject(RootID, decl, "")
}

// FromDeclaration builds the node id from decl, dispatching on decl's type.
func FromDeclaration(id string, decl map[string]any) (*Node, error) {
	return fromDeclaration(id, decl, "")
}

func fromDeclaration(id string, decl map[string]any, at string) (*Node, error) {
	path := JoinPath(at, id)
	t, ok := decl[KeyType]
	if !ok {
		return nil, buildErr(path, KeyType, ErrMissingType, "")
	}
	var n *Node
	switch t {
	case nil, "null":
		n = NewNull(id)
	case "string":
		switch decl[KeyFormat] {
		case "email":
			n = NewEmailString(id)
		case "date":
			n = NewDateString(id)
		default:
			n = NewString(id)
		}
	case "boolean":
		n = NewBoolean(id)
	case "enum":
		for k := range decl {
			if k != KeyOptions && !slices.Contains(generalKeys, k) {
				return nil, buildErr(path, k, ErrUnknownField, "not allowed on enum")
			}
		}
		n = NewEnum(id)
	case "reference", "ref":
		n = NewReference(id, "")
	case "object":
		return buildObject(id, decl, at)
	default:
		return nil, buildErr(path, KeyType, ErrUnknownType, fmt.Sprint(t))
	}
	if err := applyCommon(n, decl, path); err != nil {
		return nil, err
	}

	switch n.kind {
	case KindNull, KindBoolean:
	case KindString, KindEmailString, KindDateString:
		if err := applyString(n, decl, path); err != nil {
			return nil, err
		}
	case KindEnum:
		raw, ok := decl[KeyOptions]
		if !ok || raw == nil {
			return nil, buildErr(path, KeyOptions, ErrMissingOptions, "")
		}
		opts, ok := raw.([]any)
		if !ok {
			return nil, buildErr(path, KeyOptions, ErrMalformed, "options must be a list")
		}
		n.SetOptions(opts...)
	case KindReference:
		ref := decl[KeyRef]
		if ref == nil {
			ref = decl[KeyDollarRef]
		}
		s, ok := ref.(string)
		if !ok || s == "" {
			return nil, buildErr(path, KeyRef, ErrMalformed, "reference target is not set")
		}
		n.SetRef(strings.TrimPrefix(s, DefinitionsPrefix))
	case KindObject:
	}
	return n, nil
}

func buildObject(id string, decl map[string]any, at string) (*Node, error) {
	path := JoinPath(at, id)
	n := NewObject(id)
	if err := applyCommon(n, decl, path); err != nil {
		return nil, err
	}

	if raw, ok := decl[KeyDefinitions]; ok && raw != nil {
		defs, ok := asMap(raw)
		if !ok {
			return nil, buildErr(path, KeyDefinitions, ErrMalformed, "definitions must be a mapping")
		}
		for _, k := range sortedKeys(defs) {
			d, err := childDeclaration(defs[k], path, k)
			if err != nil {
				return nil, err
			}
			def, err := fromDeclaration(k, d, path)
			if err != nil {
				return nil, err
			}
			n.AddDefinition(def)
		}
	}

	if raw, ok := decl[KeyProperties]; ok && raw != nil {
		props, ok := asMap(raw)
		if !ok {
			return nil, buildErr(path, KeyProperties, ErrMalformed, "properties must be a mapping")
		}
		for _, k := range sortedKeys(props) {
			d, err := childDeclaration(props[k], path, k)
			if err != nil {
				return nil, err
			}
			child, err := fromDeclaration(k, d, path)
			if err != nil {
				return nil, err
			}
			n.AddProperty(child)
		}
	}

	if ids, ok := decl[KeyRequired].([]any); ok {
		for _, raw := range ids {
			p, err := n.PropertyByID(fmt.Sprint(raw))
			if err != nil {
				return nil, buildErr(path, KeyRequired, err, "")
			}
			p.SetRequired(true)
		}
	}

	if raw, ok := decl[KeyDependencies]; ok && raw != nil {
		deps, ok := asMap(raw)
		if !ok {
			return nil, buildErr(path, KeyDependencies, ErrMalformed, "dependencies must be a mapping")
		}
		for _, dep := range sortedKeys(deps) {
			ids, _ := deps[dep].([]any)
			for _, raw := range ids {
				p, err := n.PropertyByID(fmt.Sprint(raw))
				if err != nil {
					return nil, buildErr(path, KeyDependencies, err, "")
				}
				p.SetDependsOn(dep)
			}
		}
	}

	ifRaw, hasIf := decl[KeyIf]
	thenRaw, hasThen := decl[KeyThen]
	if hasIf != hasThen {
		return nil, buildErr(path, KeyIf, ErrIncompleteCondition, "")
	}
	if hasIf {
		ifDecl, ok1 := asMap(ifRaw)
		thenDecl, ok2 := asMap(thenRaw)
		if !ok1 || !ok2 {
			return nil, buildErr(path, KeyIf, ErrMalformed, "if/then must be mappings")
		}
		ifNode, err := buildObject("", ifDecl, JoinPath(path, KeyIf))
		if err != nil {
			return nil, err
		}
		thenNode, err := buildObject("", thenDecl, JoinPath(path, KeyThen))
		if err != nil {
			return nil, err
		}
		n.SetCondition(ifNode, thenNode)
	}
	return n, nil
}

func applyCommon(n *Node, decl map[string]any, path string) error {
	if v := decl[KeyDefault]; v != nil {
		n.SetDefault(v)
	}
	if v := decl[KeyConst]; v != nil {
		n.SetConst(v)
	}
	if v := decl[KeyReadonly]; v != nil {
		n.SetReadonly(v)
	}
	if v := decl[KeyDescription]; v != nil {
		n.SetDescription(asString(v))
	}
	if v := decl[KeyDependsOn]; v != nil {
		n.SetDependsOn(asString(v))
	}
	switch v := decl[KeyRequired].(type) {
	case nil:
	case bool:
		n.SetRequired(v)
	case []any:
		if n.kind != KindObject {
			return buildErr(path, KeyRequired, ErrMalformed, "a required list is only valid on objects")
		}
	default:
		return buildErr(path, KeyRequired, ErrMalformed, fmt.Sprint(v))
	}
	switch v := decl[KeyInline].(type) {
	case nil:
	case bool:
		n.SetInline(v)
	default:
		return buildErr(path, KeyInline, ErrMalformed, fmt.Sprint(v))
	}
	if v := decl[KeyMergeStrategy]; v != nil {
		s, err := ParseMergeStrategy(asString(v))
		if err != nil {
			return buildErr(path, KeyMergeStrategy, err, "")
		}
		n.SetMergeStrategy(s)
	}

	if raw := decl[KeyValidators]; raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return buildErr(path, KeyValidators, ErrMalformed, "validators must be a list")
		}
		for _, item := range list {
			b, err := parseBinding(item, path, KeyValidators)
			if err != nil {
				return err
			}
			n.AddValidator(&Validator{b})
		}
	}
	if raw := decl[KeySource]; raw != nil {
		b, err := parseBinding(raw, path, KeySource)
		if err != nil {
			return err
		}
		n.SetSource(&Source{b})
	}

	var found []CompositionOp
	for _, op := range CompositionOps {
		if _, ok := decl[string(op)]; ok {
			found = append(found, op)
		}
	}
	switch len(found) {
	case 0:
	case 1:
		op := found[0]
		raw := decl[string(op)]
		if m, ok := asMap(raw); ok {
			raw = []any{m}
		}
		list, ok := raw.([]any)
		if !ok {
			return buildErr(path, string(op), ErrMalformed, "composition items must be a list")
		}
		items := make([]*Node, 0, len(list))
		for i, it := range list {
			d, err := childDeclaration(it, path, strconv.Itoa(i))
			if err != nil {
				return err
			}
			item, err := fromDeclaration("", d, JoinPath(path, string(op), strconv.Itoa(i)))
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		n.SetComposition(op, items...)
	default:
		return buildErr(path, string(found[1]), ErrMalformed, "only one composition is allowed per node")
	}
	return nil
}

func applyString(n *Node, decl map[string]any, path string) error {
	if v, ok := decl[KeyFormat].(string); ok {
		n.SetFormat(v)
	}
	for _, key := range []string{KeyMaxLength, KeyMinLength} {
		raw := decl[key]
		if raw == nil {
			continue
		}
		i, ok := asInt(raw)
		if !ok {
			return buildErr(path, key, ErrMalformed, fmt.Sprint(raw))
		}
		if key == KeyMaxLength {
			n.SetMaxLength(i)
		} else {
			n.SetMinLength(i)
		}
	}
	if v := decl[KeyPattern]; v != nil {
		n.SetPattern(asString(v))
		if err := n.PatternError(); err != nil {
			return buildErr(path, KeyPattern, err, "")
		}
	}
	if n.kind != KindDateString {
		return nil
	}
	if v := decl[KeyMinValue]; v != nil {
		if err := n.SetMinValue(asString(v)); err != nil {
			return buildErr(path, KeyMinValue, err, asString(v))
		}
	}
	if v := decl[KeyMaxValue]; v != nil {
		if err := n.SetMaxValue(asString(v)); err != nil {
			return buildErr(path, KeyMaxValue, err, asString(v))
		}
	}
	return nil
}

func parseBinding(raw any, path, key string) (Binding, error) {
	m, ok := asMap(raw)
	if !ok {
		return Binding{}, buildErr(path, key, ErrMalformed, "binding must be a mapping")
	}
	url, _ := m[KeyURL].(string)
	method, _ := m[KeyMethod].(string)
	fieldsRaw, hasFields := m[KeyFields]
	if url == "" || method == "" || !hasFields {
		return Binding{}, buildErr(path, key, ErrMalformed, "url, method and fields are required")
	}
	b := Binding{URL: url, Method: method, Fields: map[string]string{}}
	if fieldsRaw != nil {
		fields, ok := asMap(fieldsRaw)
		if !ok {
			return Binding{}, buildErr(path, key, ErrMalformed, "fields must be a mapping")
		}
		for name, p := range fields {
			b.Fields[name] = asString(p)
		}
	}
	return b, nil
}

func childDeclaration(raw any, path, key string) (map[string]any, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, buildErr(JoinPath(path, key), "", ErrMalformed, "declaration must be a mapping")
	}
	return m, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case int32:
		return int(x), true
	case uint64:
		return int(x), true
	case float64:
		if x == float64(int(x)) {
			return int(x), true
		}
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		return i, err == nil
	case fmt.Stringer:
		i, err := strconv.Atoi(x.String())
		return i, err == nil
	}
	return 0, false
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
