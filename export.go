package schemaforge

// Export renders n in the declarative shape accepted by FromDeclaration.
//
// With public set, requiredness is folded into each object's "required" list;
// otherwise every node that has it set carries "required": bool. Tombstones
// render empty and are left out of their object.
func (n *Node) Export(public bool) map[string]any {
	if n.kind == KindNull {
		return map[string]any{}
	}
	out := map[string]any{KeyType: n.kind.TypeName()}
	if n.constant != nil {
		out[KeyConst] = n.constant
	}
	if n.def != nil {
		out[KeyDefault] = n.def
	}
	if n.description != nil {
		out[KeyDescription] = *n.description
	}
	if n.inline != nil {
		out[KeyInline] = *n.inline
	}
	if !public && n.required != nil {
		out[KeyRequired] = *n.required
	}
	if n.strategy != MergeAdd {
		out[KeyMergeStrategy] = string(n.strategy)
	}
	if len(n.validators) > 0 {
		list := make([]any, 0, len(n.validators))
		for _, v := range n.validators {
			list = append(list, v.export())
		}
		out[KeyValidators] = list
	}
	if n.source != nil {
		out[KeySource] = n.source.export()
	}
	if c := n.composition; c != nil {
		items := make([]any, 0, len(c.Items))
		for _, it := range c.Items {
			items = append(items, it.Export(public))
		}
		out[string(c.Op)] = items
	}

	switch n.kind {
	case KindNull, KindBoolean:
	case KindString, KindEmailString, KindDateString:
		if n.format != "" {
			out[KeyFormat] = n.format
		}
		if v, ok := n.MaxLength(); ok {
			out[KeyMaxLength] = v
		}
		if v, ok := n.MinLength(); ok {
			out[KeyMinLength] = v
		}
		if n.pattern != "" {
			out[KeyPattern] = n.pattern
		}
		if n.minValue != nil {
			out[KeyMinValue] = n.MinValue()
		}
		if n.maxValue != nil {
			out[KeyMaxValue] = n.MaxValue()
		}
	case KindEnum:
		opts := n.options
		if opts == nil {
			opts = []any{}
		}
		out[KeyOptions] = opts
	case KindReference:
		if n.ref != "" {
			out[KeyDollarRef] = DefinitionsPrefix + n.ref
		}
	case KindObject:
		n.exportObject(out, public)
	}
	return out
}

func (n *Node) exportObject(out map[string]any, public bool) {
	props := map[string]any{}
	var required []any
	deps := map[string]any{}
	for _, p := range n.properties.list() {
		if p.kind == KindNull {
			continue
		}
		props[p.id] = p.Export(public)
		if public && p.IsRequired() {
			required = append(required, p.id)
		}
		if p.dependsOn != "" {
			ids, _ := deps[p.dependsOn].([]any)
			deps[p.dependsOn] = append(ids, p.id)
		}
	}
	if len(props) > 0 {
		out[KeyProperties] = props
	}
	if len(required) > 0 {
		out[KeyRequired] = required
	}
	if len(deps) > 0 {
		out[KeyDependencies] = deps
	}
	if n.definitions.len() > 0 {
		defs := map[string]any{}
		for _, d := range n.definitions.list() {
			defs[d.id] = d.Export(public)
		}
		out[KeyDefinitions] = defs
	}
	if n.ifNode != nil {
		out[KeyIf] = n.ifNode.Export(public)
	}
	if n.thenNode != nil {
		out[KeyThen] = n.thenNode.Export(public)
	}
}

func (b Binding) export() map[string]any {
	fields := make(map[string]any, len(b.Fields))
	for k, v := range b.Fields {
		fields[k] = v
	}
	return map[string]any{KeyURL: b.URL, KeyMethod: b.Method, KeyFields: fields}
}
