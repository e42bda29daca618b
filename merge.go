package schemaforge

import "slices"

// Merge layers overlay onto base according to overlay's merge strategy and
// returns the result. base is updated in place; overlay nodes may be adopted
// into base's tree.
//
//   - remove: the result is a null tombstone with overlay's id that keeps
//     base's position.
//   - a different kind: the result is overlay.
//   - replace: overlay's settings overwrite base's, set or not.
//   - add: overlay's set settings overwrite base's, validators are merged by
//     URL, enum options are appended and object properties merge by id.
func Merge(base, overlay *Node) *Node {
	switch {
	case base == nil:
		return overlay
	case overlay == nil:
		return base
	}
	if overlay.strategy == MergeRemove {
		t := NewNull(overlay.id)
		t.parent = base.parent
		return t
	}
	if overlay.kind != base.kind {
		return overlay
	}
	replace := overlay.strategy == MergeReplace

	switch base.kind {
	case KindNull, KindBoolean:
	case KindString, KindEmailString:
		mergeString(base, overlay, replace)
	case KindDateString:
		mergeString(base, overlay, replace)
		mergeDate(base, overlay, replace)
	case KindEnum:
		if replace {
			base.options = slices.Clone(overlay.options)
		} else {
			base.options = append(slices.Clone(base.options), overlay.options...)
		}
	case KindReference:
		if replace || overlay.ref != "" {
			base.ref = overlay.ref
		}
	case KindObject:
		mergeObject(base, overlay, replace)
	}
	mergeCommon(base, overlay, replace)
	return base
}

func mergeCommon(base, overlay *Node, replace bool) {
	if replace {
		base.description = overlay.description
		base.required = overlay.required
		base.def = overlay.def
		base.constant = overlay.constant
		base.inline = overlay.inline
		base.dependsOn = overlay.dependsOn
		base.source = overlay.source
		base.validators = slices.Clone(overlay.validators)
		adoptComposition(base, overlay.composition)
		return
	}
	if overlay.description != nil {
		base.description = overlay.description
	}
	if overlay.required != nil {
		base.required = overlay.required
	}
	if overlay.def != nil {
		base.def = overlay.def
	}
	if overlay.constant != nil {
		base.constant = overlay.constant
	}
	if overlay.inline != nil {
		base.inline = overlay.inline
	}
	if overlay.dependsOn != "" {
		base.dependsOn = overlay.dependsOn
	}
	if overlay.source != nil {
		base.source = overlay.source
	}
	for _, v := range overlay.validators {
		base.AddValidator(v)
	}
	if overlay.composition != nil {
		adoptComposition(base, overlay.composition)
	}
}

func adoptComposition(n *Node, c *Composition) {
	if c == nil {
		n.composition = nil
		return
	}
	n.SetComposition(c.Op, c.Items...)
}

func mergeString(base, overlay *Node, replace bool) {
	if replace {
		base.maxLength = overlay.maxLength
		base.minLength = overlay.minLength
		base.format = overlay.format
		base.pattern, base.re, base.patternErr = overlay.pattern, overlay.re, overlay.patternErr
		return
	}
	if overlay.maxLength != nil {
		base.maxLength = overlay.maxLength
	}
	if overlay.minLength != nil {
		base.minLength = overlay.minLength
	}
	if overlay.format != "" {
		base.format = overlay.format
	}
	if overlay.pattern != "" {
		base.pattern, base.re, base.patternErr = overlay.pattern, overlay.re, overlay.patternErr
	}
}

func mergeDate(base, overlay *Node, replace bool) {
	if replace {
		base.minValue = overlay.minValue
		base.maxValue = overlay.maxValue
		return
	}
	if overlay.minValue != nil {
		base.minValue = overlay.minValue
	}
	if overlay.maxValue != nil {
		base.maxValue = overlay.maxValue
	}
}

func mergeObject(base, overlay *Node, replace bool) {
	if replace {
		base.properties.reset()
		for _, p := range overlay.properties.list() {
			base.AddProperty(adopted(p))
		}
	} else {
		for _, p := range overlay.properties.list() {
			if cur := base.properties.get(p.id); cur != nil {
				base.AddProperty(Merge(cur, p))
				continue
			}
			base.AddProperty(adopted(p))
		}
	}
	for _, d := range overlay.definitions.list() {
		base.AddDefinition(d)
	}
	if overlay.ifNode != nil && overlay.thenNode != nil {
		base.SetCondition(overlay.ifNode, overlay.thenNode)
	}
}

// adopted turns an overlay child with nothing to merge into the node that
// takes its place.
func adopted(p *Node) *Node {
	if p.strategy == MergeRemove {
		return NewNull(p.id)
	}
	return p
}
