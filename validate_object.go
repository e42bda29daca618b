package schemaforge

// checkObject runs the object checks after the universal ones: type guard,
// required and dependency checks per declared property, recursion into the
// present properties, then the if/then condition.
func (s *session) checkObject(n *Node, input any) Issues {
	path := n.FullPath()
	doc, ok := asDocument(input)
	if !ok {
		return Issues{s.issue(path, CodeNotArray, map[string]any{"type": typeName(input)})}
	}

	props := n.properties.list()
	var out Issues
	for _, p := range props {
		if p.IsRequired() && doc[p.id] == nil {
			out = append(out, s.issue(p.FullPath(), CodeRequiredPropertyMissing, map[string]any{"property": p.id}))
		}
		// only objects with required children can be missing their content
		if dep := p.dependsOn; dep != "" && isEmpty(doc[p.id]) && !isEmpty(doc[dep]) &&
			p.kind == KindObject && p.requiresAny() {
			params := map[string]any{"property": p.id, "dependency": dep}
			out = append(out, s.issue(p.FullPath(), CodeDependPropertyEmpty, params))
		}
	}

	for _, p := range props {
		v, present := doc[p.id]
		if !present {
			continue
		}
		if dep := p.dependsOn; dep != "" && isEmpty(doc[dep]) {
			continue
		}
		out = append(out, s.validate(p, v)...)
	}

	return append(out, s.checkCondition(n, doc)...)
}

// checkCondition validates doc against then when it satisfies if. then's
// issues follow a THEN_CONDITION_NOT_PASSED marker, re-rooted under n.
func (s *session) checkCondition(n *Node, doc map[string]any) Issues {
	if n.ifNode == nil || n.thenNode == nil {
		return nil
	}
	if len(s.validate(n.ifNode, doc)) > 0 {
		return nil
	}
	sub := s.validate(n.thenNode, doc)
	if len(sub) == 0 {
		return nil
	}
	path := n.FullPath()
	return append(Issues{s.issue(path, CodeThenConditionNotPassed, nil)}, underPath(sub, path)...)
}
