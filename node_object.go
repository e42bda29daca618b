package schemaforge

// AddProperty adds child to an object node, replacing a property with the same
// id in place. It is a no-op on other kinds.
func (n *Node) AddProperty(child *Node) *Node {
	if n.kind != KindObject || child == nil {
		return n
	}
	child.parent = n
	n.properties.set(child)
	return n
}

// Property returns the direct child with the given id, or nil.
func (n *Node) Property(id string) *Node { return n.properties.get(id) }

// Properties returns the children in declaration order.
func (n *Node) Properties() []*Node { return n.properties.list() }

// AddDefinition registers a reusable sub-schema on an object node.
func (n *Node) AddDefinition(def *Node) *Node {
	if n.kind != KindObject || def == nil {
		return n
	}
	def.parent = n
	n.definitions.set(def)
	return n
}

// Definition returns the definition with the given id, or nil.
func (n *Node) Definition(id string) *Node { return n.definitions.get(id) }

// Definitions returns the definitions in declaration order.
func (n *Node) Definitions() []*Node { return n.definitions.list() }

// SetCondition attaches an if/then pair. Both branches are object nodes whose
// error paths are relative to n.
func (n *Node) SetCondition(ifNode, thenNode *Node) *Node {
	if n.kind != KindObject {
		return n
	}
	for _, b := range []*Node{ifNode, thenNode} {
		if b != nil {
			b.parent = nil
			b.anchor = n
		}
	}
	n.ifNode, n.thenNode = ifNode, thenNode
	return n
}

func (n *Node) If() *Node   { return n.ifNode }
func (n *Node) Then() *Node { return n.thenNode }

// requiresAny reports whether any direct child of an object is required.
func (n *Node) requiresAny() bool {
	for _, p := range n.properties.list() {
		if p.IsRequired() {
			return true
		}
	}
	return false
}
