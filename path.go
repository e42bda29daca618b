package schemaforge

import (
	"fmt"
	"strconv"
	"strings"
)

// JoinPath joins the non-empty parts with PathSeparator.
func JoinPath(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, PathSeparator)
}

// splitPath splits a slash- or dot-separated path. Slash wins when both are
// present. Empty segments and a leading root marker are dropped.
func splitPath(path string) []string {
	sep := "."
	if strings.Contains(path, PathSeparator) {
		sep = PathSeparator
	}
	parts := []string{}
	for i, p := range strings.Split(path, sep) {
		if p == "" || (i == 0 && p == RootID) {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

// ValueAt resolves path against a nested document of maps and slices.
// "a/b/c", "#/a/b" and "a.b.c" address the same value; list elements are
// addressed by index. ok is false when any segment is missing.
func ValueAt(doc any, path string) (v any, ok bool) {
	cur := doc
	for _, p := range splitPath(path) {
		switch c := cur.(type) {
		case map[string]any:
			next, found := c[p]
			if !found {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// PropertyByID walks a slash-separated path of child ids below an object
// node. A leading segment equal to n's own id is skipped.
func (n *Node) PropertyByID(path string) (*Node, error) {
	parts := []string{}
	for _, p := range strings.Split(path, PathSeparator) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 1 && parts[0] == n.id {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrPropertyNotFound, path)
	}
	cur := n
	for _, p := range parts {
		if cur.kind != KindObject {
			return nil, fmt.Errorf("%w: %s", ErrNotObject, cur.FullPath())
		}
		child := cur.properties.get(p)
		if child == nil {
			return nil, fmt.Errorf("%w: %q in %s", ErrPropertyNotFound, p, cur.FullPath())
		}
		cur = child
	}
	return cur, nil
}
