package filter

import (
	"github.com/saint-community/querybuilder/internal/models"
)

// Path addresses a node by child indices from the root. The empty path is
// the root group itself.
type Path []int

// Parent returns the path of the enclosing group and the index within it
func (p Path) Parent() (Path, int) {
	if len(p) == 0 {
		return nil, -1
	}
	return p[:len(p)-1 : len(p)-1], p[len(p)-1]
}

// Child returns the path of the i-th child of p
func (p Path) Child(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, i)
}

// Equal reports whether both paths address the same node
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// NodeAt returns the node at path, or false when the path leads nowhere
func NodeAt(root models.FilterGroup, path Path) (models.Node, bool) {
	var current models.Node = root
	for _, i := range path {
		group, ok := current.(models.FilterGroup)
		if !ok || i < 0 || i >= len(group.Conditions) {
			return nil, false
		}
		current = group.Conditions[i]
	}
	return current, true
}

// GroupAt returns the group at path, or false when the path does not lead
// to a group
func GroupAt(root models.FilterGroup, path Path) (models.FilterGroup, bool) {
	node, ok := NodeAt(root, path)
	if !ok {
		return models.FilterGroup{}, false
	}
	group, ok := node.(models.FilterGroup)
	return group, ok
}

// EditGroup applies edit to the group at path and rebuilds its ancestors.
// A path that does not lead to a group leaves the tree unchanged.
func EditGroup(root models.FilterGroup, path Path, edit func(models.FilterGroup) (models.FilterGroup, error)) (models.FilterGroup, error) {
	if len(path) == 0 {
		updated, err := edit(root)
		if err != nil {
			return root, err
		}
		return updated, nil
	}

	i := path[0]
	if i < 0 || i >= len(root.Conditions) {
		return root, nil
	}
	sub, ok := root.Conditions[i].(models.FilterGroup)
	if !ok {
		return root, nil
	}
	updated, err := EditGroup(sub, path[1:], edit)
	if err != nil {
		return root, err
	}
	out := copyChildren(root.Conditions)
	out[i] = updated
	root.Conditions = out
	return root, nil
}

// Row is one visited node of a tree
type Row struct {
	Path  Path
	Depth int
	Node  models.Node
}

// IsGroup reports whether the row is a group header
func (r Row) IsGroup() bool {
	_, ok := r.Node.(models.FilterGroup)
	return ok
}

// Walk visits the root and every descendant depth-first in child order.
// Returning false from fn skips the children of a group.
func Walk(root models.FilterGroup, fn func(Row) bool) {
	walk(root, Path{}, 0, fn)
}

func walk(group models.FilterGroup, path Path, depth int, fn func(Row) bool) {
	if !fn(Row{Path: path, Depth: depth, Node: group}) {
		return
	}
	for i, child := range group.Conditions {
		childPath := path.Child(i)
		switch n := child.(type) {
		case models.FilterGroup:
			walk(n, childPath, depth+1, fn)
		default:
			fn(Row{Path: childPath, Depth: depth + 1, Node: child})
		}
	}
}

// Rows flattens the tree into render order
func Rows(root models.FilterGroup) []Row {
	var rows []Row
	Walk(root, func(r Row) bool {
		rows = append(rows, r)
		return true
	})
	return rows
}
