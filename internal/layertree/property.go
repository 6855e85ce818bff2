package layertree

import (
	"fmt"
	"slices"
)

// Recurse selects where a property change propagates to.
type Recurse int

const (
	RecurseNone Recurse = iota
	RecurseChildren
	RecurseParents
	RecurseBoth
)

var recurseNames = []string{"none", "children", "parents", "both"}

func (r Recurse) String() string {
	if int(r) < len(recurseNames) {
		return recurseNames[r]
	}
	return fmt.Sprintf("Recurse(%d)", int(r))
}

// ParseRecurse maps a direction name to a Recurse. The empty string is
// RecurseNone.
func ParseRecurse(s string) (Recurse, error) {
	if s == "" {
		return RecurseNone, nil
	}
	if i := slices.Index(recurseNames, s); i >= 0 {
		return Recurse(i), nil
	}
	return RecurseNone, fmt.Errorf("unknown recurse direction %q", s)
}

func (r Recurse) children() bool { return r == RecurseChildren || r == RecurseBoth }
func (r Recurse) parents() bool  { return r == RecurseParents || r == RecurseBoth }

// ResolvePath returns the node at path below root and its parent. The parent
// is nil for an empty path. ok is false when path leaves the tree.
func ResolvePath(root *Node, path []int) (node, parent *Node, ok bool) {
	node = root
	for _, i := range path {
		children := node.Children()
		if i < 0 || i >= len(children) {
			return nil, nil, false
		}
		parent, node = node, children[i]
	}
	return node, parent, true
}

// CloneAlongPath copies root and every node on the way to path, leaving the
// rest of the tree shared. The returned chain starts with the copied root and
// ends with the copied target. path must be valid.
func CloneAlongPath(root *Node, path []int) (*Node, []*Node) {
	c := root.shallow()
	chain := []*Node{c}
	cur := c
	for _, i := range path {
		next := cur.Sublayers[i].shallow()
		cur.Sublayers[i] = next
		chain = append(chain, next)
		cur = next
	}
	return c, chain
}

// SetVisibility switches the node at path inside the top-level layer with
// the given uuid. Showing a member of a mutually exclusive group hides its
// siblings; hiding one is rejected. Changing a background layer hides all
// other background layers. It reports whether anything was changed.
func SetVisibility(roots []*Node, layerUUID string, path []int, visible bool, recurse Recurse) ([]*Node, bool) {
	return setProperty(roots, layerUUID, path, recurse, true, visible, func(n *Node) {
		n.Visibility = visible
	})
}

// SetOpacity sets the opacity of the node at path, clamped to 0..255.
func SetOpacity(roots []*Node, layerUUID string, path []int, opacity int, recurse Recurse) ([]*Node, bool) {
	opacity = clampOpacity(opacity)
	return setProperty(roots, layerUUID, path, recurse, false, false, func(n *Node) {
		n.Opacity = opacity
	})
}

func setProperty(roots []*Node, layerUUID string, path []int, recurse Recurse, isVisibility, visible bool, set func(*Node)) ([]*Node, bool) {
	idx := slices.IndexFunc(roots, func(r *Node) bool { return r.UUID == layerUUID })
	if idx < 0 {
		return roots, false
	}
	_, parent, ok := ResolvePath(roots[idx], path)
	if !ok {
		return roots, false
	}
	inMutex := isVisibility && parent != nil && parent.MutuallyExclusive
	if inMutex && !visible {
		return roots, false
	}

	root, chain := CloneAlongPath(roots[idx], path)
	target := chain[len(chain)-1]
	set(target)
	if inMutex {
		showOnly(chain[len(chain)-2], path[len(path)-1])
	}
	if recurse.children() {
		propagateDown(target, isVisibility, set)
	}
	if recurse.parents() {
		for i, n := range chain[:len(chain)-1] {
			set(n)
			if isVisibility && n.MutuallyExclusive {
				if !visible {
					break
				}
				showOnly(n, path[i])
			}
		}
	}

	out := slices.Clone(roots)
	out[idx] = root
	if isVisibility && root.Role == RoleBackground {
		for i, r := range out {
			if i != idx && r.Role == RoleBackground && r.Visibility {
				h := r.shallow()
				h.Visibility = false
				out[i] = h
			}
		}
	}
	return out, true
}

// showOnly makes keep the single visible child of an owned group. The kept
// child must be owned too; hidden siblings are copied first.
func showOnly(group *Node, keep int) {
	for i, c := range group.Sublayers {
		if i == keep {
			c.Visibility = true
			continue
		}
		if !c.Visibility {
			continue
		}
		cc := c.shallow()
		cc.Visibility = false
		group.Sublayers[i] = cc
	}
}

// propagateDown applies set to every descendant of an owned node, copying
// each one first. Visibility does not descend into mutually exclusive groups.
func propagateDown(n *Node, isVisibility bool, set func(*Node)) {
	if !n.HasChildren() || (isVisibility && n.MutuallyExclusive) {
		return
	}
	for i, c := range n.Sublayers {
		cc := c.shallow()
		set(cc)
		n.Sublayers[i] = cc
		propagateDown(cc, isVisibility, set)
	}
}
