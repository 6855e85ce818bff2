package layertree

import "slices"

// Entry is one leaf of an exploded tree. Spine is a copy of the top-level
// layer in which every group on the way down keeps only the child leading
// to Leaf. Path holds the child indices of Leaf within the original layer.
type Entry struct {
	Spine *Node
	Path  []int
	Leaf  *Node
}

// Explode flattens roots into one entry per leaf, in pre-order. Nested
// groups without sublayers contribute nothing. A top-level node without
// sublayers, leaf or empty group, yields a single entry with an empty path.
func Explode(roots []*Node) []Entry {
	var entries []Entry
	for _, root := range roots {
		if !root.HasChildren() {
			spine := root.shallow()
			entries = append(entries, Entry{Spine: spine, Path: []int{}, Leaf: spine})
			continue
		}
		entries = explodeGroup(root, root, nil, entries)
	}
	return entries
}

func explodeGroup(root, group *Node, parentPath []int, entries []Entry) []Entry {
	for idx, child := range group.Sublayers {
		path := append(slices.Clone(parentPath), idx)
		if child.IsGroup() {
			entries = explodeGroup(root, child, path, entries)
			continue
		}
		spine := root.shallow()
		cur := spine
		for _, j := range path {
			next := cur.Sublayers[j].shallow()
			cur.Sublayers = []*Node{next}
			cur = next
		}
		entries = append(entries, Entry{Spine: spine, Path: path, Leaf: cur})
	}
	return entries
}

// Implode reassembles exploded entries into a forest. Consecutive entries
// sharing the top-level id are merged, descending through groups of equal
// name for as long as both sides are single-child chains. Mutual exclusivity
// is enforced on the result and uuids are reassigned where they collide.
//
// The spines of entries are consumed and must not be reused by the caller.
func Implode(entries []Entry) []*Node {
	var roots []*Node
	for _, e := range entries {
		src := e.Spine
		if len(roots) > 0 {
			if target := roots[len(roots)-1]; canMerge(target, src) {
				graft(target, src)
				continue
			}
		}
		roots = append(roots, src)
	}

	used := NewUUIDSet()
	for i, r := range roots {
		r.enforceExclusivity()
		roots[i] = AssignIdentities(r, used)
	}
	return roots
}

func canMerge(target, src *Node) bool {
	return target.IsGroup() && src.HasChildren() && target.ID == src.ID
}

// graft appends the single-child chain of src to target at the first level
// where the two diverge.
func graft(target, src *Node) {
	for {
		if len(target.Sublayers) == 0 {
			break
		}
		innerTarget := target.Sublayers[len(target.Sublayers)-1]
		innerSrc := src.Sublayers[0]
		if !innerTarget.IsGroup() || !innerSrc.HasChildren() || innerTarget.Name != innerSrc.Name {
			break
		}
		target, src = innerTarget, innerSrc
	}
	target.Sublayers = append(target.Sublayers, src.Sublayers[0])
}
