package layertree

import (
	"slices"

	"github.com/google/uuid"
)

// NewSeparator returns a user layer separator with fresh identifiers.
func NewSeparator(title string) *Node {
	return &Node{
		ID:         uuid.NewString(),
		UUID:       newUUID(),
		Type:       TypeSeparator,
		Role:       RoleUserLayer,
		Title:      title,
		Visibility: true,
		Opacity:    DefaultOpacity,
	}
}

// NewPlaceholder returns a loading placeholder standing in for an external
// layer that has not been resolved yet.
func NewPlaceholder(id, title string) *Node {
	return &Node{
		ID:         id,
		UUID:       newUUID(),
		Type:       TypePlaceholder,
		Role:       RoleUserLayer,
		Title:      title,
		Loading:    true,
		Visibility: true,
		Opacity:    DefaultOpacity,
	}
}

// RemoveLayer removes the node at path inside the top-level layer with the
// given uuid. An empty path, or a background layer, removes the whole
// top-level layer. Unknown uuids leave roots unchanged.
//
// The last theme layer is never removed: an empty copy of it takes its
// place instead.
func RemoveLayer(roots []*Node, layerUUID string, path []int) []*Node {
	idx := slices.IndexFunc(roots, func(r *Node) bool { return r.UUID == layerUUID })
	if idx < 0 {
		return roots
	}
	target := roots[idx]

	var out []*Node
	if len(path) == 0 || target.Role == RoleBackground {
		out = slices.Delete(slices.Clone(roots), idx, idx+1)
	} else {
		fg, bg := partition(roots)
		entries := slices.DeleteFunc(Explode(fg), func(e Entry) bool {
			return e.Spine.UUID == layerUUID && pathHasPrefix(e.Path, path)
		})
		out = append(Implode(entries), bg...)
	}
	return keepTheme(roots, out)
}

// keepTheme puts an empty copy of the old theme layer back into out when the
// removal took away the last one.
func keepTheme(before, after []*Node) []*Node {
	if slices.ContainsFunc(after, func(r *Node) bool { return r.Role == RoleTheme }) {
		return after
	}
	fgBefore, _ := partition(before)
	pos := slices.IndexFunc(fgBefore, func(r *Node) bool { return r.Role == RoleTheme })
	if pos < 0 {
		return after
	}
	theme := fgBefore[pos].shallow()
	if theme.Group == nil {
		theme.Group = &Group{}
	}
	theme.Sublayers = []*Node{}
	theme.DrawingOrder = nil

	fg, bg := partition(after)
	pos = min(pos, len(fg))
	fg = slices.Insert(fg, pos, theme)
	return append(fg, bg...)
}

// InsertSeparator inserts a separator right above the leaf at beforePath in
// the top-level layer with id beforeID. The layer is split in two around the
// separator. An unknown position leaves roots unchanged.
func InsertSeparator(roots []*Node, title, beforeID string, beforePath []int) []*Node {
	fg, bg := partition(roots)
	entries := Explode(fg)
	pos := slices.IndexFunc(entries, func(e Entry) bool {
		return e.Spine.ID == beforeID && slices.Equal(e.Path, beforePath)
	})
	if pos < 0 {
		return roots
	}
	entries = slices.Insert(entries, pos, Explode([]*Node{NewSeparator(title)})...)
	return append(Implode(entries), bg...)
}

// InsertLayer inserts newLayer above the first leaf accepted by match and
// reports whether such a leaf was found.
func InsertLayer(roots []*Node, newLayer *Node, match func(leaf *Node) bool) ([]*Node, bool) {
	entries := Explode(roots)
	pos := slices.IndexFunc(entries, func(e Entry) bool { return match(e.Leaf) })
	if pos < 0 {
		return roots, false
	}
	entries = slices.Insert(entries, pos, Explode([]*Node{newLayer})...)
	return Implode(entries), true
}

// AddLayer inserts layer at the top level. A negative pos places it above
// every layer of a lower role; otherwise it is inserted at pos. Missing ids,
// names and roles are filled in and uuids are made unique against roots.
func AddLayer(roots []*Node, layer *Node, pos int) []*Node {
	l := layer.shallow()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Name == "" {
		l.Name = l.ID
	}
	if l.Role == 0 {
		l.Role = RoleUserLayer
	}
	l = AssignIdentities(l, CollectUUIDs(roots...))

	if pos < 0 {
		pos = 0
		for pos < len(roots) && l.Role < roots[pos].Role {
			pos++
		}
	}
	pos = min(pos, len(roots))
	return slices.Insert(slices.Clone(roots), pos, l)
}

// ReplacePlaceholder swaps the placeholder with the given id for layer, or
// drops it when layer is nil. It reports whether the placeholder existed.
func ReplacePlaceholder(roots []*Node, id string, layer *Node) ([]*Node, bool) {
	idx := slices.IndexFunc(roots, func(r *Node) bool {
		return r.Type == TypePlaceholder && r.ID == id
	})
	if idx < 0 {
		return roots, false
	}
	out := slices.Clone(roots)
	if layer == nil {
		return slices.Delete(out, idx, idx+1), true
	}
	others := slices.Delete(slices.Clone(roots), idx, idx+1)
	out[idx] = AssignIdentities(layer, CollectUUIDs(others...))
	return out, true
}

// MergeSublayers adds the leaves of add that base does not have yet. New
// leaves go on top, keeping the group structure of add.
func MergeSublayers(base, add *Node) *Node {
	merged := base.shallow()
	if merged.Group == nil {
		merged.Group = &Group{}
	}
	merged.Sublayers = add.Children()
	merged.UUID = ""
	merged = AssignIdentities(merged, NewUUIDSet())

	if len(merged.Sublayers) == 0 {
		return base.Clone()
	}
	if !base.HasChildren() {
		return merged
	}

	baseEntries := Explode([]*Node{base})
	existing := make(map[string]bool, len(baseEntries))
	for _, e := range baseEntries {
		existing[e.Leaf.Name] = true
	}
	addEntries := slices.DeleteFunc(Explode([]*Node{merged}), func(e Entry) bool {
		return existing[e.Leaf.Name]
	})
	if len(addEntries) == 0 {
		return base.Clone()
	}
	// Added spines carry the base id, so they merge into one layer.
	return Implode(append(addEntries, baseEntries...))[0]
}
