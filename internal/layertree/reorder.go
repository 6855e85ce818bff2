package layertree

import "slices"

// Reorder moves the node at targetPath inside the top-level layer targetUUID
// by delta leaf positions within the foreground. Background layers keep
// their place at the end. An unknown target or a move past either end
// returns roots unchanged.
//
// With preventSplittingGroups the node never leaves its parent group, and a
// move into a sibling group jumps over that group as a whole.
func Reorder(roots []*Node, targetUUID string, targetPath []int, delta int, preventSplittingGroups bool) []*Node {
	if delta == 0 {
		return roots
	}
	fg, bg := partition(roots)
	entries := Explode(fg)

	var indices []int
	for i, e := range entries {
		if e.Spine.UUID == targetUUID && pathHasPrefix(e.Path, targetPath) {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return roots
	}
	lo, hi := indices[0], indices[len(indices)-1]
	if (delta < 0 && lo+delta < 0) || (delta > 0 && hi+delta >= len(entries)) {
		return roots
	}

	if preventSplittingGroups {
		var ok bool
		if delta, ok = groupSafeDelta(entries, targetUUID, targetPath, lo, hi, delta); !ok {
			return roots
		}
	}

	if delta < 0 {
		for _, idx := range indices {
			entries = moveEntry(entries, idx, idx+delta)
		}
	} else {
		for i := len(indices) - 1; i >= 0; i-- {
			entries = moveEntry(entries, indices[i], indices[i]+delta)
		}
	}
	return append(Implode(entries), bg...)
}

// groupSafeDelta adjusts delta so the moved block [lo, hi] stays inside its
// parent group and lands next to a whole sibling rather than inside one.
func groupSafeDelta(entries []Entry, targetUUID string, targetPath []int, lo, hi, delta int) (int, bool) {
	idx := lo
	if delta > 0 {
		idx = hi
	}
	cand := entries[idx+delta]
	level := len(targetPath)

	if level > 0 {
		if cand.Spine.UUID != targetUUID || len(cand.Path) < level ||
			!slices.Equal(cand.Path[:level-1], targetPath[:level-1]) {
			return 0, false
		}
	}
	if len(cand.Path) == level {
		return delta, true
	}

	// The landing entry sits inside a sibling group; find that group's
	// extent and move past all of it.
	inGroup := func(e Entry) bool {
		return e.Spine.UUID == cand.Spine.UUID && pathHasPrefix(e.Path, cand.Path[:level]) && len(e.Path) > level
	}
	i := idx + delta
	if delta < 0 {
		for i > 0 && inGroup(entries[i-1]) {
			i--
		}
		return i - lo, true
	}
	for i < len(entries)-1 && inGroup(entries[i+1]) {
		i++
	}
	return i - hi, true
}

func moveEntry(entries []Entry, from, to int) []Entry {
	e := entries[from]
	entries = slices.Delete(entries, from, from+1)
	return slices.Insert(entries, to, e)
}
