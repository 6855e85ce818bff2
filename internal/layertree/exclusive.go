package layertree

// EnforceExclusivity returns a copy of n in which every mutually exclusive
// group has exactly one visible sublayer. The tristate sublayer wins, then
// the only visible sublayer; with none or several visible the first sublayer
// is chosen.
func EnforceExclusivity(n *Node) *Node {
	c := n.Clone()
	c.enforceExclusivity()
	return c
}

// enforceExclusivity works in place and must only be called on owned trees.
func (n *Node) enforceExclusivity() {
	if !n.HasChildren() {
		return
	}
	if n.MutuallyExclusive {
		chosen := exclusiveChoice(n.Sublayers)
		for i, child := range n.Sublayers {
			child.Visibility = i == chosen
		}
	}
	for _, child := range n.Sublayers {
		child.enforceExclusivity()
	}
}

func exclusiveChoice(children []*Node) int {
	for i, c := range children {
		if c.Tristate {
			return i
		}
	}
	chosen, visible := 0, 0
	for i, c := range children {
		if c.Visibility {
			chosen = i
			visible++
		}
	}
	if visible == 1 {
		return chosen
	}
	return 0
}
