package layertree

import (
	"fmt"
	"math/rand"
	"testing"
)

// sequentialUUIDs makes newUUID deterministic for the rest of the test.
func sequentialUUIDs(t *testing.T) {
	t.Helper()
	old := newUUID
	n := 0
	newUUID = func() string {
		n++
		return fmt.Sprintf("uuid-%d", n)
	}
	t.Cleanup(func() { newUUID = old })
}

func leaf(name string) *Node {
	n := NewLeaf(name)
	n.UUID = name
	return n
}

func group(name string, children ...*Node) *Node {
	n := NewGroup(name, children...)
	n.UUID = name
	return n
}

// theme returns
//
//	theme
//	├── a
//	├── g
//	│   ├── b
//	│   └── c
//	└── d
func theme() *Node {
	t := group("theme", leaf("a"), group("g", leaf("b"), leaf("c")), leaf("d"))
	t.ID = "theme"
	t.Type = TypeTheme
	t.Role = RoleTheme
	return t
}

func background(name string, visible bool) *Node {
	n := leaf(name)
	n.ID = name
	n.Role = RoleBackground
	n.Visibility = visible
	return n
}

func userLayer(name string) *Node {
	n := leaf(name)
	n.ID = name
	n.Type = TypeWMS
	n.Role = RoleUserLayer
	return n
}

// names renders a forest as nested names, e.g. "theme(a g(b c) d)".
func names(roots []*Node) string {
	var s string
	for i, r := range roots {
		if i > 0 {
			s += " "
		}
		s += r.Name
		if r.IsGroup() {
			s += "(" + names(r.Sublayers) + ")"
		}
	}
	return s
}

// stripUUIDs returns a copy of roots without uuids so trees can be compared
// modulo identity.
func stripUUIDs(roots []*Node) []*Node {
	out := CloneAll(roots)
	for _, r := range out {
		Walk(r, func(n *Node, _ []int) bool {
			n.UUID = ""
			return true
		})
	}
	return out
}

// randomForest builds a forest with unique sibling names, unique top-level
// ids, no empty groups, settled exclusive groups and unique uuids.
func randomForest(seed int64) []*Node {
	r := rand.New(rand.NewSource(seed))
	roots := make([]*Node, r.Intn(4)+1)
	used := NewUUIDSet()
	for i := range roots {
		root := randomTree(r, 3, fmt.Sprintf("l%d", i))
		root.ID = fmt.Sprintf("id%d", i)
		root.Role = RoleTheme + Role(r.Intn(2))
		roots[i] = AssignIdentities(EnforceExclusivity(root), used)
	}
	return roots
}

func randomTree(r *rand.Rand, depth int, name string) *Node {
	var n *Node
	if depth == 0 || r.Intn(3) == 0 {
		n = NewLeaf(name)
		n.Opacity = r.Intn(256)
		n.Queryable = r.Intn(2) == 0
	} else {
		children := make([]*Node, r.Intn(3)+1)
		for i := range children {
			children[i] = randomTree(r, depth-1, fmt.Sprintf("%s.%d", name, i))
		}
		n = NewGroup(name, children...)
		n.MutuallyExclusive = r.Intn(4) == 0
	}
	n.Visibility = r.Intn(3) > 0
	return n
}
