package layertree

import "github.com/google/uuid"

// UUIDSet tracks the uuids already handed out while a tree is assembled.
// It is always passed explicitly; there is no package-level set.
type UUIDSet map[string]struct{}

// NewUUIDSet returns an empty set.
func NewUUIDSet() UUIDSet {
	return UUIDSet{}
}

// CollectUUIDs returns a set holding every uuid found in roots.
func CollectUUIDs(roots ...*Node) UUIDSet {
	set := NewUUIDSet()
	for _, r := range roots {
		Walk(r, func(n *Node, _ []int) bool {
			if n.UUID != "" {
				set.Add(n.UUID)
			}
			return true
		})
	}
	return set
}

// Has reports whether id is in the set.
func (s UUIDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id.
func (s UUIDSet) Add(id string) {
	s[id] = struct{}{}
}

// newUUID is swapped in tests that need deterministic ids.
var newUUID = uuid.NewString

// AssignIdentities returns a copy of n in which every node carries a uuid
// not yet present in used. Existing uuids are kept unless they collide.
// Every uuid of the result is added to used.
func AssignIdentities(n *Node, used UUIDSet) *Node {
	c := n.shallow()
	for c.UUID == "" || used.Has(c.UUID) {
		c.UUID = newUUID()
	}
	used.Add(c.UUID)
	if c.Group != nil {
		for i, child := range c.Sublayers {
			c.Sublayers[i] = AssignIdentities(child, used)
		}
	}
	return c
}
