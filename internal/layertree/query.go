package layertree

import (
	"slices"

	"github.com/paulmach/orb"
)

// SearchSublayer finds the first node below layer accepted by match, in
// pre-order, and returns it with its path. A leaf layer is matched against
// itself and yields an empty path.
func SearchSublayer(layer *Node, match func(*Node) bool) (*Node, []int, bool) {
	if !layer.IsGroup() {
		if match(layer) {
			return layer, []int{}, true
		}
		return nil, nil, false
	}
	for i, c := range layer.Sublayers {
		if match(c) {
			return c, []int{i}, true
		}
		if !c.IsGroup() {
			continue
		}
		if n, path, ok := SearchSublayer(c, match); ok {
			return n, append([]int{i}, path...), true
		}
	}
	return nil, nil, false
}

// Match is the result of SearchLayer.
type Match struct {
	Layer    *Node
	Sublayer *Node
	Path     []int
}

// SearchLayer searches the top-level layers with one of roles, theme and
// user layers when none are given, and returns the first match.
func SearchLayer(roots []*Node, match func(*Node) bool, roles ...Role) (Match, bool) {
	if len(roles) == 0 {
		roles = []Role{RoleTheme, RoleUserLayer}
	}
	for _, r := range roots {
		if !slices.Contains(roles, r.Role) {
			continue
		}
		if n, path, ok := SearchSublayer(r, match); ok {
			return Match{Layer: r, Sublayer: n, Path: path}, true
		}
	}
	return Match{}, false
}

// ByName matches nodes with the given name.
func ByName(name string) func(*Node) bool {
	return func(n *Node) bool { return n.Name == name }
}

// SublayerVisible reports whether the node at path and all of its ancestors
// are visible. Paths leaving the tree are not visible.
func SublayerVisible(layer *Node, path []int) bool {
	n := layer
	if !n.Visibility {
		return false
	}
	for _, i := range path {
		children := n.Children()
		if i < 0 || i >= len(children) {
			return false
		}
		n = children[i]
		if !n.Visibility {
			return false
		}
	}
	return true
}

// ComputeVisibility returns the share of visible leaves below layer, where
// each child counts equally at its level: 1 for fully visible, 0 for hidden.
func ComputeVisibility(layer *Node) float64 {
	if !layer.HasChildren() || !layer.Visibility {
		if layer.Visibility {
			return 1
		}
		return 0
	}
	var sum float64
	for _, c := range layer.Sublayers {
		switch {
		case !c.Visibility:
		case c.HasChildren():
			sum += ComputeVisibility(c)
		default:
			sum++
		}
	}
	return sum / float64(len(layer.Sublayers))
}

// LayerScaleInRange reports whether the layer is drawn at scale.
func LayerScaleInRange(n *Node, scale float64) bool {
	return (n.MinScale == nil || scale >= *n.MinScale) && (n.MaxScale == nil || scale < *n.MaxScale)
}

// AttributionEntry lists the layers sharing one attribution.
type AttributionEntry struct {
	Title  string  `json:"title,omitempty"`
	Layers []*Node `json:"layers"`
}

// Attributions collects the attributions of the visible layers below n that
// are in scale range and whose extent overlaps extent. Entries are keyed by
// online resource, or by title when there is none.
func Attributions(n *Node, extent orb.Bound, scale float64) map[string]*AttributionEntry {
	out := make(map[string]*AttributionEntry)
	collectAttributions(n, extent, scale, out)
	return out
}

func collectAttributions(n *Node, extent orb.Bound, scale float64, out map[string]*AttributionEntry) {
	if !n.Visibility || !LayerScaleInRange(n, scale) {
		return
	}
	if n.BBox != nil && !n.BBox.Intersects(extent) {
		return
	}
	for _, c := range n.Children() {
		collectAttributions(c, extent, scale, out)
	}
	a := n.Attribution
	if a == nil || a.Title == "" {
		return
	}
	key, title := a.Title, ""
	if a.OnlineResource != "" {
		key, title = a.OnlineResource, a.Title
	}
	e, ok := out[key]
	if !ok {
		e = &AttributionEntry{Title: title}
		out[key] = e
	}
	e.Layers = append(e.Layers, n)
}

// ReplaceLayerGroups expands every param naming a group of layer into one
// param per leaf of that group.
func ReplaceLayerGroups(params []LayerParam, layer *Node) []LayerParam {
	groups := make(map[string][]string)
	var collect func(n *Node, parents []string)
	collect = func(n *Node, parents []string) {
		if !n.HasChildren() {
			for _, g := range parents {
				groups[g] = append(groups[g], n.Name)
			}
			return
		}
		parents = append(slices.Clip(parents), n.Name)
		for _, c := range n.Sublayers {
			collect(c, parents)
		}
	}
	collect(layer, nil)

	var out []LayerParam
	for _, p := range params {
		leaves, ok := groups[p.Name]
		if !ok {
			out = append(out, p)
			continue
		}
		for _, name := range leaves {
			q := p
			q.Name = name
			out = append(out, q)
		}
	}
	return out
}
