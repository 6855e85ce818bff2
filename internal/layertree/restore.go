package layertree

import "slices"

// ExternalLayerRequest asks the caller to resolve an external layer and put
// it in place of the placeholder with the same ID.
type ExternalLayerRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Opacity    int    `json:"opacity"`
	Visibility bool   `json:"visibility"`
}

// Restored is the outcome of restoring a layer list from decoded tokens.
type Restored struct {
	Layers []*Node `json:"layers"`
	// External maps "type:url" to the layers to load from that source.
	External map[string][]ExternalLayerRequest `json:"external,omitempty"`
}

func (r *Restored) placeholder(p LayerParam) []Entry {
	if r.External == nil {
		r.External = make(map[string][]ExternalLayerRequest)
	}
	r.External[p.Key()] = append(r.External[p.Key()], ExternalLayerRequest{
		ID:         p.ID,
		Name:       p.Name,
		Opacity:    p.Opacity,
		Visibility: p.Visibility,
	})
	return Explode([]*Node{NewPlaceholder(p.ID, p.Name)})
}

func applyParam(leaf *Node, p LayerParam) {
	leaf.Opacity = p.Opacity
	leaf.Visibility = p.Visibility || p.Tristate
	leaf.Tristate = p.Tristate
}

// RestoreLayerParams applies decoded tokens to the theme while keeping the
// theme's own layer order. Theme leaves missing from params are hidden;
// external layers become placeholders on top, separators are dropped.
func RestoreLayerParams(theme *Node, params []LayerParam) Restored {
	var r Restored
	entries := Explode([]*Node{theme})
	for _, e := range entries {
		i := slices.IndexFunc(params, func(p LayerParam) bool {
			return p.Type == TypeTheme && p.Name == e.Leaf.Name
		})
		if i < 0 {
			e.Leaf.Visibility = false
			continue
		}
		applyParam(e.Leaf, params[i])
	}

	var external []Entry
	for _, p := range params {
		if p.Type != TypeTheme && p.Type != TypeSeparator {
			external = append(external, r.placeholder(p)...)
		}
	}
	r.Layers = SetGroupVisibilities(Implode(append(external, entries...)))
	return r
}

// RestoreOrderedLayerParams rebuilds the foreground in the order of params:
// theme leaves are pulled out of the theme as they are named, separators are
// recreated and external layers become placeholders. Theme leaves not named
// in params are dropped.
func RestoreOrderedLayerParams(theme *Node, params []LayerParam) Restored {
	var r Restored
	entries := Explode([]*Node{theme})
	taken := make([]bool, len(entries))
	var ordered []Entry
	for _, p := range params {
		switch p.Type {
		case TypeTheme:
			i := slices.IndexFunc(entries, func(e Entry) bool { return e.Leaf.Name == p.Name })
			if i < 0 || taken[i] {
				continue
			}
			taken[i] = true
			applyParam(entries[i].Leaf, p)
			ordered = append(ordered, entries[i])
		case TypeSeparator:
			ordered = append(ordered, Explode([]*Node{NewSeparator(p.Name)})...)
		default:
			ordered = append(ordered, r.placeholder(p)...)
		}
	}
	r.Layers = SetGroupVisibilities(Implode(ordered))
	return r
}

// SetGroupVisibilities derives group visibility from the leaves: a group is
// visible when at least one child is visible and none is tristate. Tristate
// flags are consumed.
func SetGroupVisibilities(roots []*Node) []*Node {
	out := CloneAll(roots)
	for _, r := range out {
		if r.HasChildren() {
			r.Visibility = groupVisibility(r.Sublayers)
		}
		r.Tristate = false
	}
	return out
}

func groupVisibility(children []*Node) bool {
	visible, hidden := false, false
	for _, c := range children {
		if c.HasChildren() {
			c.Visibility = groupVisibility(c.Sublayers)
		}
		hidden = hidden || c.Tristate
		c.Tristate = false
		visible = visible || c.Visibility
	}
	return visible && !hidden
}
