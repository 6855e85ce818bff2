package layertree

import (
	"slices"
	"strconv"
	"strings"
)

// WMSParams are the per-leaf values collected from a tree, in the order the
// server draws them: earlier entries are drawn below later ones.
type WMSParams struct {
	Names     []string
	Opacities []int
	Styles    []string
	Queryable []string
}

// RequestParams are the comma-joined request parameters handed to the
// GetMap/GetFeatureInfo builder.
type RequestParams struct {
	Layers      string   `json:"LAYERS" doc:"Comma-separated layer names, bottom first"`
	Opacities   string   `json:"OPACITIES" doc:"Comma-separated opacities matching LAYERS"`
	Styles      string   `json:"STYLES" doc:"Comma-separated styles matching LAYERS"`
	QueryLayers []string `json:"query_layers,omitempty" doc:"Layers that answer GetFeatureInfo"`
}

// CollectWMSParams gathers the visible leaves of n. Invisible nodes hide
// their whole subtree. The name, opacity and style lists are reversed so the
// bottom of the tree comes first; a drawing order on n then filters and
// reorders them. Queryable names keep tree order and ignore the drawing order.
func CollectWMSParams(n *Node) WMSParams {
	var p WMSParams
	collectWMS(n, &p)

	slices.Reverse(p.Names)
	slices.Reverse(p.Opacities)
	slices.Reverse(p.Styles)

	if n.IsGroup() && len(n.DrawingOrder) > 0 {
		var names, styles []string
		var opacities []int
		for _, want := range n.DrawingOrder {
			idx := slices.Index(p.Names, want)
			if idx < 0 {
				continue
			}
			names = append(names, p.Names[idx])
			opacities = append(opacities, p.Opacities[idx])
			styles = append(styles, p.Styles[idx])
		}
		p.Names, p.Opacities, p.Styles = names, opacities, styles
	}
	return p
}

func collectWMS(n *Node, p *WMSParams) {
	if !n.Visibility {
		return
	}
	if n.IsGroup() {
		for _, child := range n.Sublayers {
			collectWMS(child, p)
		}
		return
	}
	p.Names = append(p.Names, n.Name)
	p.Opacities = append(p.Opacities, n.Opacity)
	p.Styles = append(p.Styles, n.Style)
	if n.Queryable {
		p.Queryable = append(p.Queryable, n.Name)
	}
}

// Request joins the collected values into request parameters.
func (p WMSParams) Request() RequestParams {
	opacities := make([]string, len(p.Opacities))
	for i, o := range p.Opacities {
		opacities[i] = strconv.Itoa(o)
	}
	return RequestParams{
		Layers:      strings.Join(p.Names, ","),
		Opacities:   strings.Join(opacities, ","),
		Styles:      strings.Join(p.Styles, ","),
		QueryLayers: p.Queryable,
	}
}

// BuildWMSParams is CollectWMSParams followed by Request.
func BuildWMSParams(n *Node) RequestParams {
	return CollectWMSParams(n).Request()
}

// WithParams returns roots with Params recomputed on every top-level theme
// and wms layer. Other layers are returned as they are.
func WithParams(roots []*Node) []*Node {
	out := make([]*Node, len(roots))
	for i, r := range roots {
		if r.Type != TypeWMS && r.Type != TypeTheme {
			out[i] = r
			continue
		}
		c := r.shallow()
		p := BuildWMSParams(c)
		c.Params = &p
		out[i] = c
	}
	return out
}
