// Package layertree implements the layer-tree engine: flattening a tree of
// map layers into addressable entries and back, reordering, mutual
// exclusivity, WMS parameter synthesis and the permalink token codec.
//
// Every exported operation is a pure function over its arguments. Trees are
// addressed by (uuid, sublayer path) pairs that must be recomputed after any
// structural change.
package layertree

import (
	"encoding/json"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Role orders top-level layers and controls which operations apply to them.
type Role int

const (
	RoleBackground Role = iota + 1
	RoleTheme
	RoleUserLayer
	RoleSelection
	RoleMarker
)

func (r Role) String() string {
	switch r {
	case RoleBackground:
		return "background"
	case RoleTheme:
		return "theme"
	case RoleUserLayer:
		return "userlayer"
	case RoleSelection:
		return "selection"
	case RoleMarker:
		return "marker"
	}
	return "unknown"
}

// Type is the kind of source behind a layer.
type Type string

const (
	TypeTheme       Type = "theme"
	TypeWMS         Type = "wms"
	TypeWFS         Type = "wfs"
	TypeWMTS        Type = "wmts"
	TypeVector      Type = "vector"
	TypeSeparator   Type = "separator"
	TypePlaceholder Type = "placeholder"
)

// Default values for fields absent from the input.
const (
	DefaultOpacity = 255
)

// Node is a layer tree node. It is a leaf when Group is nil and a group
// otherwise; a group with no sublayers is still a group.
//
// The group fields (Sublayers, MutuallyExclusive, DrawingOrder) are promoted
// from the embedded *Group and panic on a leaf. Check IsGroup or HasChildren
// first, or use Children.
type Node struct {
	ID              string             `json:"id,omitempty" doc:"Caller-stable identifier used for implode merging" example:"theme"`
	UUID            string             `json:"uuid,omitempty" doc:"Unique identifier within the tree"`
	Name            string             `json:"name,omitempty" doc:"Layer name as known to the server" example:"roads"`
	Title           string             `json:"title,omitempty" doc:"Display title"`
	Type            Type               `json:"type,omitempty" enum:"theme,wms,wfs,wmts,vector,separator,placeholder" doc:"Layer source type"`
	Role            Role               `json:"role,omitempty" minimum:"0" maximum:"5" doc:"1=background 2=theme 3=userlayer 4=selection 5=marker"`
	Visibility      bool               `json:"visibility" required:"false" default:"true" doc:"Whether the layer is switched on"`
	Opacity         int                `json:"opacity" required:"false" default:"255" minimum:"0" maximum:"255" doc:"Opacity (0-255)"`
	Queryable       bool               `json:"queryable,omitempty" doc:"Whether GetFeatureInfo may target this layer"`
	Style           string             `json:"style,omitempty" doc:"WMS style name"`
	URL             string             `json:"url,omitempty" doc:"Service URL of a user layer"`
	CapabilitiesURL string             `json:"capabilitiesUrl,omitempty" doc:"Capabilities URL of a WFS/WMTS user layer"`
	ExtWMSParams    map[string]string  `json:"extwmsparams,omitempty" doc:"Extra parameters forwarded to an external WMS"`
	Tristate        bool               `json:"tristate,omitempty" doc:"Switched on but hidden through a parent group"`
	Loading         bool               `json:"loading,omitempty" doc:"Placeholder waiting for its external layer"`
	MinScale        *float64           `json:"minScale,omitempty" doc:"Minimum map scale at which the layer is drawn"`
	MaxScale        *float64           `json:"maxScale,omitempty" doc:"Scale from which the layer is no longer drawn"`
	BBox            *orb.Bound         `json:"bbox,omitempty" doc:"Layer extent"`
	Attribution     *Attribution       `json:"attribution,omitempty" doc:"Attribution shown while the layer is in view"`
	Features        []*geojson.Feature `json:"features,omitempty" doc:"Features of a vector layer"`
	Params          *RequestParams     `json:"params,omitempty" readOnly:"true" doc:"Synthesized WMS request parameters"`

	*Group
}

// Group holds the group-only fields of a Node.
type Group struct {
	Sublayers         []*Node  `json:"sublayers" required:"false"`
	MutuallyExclusive bool     `json:"mutuallyExclusive,omitempty"`
	DrawingOrder      []string `json:"drawingOrder,omitempty"`
}

// Attribution is a copyright notice attached to a layer.
type Attribution struct {
	Title          string `json:"title"`
	OnlineResource string `json:"onlineResource,omitempty"`
}

// NewLeaf returns a visible, opaque leaf.
func NewLeaf(name string) *Node {
	return &Node{Name: name, Visibility: true, Opacity: DefaultOpacity}
}

// NewGroup returns a visible, opaque group owning children.
func NewGroup(name string, children ...*Node) *Node {
	n := NewLeaf(name)
	n.Group = &Group{Sublayers: children}
	return n
}

// UnmarshalJSON applies the defaults for visibility and opacity before
// decoding.
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	p := plain{Visibility: true, Opacity: DefaultOpacity}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = Node(p)
	return nil
}

// IsGroup reports whether n is a group (possibly empty).
func (n *Node) IsGroup() bool {
	return n != nil && n.Group != nil
}

// Children returns the sublayers of a group, or nil for a leaf.
func (n *Node) Children() []*Node {
	if n.Group == nil {
		return nil
	}
	return n.Sublayers
}

// HasChildren reports whether n is a group with at least one sublayer.
func (n *Node) HasChildren() bool {
	return n.Group != nil && len(n.Sublayers) > 0
}

// shallow copies n and its group container. Sublayer pointers are shared.
func (n *Node) shallow() *Node {
	c := *n
	if n.Group != nil {
		g := *n.Group
		g.Sublayers = slices.Clone(n.Sublayers)
		g.DrawingOrder = slices.Clone(n.DrawingOrder)
		c.Group = &g
	}
	return &c
}

// Clone returns a deep copy of the tree rooted at n. Features are shared;
// they are never mutated in place.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := n.shallow()
	if c.Group != nil {
		for i, child := range c.Sublayers {
			c.Sublayers[i] = child.Clone()
		}
	}
	return c
}

// CloneAll deep-copies a list of trees.
func CloneAll(roots []*Node) []*Node {
	out := make([]*Node, len(roots))
	for i, r := range roots {
		out[i] = r.Clone()
	}
	return out
}

// Walk calls fn for n and every descendant in pre-order with its path
// relative to n. Returning false from fn skips the node's subtree.
func Walk(n *Node, fn func(node *Node, path []int) bool) {
	walk(n, nil, fn)
}

func walk(n *Node, path []int, fn func(*Node, []int) bool) {
	if !fn(n, path) {
		return
	}
	for i, child := range n.Children() {
		walk(child, append(slices.Clone(path), i), fn)
	}
}

// Leaves returns the leaves of n in pre-order. A leaf root yields itself.
func Leaves(n *Node) []*Node {
	var out []*Node
	Walk(n, func(node *Node, _ []int) bool {
		if !node.IsGroup() {
			out = append(out, node)
		}
		return true
	})
	return out
}

// partition splits roots into foreground and background layers.
func partition(roots []*Node) (fg, bg []*Node) {
	for _, r := range roots {
		if r.Role == RoleBackground {
			bg = append(bg, r)
		} else {
			fg = append(fg, r)
		}
	}
	return fg, bg
}

// pathHasPrefix reports whether path equals prefix or lies below it.
func pathHasPrefix(path, prefix []int) bool {
	return len(path) >= len(prefix) && slices.Equal(path[:len(prefix)], prefix)
}
