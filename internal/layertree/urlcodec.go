package layertree

import (
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// CodecOptions control the layer token list.
type CodecOptions struct {
	// ReverseOrder lists tokens bottom layer first.
	ReverseOrder bool
}

// LayerParam is one decoded token of the layer list.
type LayerParam struct {
	ID         string `json:"id" doc:"Freshly generated identifier"`
	Type       Type   `json:"type" doc:"theme, separator or the user layer type"`
	URL        string `json:"url,omitempty" doc:"Service or capabilities URL of a user layer"`
	Name       string `json:"name" doc:"Layer name, or separator title"`
	Opacity    int    `json:"opacity" minimum:"0" maximum:"255"`
	Visibility bool   `json:"visibility"`
	Tristate   bool   `json:"tristate,omitempty" doc:"On, but hidden through a parent group"`
}

// Key groups external layers by their source.
func (p LayerParam) Key() string {
	return string(p.Type) + ":" + p.URL
}

// String encodes p as a single token.
func (p LayerParam) String() string {
	var b strings.Builder
	switch p.Type {
	case TypeSeparator:
		return "sep:" + p.Name
	case TypeTheme, "":
		b.WriteString(p.Name)
	default:
		b.WriteString(string(p.Type) + ":" + p.URL + "#" + p.Name)
	}
	if p.Opacity < DefaultOpacity {
		n := math.Round(float64(DefaultOpacity-p.Opacity) / DefaultOpacity * 100)
		b.WriteString("[" + strconv.Itoa(int(n)) + "]")
	}
	switch {
	case p.Tristate:
		b.WriteByte('~')
	case !p.Visibility:
		b.WriteByte('!')
	}
	return b.String()
}

// EncodeLayers serializes the theme and user layers of roots into the
// comma-separated token list. Theme leaves are listed whether visible or
// not; a leaf that is on but hidden through a group is marked tristate.
func EncodeLayers(roots []*Node, opts CodecOptions) string {
	var tokens []string
	for _, r := range roots {
		for _, p := range layerParams(r) {
			tokens = append(tokens, p.String())
		}
	}
	if opts.ReverseOrder {
		slices.Reverse(tokens)
	}
	return strings.Join(tokens, ",")
}

func layerParams(r *Node) []LayerParam {
	switch {
	case r.Role == RoleTheme:
		return leafParams(r, TypeTheme, "")
	case r.Role != RoleUserLayer:
		return nil
	case r.Type == TypeWMS:
		return leafParams(r, TypeWMS, withExtWMSParams(r.URL, r.ExtWMSParams))
	case r.Type == TypeWFS || r.Type == TypeWMTS:
		url := r.CapabilitiesURL
		if url == "" {
			url = r.URL
		}
		return []LayerParam{{Type: r.Type, URL: url, Name: r.Name, Opacity: r.Opacity, Visibility: r.Visibility}}
	case r.Type == TypeSeparator:
		return []LayerParam{{Type: TypeSeparator, Name: r.Title, Opacity: DefaultOpacity, Visibility: true}}
	}
	return nil
}

func leafParams(r *Node, typ Type, url string) []LayerParam {
	var out []LayerParam
	var visit func(n *Node, parentVisible bool)
	visit = func(n *Node, parentVisible bool) {
		if n.IsGroup() {
			for _, c := range n.Sublayers {
				visit(c, parentVisible && n.Visibility)
			}
			return
		}
		out = append(out, LayerParam{
			Type:       typ,
			URL:        url,
			Name:       n.Name,
			Opacity:    n.Opacity,
			Visibility: n.Visibility && parentVisible,
			Tristate:   n.Visibility && !parentVisible,
		})
	}
	visit(r, true)
	return out
}

func withExtWMSParams(url string, params map[string]string) string {
	if len(params) == 0 {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(params)) {
		parts = append(parts, "extwms."+k+"="+params[k])
	}
	return url + sep + strings.Join(parts, "&")
}

var (
	opacitySuffix = regexp.MustCompile(`^(.*)\[(\d+)\]$`)
	typedToken    = regexp.MustCompile(`^(\w+):(.*)#([^#]+)$`)
)

// DecodeLayerParam parses a single token. It never fails: anything that is
// not a typed token or a separator is taken as a theme layer name.
func DecodeLayerParam(token string) LayerParam {
	p := LayerParam{
		ID:         newUUID(),
		Type:       TypeTheme,
		Opacity:    DefaultOpacity,
		Visibility: true,
	}
	switch {
	case strings.HasSuffix(token, "!"):
		p.Visibility = false
		token = token[:len(token)-1]
	case strings.HasSuffix(token, "~"):
		p.Visibility = false
		p.Tristate = true
		token = token[:len(token)-1]
	}
	if m := opacitySuffix.FindStringSubmatch(token); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil {
			token = m[1]
			p.Opacity = clampOpacity(int(math.Round(DefaultOpacity - float64(n)/100*DefaultOpacity)))
		}
	}
	if m := typedToken.FindStringSubmatch(token); m != nil {
		p.Type, p.URL, p.Name = Type(m[1]), m[2], m[3]
	} else if title, ok := strings.CutPrefix(token, "sep:"); ok {
		p.Type, p.Name = TypeSeparator, title
	} else {
		p.Name = token
	}
	return p
}

// DecodeLayers splits a token list and decodes every non-empty token.
func DecodeLayers(value string, opts CodecOptions) []LayerParam {
	var out []LayerParam
	for _, tok := range strings.Split(value, ",") {
		if tok == "" {
			continue
		}
		out = append(out, DecodeLayerParam(tok))
	}
	if opts.ReverseOrder {
		slices.Reverse(out)
	}
	return out
}

func clampOpacity(o int) int {
	return max(0, min(DefaultOpacity, o))
}
