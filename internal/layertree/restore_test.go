package layertree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestoreLayerParams(t *testing.T) {
	params := DecodeLayers("sep:S,wms:http://ext#roads[50],b,d~,x", CodecOptions{})
	r := RestoreLayerParams(theme(), params)

	require.Len(t, r.Layers, 2)
	ph := r.Layers[0]
	assert.Equal(t, TypePlaceholder, ph.Type)
	assert.True(t, ph.Loading)
	assert.Equal(t, "roads", ph.Title)

	reqs := r.External["wms:http://ext"]
	require.Len(t, reqs, 1)
	assert.Equal(t, ph.ID, reqs[0].ID)
	assert.Equal(t, "roads", reqs[0].Name)
	assert.Equal(t, 128, reqs[0].Opacity)

	th := r.Layers[1]
	assert.Equal(t, "theme(a g(b c) d)", names([]*Node{th}))
	assert.False(t, th.Sublayers[0].Visibility, "a is not listed")
	assert.True(t, th.Sublayers[1].Visibility)
	assert.Equal(t, []bool{true, false}, visibilities(th.Sublayers[1]))
	assert.True(t, th.Sublayers[2].Visibility, "tristate leaf stays on")
	assert.False(t, th.Sublayers[2].Tristate)
	assert.False(t, th.Visibility, "a tristate child hides its group")
}

func TestRestoreOrderedLayerParams(t *testing.T) {
	params := DecodeLayers("b,sep:S,wms:http://ext#roads,a!", CodecOptions{})
	r := RestoreOrderedLayerParams(theme(), params)

	require.Len(t, r.Layers, 4)
	assert.Equal(t, "theme(g(b))", names(r.Layers[:1]))
	assert.Equal(t, TypeSeparator, r.Layers[1].Type)
	assert.Equal(t, "S", r.Layers[1].Title)
	assert.Equal(t, TypePlaceholder, r.Layers[2].Type)
	assert.Equal(t, "theme(a)", names(r.Layers[3:]))
	assert.False(t, r.Layers[3].Visibility)
	assert.True(t, r.Layers[0].Visibility)
	assert.Len(t, r.External, 1)
}

func TestRestoreRoundTrip(t *testing.T) {
	th := theme()
	th.Sublayers[0].Opacity = 128
	th.Sublayers[1].Sublayers[1].Visibility = false

	token := EncodeLayers([]*Node{th}, CodecOptions{})
	r := RestoreOrderedLayerParams(theme(), DecodeLayers(token, CodecOptions{}))
	assert.Equal(t, token, EncodeLayers(r.Layers, CodecOptions{}))
}

func TestSetGroupVisibilities(t *testing.T) {
	g := group("g", hidden("x"), hidden("y"))
	root := group("root", g, leaf("z"))
	out := SetGroupVisibilities([]*Node{root})
	assert.False(t, out[0].Sublayers[0].Visibility)
	assert.True(t, out[0].Visibility)

	g.Sublayers[0].Tristate = true
	out = SetGroupVisibilities([]*Node{root})
	assert.False(t, out[0].Sublayers[0].Visibility)
	assert.False(t, out[0].Sublayers[0].Sublayers[0].Tristate)
	assert.True(t, g.Sublayers[0].Tristate, "input must not change")
}
