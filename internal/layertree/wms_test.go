package layertree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildWMSParams(t *testing.T) {
	tree := NewGroup("lorem", NewLeaf("ipsum"), NewLeaf("dolor"))

	got := BuildWMSParams(tree)
	assert.Equal(t, "dolor,ipsum", got.Layers)
	assert.Equal(t, "255,255", got.Opacities)
	assert.Equal(t, ",", got.Styles)
	assert.Empty(t, got.QueryLayers)
}

func TestBuildWMSParamsDrawingOrder(t *testing.T) {
	amet := NewLeaf("amet")
	amet.Queryable = true
	tree := NewGroup("lorem", NewLeaf("ipsum"), NewLeaf("dolor"), amet)
	tree.DrawingOrder = []string{"dolor", "ipsum", "sit"}

	got := BuildWMSParams(tree)
	assert.Equal(t, "dolor,ipsum", got.Layers)
	assert.Equal(t, "255,255", got.Opacities)
	assert.Equal(t, []string{"amet"}, got.QueryLayers)
}

func TestCollectWMSParamsSkipsHidden(t *testing.T) {
	a := NewLeaf("a")
	a.Opacity = 100
	a.Style = "red"
	a.Queryable = true
	b := NewLeaf("b")
	b.Visibility = false
	hiddenGroup := NewGroup("h", NewLeaf("c"))
	hiddenGroup.Visibility = false
	d := NewLeaf("d")
	d.Queryable = true
	tree := NewGroup("root", a, b, hiddenGroup, NewGroup("g", d))

	got := CollectWMSParams(tree)
	assert.Equal(t, []string{"d", "a"}, got.Names)
	assert.Equal(t, []int{255, 100}, got.Opacities)
	assert.Equal(t, []string{"", "red"}, got.Styles)
	assert.Equal(t, []string{"a", "d"}, got.Queryable, "queryable keeps tree order")

	tree.Visibility = false
	assert.Equal(t, RequestParams{}, BuildWMSParams(tree))
}

func TestBuildWMSParamsLeaf(t *testing.T) {
	l := NewLeaf("single")
	l.Opacity = 128
	got := BuildWMSParams(l)
	assert.Equal(t, RequestParams{Layers: "single", Opacities: "128"}, got)
}

func TestWithParams(t *testing.T) {
	th := theme()
	u := userLayer("u")
	v := leaf("v")
	v.Type = TypeVector

	out := WithParams([]*Node{th, u, v})
	if assert.NotNil(t, out[0].Params) {
		assert.Equal(t, "d,c,b,a", out[0].Params.Layers)
	}
	if assert.NotNil(t, out[1].Params) {
		assert.Equal(t, "u", out[1].Params.Layers)
	}
	assert.Nil(t, out[2].Params)
	assert.Same(t, v, out[2])
	assert.Nil(t, th.Params, "input must not change")
}
