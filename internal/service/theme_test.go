package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-layers/internal/layertree"
)

func TestParseThemes(t *testing.T) {
	th := cityTheme(t)
	assert.Equal(t, "city", th.ID)
	assert.Equal(t, "City", th.Title)
	assert.Equal(t, layertree.TypeTheme, th.Layer.Type)
	assert.Equal(t, layertree.RoleTheme, th.Layer.Role)
	assert.Equal(t, "https://maps.example.org/ows/city", th.Layer.URL)

	require.Len(t, th.Layer.Sublayers, 3)
	assert.True(t, th.Layer.Sublayers[0].Visibility, "visibility defaults to on")
	assert.Equal(t, 255, th.Layer.Sublayers[0].Opacity)
	assert.True(t, th.Layer.Sublayers[1].IsGroup())
	assert.False(t, th.Layer.Sublayers[1].Sublayers[1].Visibility)
	assert.Equal(t, 128, th.Layer.Sublayers[2].Opacity)

	require.Len(t, th.Backgrounds, 2)
	assert.Equal(t, layertree.RoleBackground, th.Backgrounds[0].Role)
	assert.Equal(t, layertree.TypeWMTS, th.Backgrounds[0].Type)
}

func TestThemeLayersAreCopies(t *testing.T) {
	th := cityTheme(t)
	layers := th.Layers()
	require.Len(t, layers, 3)
	layers[0].Sublayers[0].Visibility = false
	assert.True(t, th.Layer.Sublayers[0].Visibility)
}

func TestParseThemesErrors(t *testing.T) {
	_, err := ParseThemes([]byte("themes:\n  - title: nameless\n"))
	assert.Error(t, err)

	_, err = ParseThemes([]byte("themes: [\n"))
	assert.Error(t, err)

	_, err = ParseThemes([]byte("themes:\n  - id: x\n    sublayers:\n      - opacity: lots\n"))
	assert.Error(t, err)
}

func TestThemeService(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "themes.yaml")

	svc, err := NewThemeService(path)
	require.NoError(t, err)
	assert.Empty(t, svc.List(), "missing file gives an empty catalogue")

	require.NoError(t, os.WriteFile(path, []byte(testThemes), 0o644))
	require.NoError(t, svc.Reload())

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, ThemeSummary{ID: "city", Title: "City", Layers: 4, Backgrounds: 2}, list[0])

	_, err = svc.Get("city")
	require.NoError(t, err)
	_, err = svc.Get("village")
	assert.ErrorIs(t, err, ErrThemeNotFound)
}

func TestParseLayers(t *testing.T) {
	layers, err := ParseLayers([]byte(`
- id: t
  name: t
  role: 2
  sublayers:
    - name: a
    - name: b
      visibility: false
      opacity: 0
`))
	require.NoError(t, err)
	require.Len(t, layers, 1)
	require.True(t, layers[0].IsGroup())
	assert.Equal(t, layertree.RoleTheme, layers[0].Role)
	assert.Equal(t, 255, layers[0].Sublayers[0].Opacity)
	assert.False(t, layers[0].Sublayers[1].Visibility)
	assert.Equal(t, 0, layers[0].Sublayers[1].Opacity)

	_, err = ParseLayers([]byte("{not: [a list"))
	assert.Error(t, err)
}
