package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-layers/internal/layertree"
)

// Theme is a named layer tree with its background layers.
type Theme struct {
	ID          string
	Title       string
	Layer       *layertree.Node
	Backgrounds []*layertree.Node
}

// ThemeSummary is the list view of a theme.
type ThemeSummary struct {
	ID          string `json:"id" doc:"Theme identifier" example:"city"`
	Title       string `json:"title" doc:"Display title"`
	Layers      int    `json:"layers" doc:"Number of leaf layers"`
	Backgrounds int    `json:"backgrounds" doc:"Number of background layers"`
}

// Layers returns fresh copies of the theme layer followed by its backgrounds,
// ready to be installed in a store.
func (t Theme) Layers() []*layertree.Node {
	out := []*layertree.Node{t.Layer.Clone()}
	return append(out, layertree.CloneAll(t.Backgrounds)...)
}

// themeDoc is the YAML shape of one theme. Layer trees are kept untyped and
// decoded through the JSON model so node defaults apply.
type themeDoc struct {
	ID                string            `yaml:"id"`
	Title             string            `yaml:"title"`
	URL               string            `yaml:"url"`
	MutuallyExclusive bool              `yaml:"mutuallyExclusive"`
	DrawingOrder      []string          `yaml:"drawingOrder"`
	Sublayers         []any             `yaml:"sublayers"`
	Backgrounds       []any             `yaml:"backgroundLayers"`
	ExtWMSParams      map[string]string `yaml:"extwmsparams"`
}

// ThemeService holds the theme catalogue read from a YAML file.
type ThemeService struct {
	path   string
	themes []Theme
	mu     sync.RWMutex
}

// NewThemeService loads the catalogue at path. A missing file gives an empty
// catalogue.
func NewThemeService(path string) (*ThemeService, error) {
	s := &ThemeService{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the catalogue from disk.
func (s *ThemeService) Reload() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read themes %q: %w", s.path, err)
	}
	themes, err := ParseThemes(data)
	if err != nil {
		return fmt.Errorf("parse themes %q: %w", s.path, err)
	}

	s.mu.Lock()
	s.themes = themes
	s.mu.Unlock()
	return nil
}

// ParseThemes decodes a YAML theme catalogue.
func ParseThemes(data []byte) ([]Theme, error) {
	var file struct {
		Themes []themeDoc `yaml:"themes"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	themes := make([]Theme, 0, len(file.Themes))
	for _, doc := range file.Themes {
		if doc.ID == "" {
			return nil, errors.New("theme without id")
		}
		sublayers, err := decodeNodes(doc.Sublayers)
		if err != nil {
			return nil, fmt.Errorf("theme %q: %w", doc.ID, err)
		}
		backgrounds, err := decodeNodes(doc.Backgrounds)
		if err != nil {
			return nil, fmt.Errorf("theme %q backgrounds: %w", doc.ID, err)
		}

		root := layertree.NewGroup(doc.ID, sublayers...)
		root.ID = doc.ID
		root.Title = doc.Title
		root.Type = layertree.TypeTheme
		root.Role = layertree.RoleTheme
		root.URL = doc.URL
		root.ExtWMSParams = doc.ExtWMSParams
		root.MutuallyExclusive = doc.MutuallyExclusive
		root.DrawingOrder = doc.DrawingOrder
		for _, bg := range backgrounds {
			bg.Role = layertree.RoleBackground
		}

		themes = append(themes, Theme{
			ID:          doc.ID,
			Title:       doc.Title,
			Layer:       root,
			Backgrounds: backgrounds,
		})
	}
	return themes, nil
}

// ParseLayers decodes a YAML list of layer nodes. Missing visibility and
// opacity take their defaults.
func ParseLayers(data []byte) ([]*layertree.Node, error) {
	var raw []any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return decodeNodes(raw)
}

// decodeNodes converts YAML-decoded values into layer nodes.
func decodeNodes(raw []any) ([]*layertree.Node, error) {
	if len(raw) == 0 {
		return []*layertree.Node{}, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var nodes []*layertree.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// List returns a summary of every theme.
func (s *ThemeService) List() []ThemeSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ThemeSummary, 0, len(s.themes))
	for _, t := range s.themes {
		out = append(out, ThemeSummary{
			ID:          t.ID,
			Title:       t.Title,
			Layers:      len(layertree.Leaves(t.Layer)),
			Backgrounds: len(t.Backgrounds),
		})
	}
	return out
}

// Get returns the theme with id.
func (s *ThemeService) Get(id string) (Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.themes, func(t Theme) bool { return t.ID == id })
	if i < 0 {
		return Theme{}, fmt.Errorf("theme %q: %w", id, ErrThemeNotFound)
	}
	return s.themes[i], nil
}
