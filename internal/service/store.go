package service

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-layers/internal/config"
	"github.com/joeblew999/plat-layers/internal/layertree"
	"github.com/joeblew999/plat-layers/internal/metrics"
)

// Errors returned by the store for requests that name something absent.
var (
	// ErrLayerNotFound is returned when no top-level layer has the uuid, or
	// the sublayer path does not resolve inside it.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrThemeNotFound is returned when a theme id is unknown, or when a
	// command needs a theme and none is loaded.
	ErrThemeNotFound = errors.New("theme not found")

	// ErrPlaceholderNotFound is returned when no placeholder has the id.
	ErrPlaceholderNotFound = errors.New("placeholder not found")

	// ErrExclusiveHide is returned when hiding the visible member of a
	// mutually exclusive group.
	ErrExclusiveHide = errors.New("cannot hide the active member of a mutually exclusive group")
)

// Event actions published by the store.
const (
	ActionAdded     = "added"
	ActionRemoved   = "removed"
	ActionReordered = "reordered"
	ActionChanged   = "changed"
	ActionReplaced  = "replaced"
	ActionRestored  = "restored"
	ActionReset     = "reset"
)

// LayerStore owns the layer list of one map session. Every command runs the
// pure tree operation under the write lock, installs the result and then
// publishes an Event carrying the new permalink.
//
// Installed trees are never modified in place; callers must treat returned
// nodes as read-only.
type LayerStore struct {
	cfg     config.Config
	layers  []*layertree.Node
	theme   *Theme
	bus     *EventBus
	log     *log.Logger
	metrics *metrics.Metrics
	mu      sync.RWMutex
}

// NewLayerStore creates an empty store. bus, logger and m may be nil.
func NewLayerStore(cfg config.Config, bus *EventBus, logger *log.Logger, m *metrics.Metrics) *LayerStore {
	if bus == nil {
		bus = NewEventBus()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LayerStore{
		cfg:     cfg,
		layers:  []*layertree.Node{},
		bus:     bus,
		log:     logger.WithPrefix("store"),
		metrics: m,
	}
}

// Bus returns the event bus mutations are published on.
func (s *LayerStore) Bus() *EventBus {
	return s.bus
}

// Config returns the behaviour settings of the store.
func (s *LayerStore) Config() config.Config {
	return s.cfg
}

// apply runs fn on the current layers under the write lock and installs the
// result. fn returning an error leaves the store untouched.
func (s *LayerStore) apply(command, action, id string, fn func([]*layertree.Node) ([]*layertree.Node, error)) ([]*layertree.Node, error) {
	start := time.Now()

	out, token, err := s.install(fn)
	if err != nil {
		s.metrics.ObserveCommand(command, "error", time.Since(start))
		s.log.Debug("command rejected", "command", command, "id", id, "err", err)
		return nil, err
	}

	s.metrics.ObserveCommand(command, "ok", time.Since(start))
	s.metrics.SetLayerCount(len(out))
	s.log.Debug("layers changed", "command", command, "id", id, "layers", len(out))
	s.bus.Publish(Event{Resource: "layers", Action: action, ID: id, Permalink: token})
	return out, nil
}

// install holds the write lock while fn runs, so a panic in fn releases it.
func (s *LayerStore) install(fn func([]*layertree.Node) ([]*layertree.Node, error)) ([]*layertree.Node, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := fn(s.layers)
	if err != nil {
		return nil, "", err
	}
	out = layertree.WithParams(out)
	s.layers = out
	return out, s.permalink(out), nil
}

func (s *LayerStore) permalink(roots []*layertree.Node) string {
	return layertree.EncodeLayers(roots, layertree.CodecOptions{ReverseOrder: s.cfg.ReverseLayerOrder})
}

// List returns the current layers, topmost first.
func (s *LayerStore) List() []*layertree.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.layers)
}

// Layer returns the top-level layer with the given uuid.
func (s *LayerStore) Layer(layerUUID string) (*layertree.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, l, err := findLayer(s.layers, layerUUID)
	return l, err
}

// Theme returns the loaded theme, if any.
func (s *LayerStore) Theme() (Theme, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.theme == nil {
		return Theme{}, false
	}
	return *s.theme, true
}

// Permalink returns the URL token of the current layer list.
func (s *LayerStore) Permalink() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.permalink(s.layers)
}

func findLayer(roots []*layertree.Node, layerUUID string) (int, *layertree.Node, error) {
	i := slices.IndexFunc(roots, func(r *layertree.Node) bool { return r.UUID == layerUUID })
	if i < 0 {
		return -1, nil, fmt.Errorf("layer %q: %w", layerUUID, ErrLayerNotFound)
	}
	return i, roots[i], nil
}

func findSublayer(roots []*layertree.Node, layerUUID string, path []int) error {
	_, l, err := findLayer(roots, layerUUID)
	if err != nil {
		return err
	}
	if _, _, ok := layertree.ResolvePath(l, path); !ok {
		return fmt.Errorf("layer %q path %v: %w", layerUUID, path, ErrLayerNotFound)
	}
	return nil
}

// AddOptions places a new layer.
type AddOptions struct {
	// Pos is the top-level index; negative means after every layer of a
	// higher role.
	Pos int
	// BeforeName inserts the layer above the first theme or user leaf with
	// that name. When no leaf matches, Pos applies.
	BeforeName string
}

// Add inserts layer and returns it as installed.
func (s *LayerStore) Add(layer *layertree.Node, opts AddOptions) (*layertree.Node, error) {
	var before layertree.UUIDSet
	out, err := s.apply("add", ActionAdded, layer.ID, func(roots []*layertree.Node) ([]*layertree.Node, error) {
		before = layertree.CollectUUIDs(roots...)
		if opts.BeforeName != "" {
			l := withDefaults(layer)
			if out, ok := layertree.InsertLayer(roots, l, layertree.ByName(opts.BeforeName)); ok {
				return out, nil
			}
		}
		return layertree.AddLayer(roots, layer, opts.Pos), nil
	})
	if err != nil {
		return nil, err
	}
	for _, r := range out {
		if !before.Has(r.UUID) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("added layer %q: %w", layer.ID, ErrLayerNotFound)
}

func withDefaults(layer *layertree.Node) *layertree.Node {
	l := layer.Clone()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Name == "" {
		l.Name = l.ID
	}
	if l.Role == 0 {
		l.Role = layertree.RoleUserLayer
	}
	return l
}

// Remove removes the node at path inside the layer with the given uuid. An
// empty path removes the whole layer.
func (s *LayerStore) Remove(layerUUID string, path []int) error {
	_, err := s.apply("remove", ActionRemoved, layerUUID, func(roots []*layertree.Node) ([]*layertree.Node, error) {
		if err := findSublayer(roots, layerUUID, path); err != nil {
			return nil, err
		}
		return layertree.RemoveLayer(roots, layerUUID, path), nil
	})
	return err
}

// RemoveAll clears the store.
func (s *LayerStore) RemoveAll() {
	_, _ = s.apply("remove_all", ActionReset, "", func([]*layertree.Node) ([]*layertree.Node, error) {
		return []*layertree.Node{}, nil
	})
}

// Reorder moves the sublayer at path of the given layer by delta positions.
// Moves past either end are ignored.
func (s *LayerStore) Reorder(layerUUID string, path []int, delta int) error {
	_, err := s.apply("reorder", ActionReordered, layerUUID, func(roots []*layertree.Node) ([]*layertree.Node, error) {
		if err := findSublayer(roots, layerUUID, path); err != nil {
			return nil, err
		}
		return layertree.Reorder(roots, layerUUID, path, delta, s.cfg.PreventSplittingGroups), nil
	})
	return err
}

// SetVisibility switches the sublayer at path on or off.
func (s *LayerStore) SetVisibility(layerUUID string, path []int, visible bool, recurse layertree.Recurse) error {
	_, err := s.apply("set_visibility", ActionChanged, layerUUID, func(roots []*layertree.Node) ([]*layertree.Node, error) {
		if err := findSublayer(roots, layerUUID, path); err != nil {
			return nil, err
		}
		out, ok := layertree.SetVisibility(roots, layerUUID, path, visible, recurse)
		if !ok {
			return nil, fmt.Errorf("layer %q path %v: %w", layerUUID, path, ErrExclusiveHide)
		}
		return out, nil
	})
	return err
}

// SetOpacity sets the opacity (0-255) of the sublayer at path.
func (s *LayerStore) SetOpacity(layerUUID string, path []int, opacity int, recurse layertree.Recurse) error {
	_, err := s.apply("set_opacity", ActionChanged, layerUUID, func(roots []*layertree.Node) ([]*layertree.Node, error) {
		if err := findSublayer(roots, layerUUID, path); err != nil {
			return nil, err
		}
		out, _ := layertree.SetOpacity(roots, layerUUID, path, opacity, recurse)
		return out, nil
	})
	return err
}

// InsertSeparator splits the layer with id beforeID above the leaf at
// beforePath and puts a separator in between.
func (s *LayerStore) InsertSeparator(title, beforeID string, beforePath []int) error {
	_, err := s.apply("insert_separator", ActionAdded, beforeID, func(roots []*layertree.Node) ([]*layertree.Node, error) {
		out := layertree.InsertSeparator(roots, title, beforeID, beforePath)
		if len(out) == len(roots) {
			return nil, fmt.Errorf("layer %q path %v: %w", beforeID, beforePath, ErrLayerNotFound)
		}
		return out, nil
	})
	return err
}

// ReplacePlaceholder swaps the placeholder with id for layer; a nil layer
// drops the placeholder.
func (s *LayerStore) ReplacePlaceholder(id string, layer *layertree.Node) error {
	_, err := s.apply("replace_placeholder", ActionReplaced, id, func(roots []*layertree.Node) ([]*layertree.Node, error) {
		if layer != nil {
			layer = withDefaults(layer)
		}
		out, ok := layertree.ReplacePlaceholder(roots, id, layer)
		if !ok {
			return nil, fmt.Errorf("placeholder %q: %w", id, ErrPlaceholderNotFound)
		}
		return out, nil
	})
	return err
}

// AddThemeSublayers merges the sublayers of add into the theme layer and
// switches it on.
func (s *LayerStore) AddThemeSublayers(add *layertree.Node) error {
	_, err := s.apply("add_theme_sublayer", ActionChanged, add.ID, func(roots []*layertree.Node) ([]*layertree.Node, error) {
		i := slices.IndexFunc(roots, func(r *layertree.Node) bool { return r.Role == layertree.RoleTheme })
		if i < 0 {
			return nil, fmt.Errorf("theme layer: %w", ErrThemeNotFound)
		}
		merged := layertree.MergeSublayers(roots[i], add)
		merged.Visibility = true
		out := slices.Clone(roots)
		out[i] = layertree.AssignIdentities(merged, layertree.CollectUUIDs(slices.Delete(slices.Clone(roots), i, i+1)...))
		return out, nil
	})
	return err
}

// AddFeatures adds features to the vector layer with layer.ID, creating it
// when needed, and returns the layer.
func (s *LayerStore) AddFeatures(layer *layertree.Node, features []*geojson.Feature, clear bool) (*layertree.Node, error) {
	if layer.ID == "" {
		l := *layer
		l.ID = uuid.NewString()
		layer = &l
	}
	out, err := s.apply("add_features", ActionChanged, layer.ID, func(roots []*layertree.Node) ([]*layertree.Node, error) {
		return layertree.AddFeatures(roots, layer, features, clear), nil
	})
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(out, func(r *layertree.Node) bool { return r.ID == layer.ID })
	return out[i], nil
}

// RemoveFeatures drops features from the layer with layerID.
func (s *LayerStore) RemoveFeatures(layerID string, featureIDs []string, keepEmpty bool) error {
	_, err := s.apply("remove_features", ActionChanged, layerID, func(roots []*layertree.Node) ([]*layertree.Node, error) {
		if !slices.ContainsFunc(roots, func(r *layertree.Node) bool { return r.ID == layerID }) {
			return nil, fmt.Errorf("layer id %q: %w", layerID, ErrLayerNotFound)
		}
		return layertree.RemoveFeatures(roots, layerID, featureIDs, keepEmpty), nil
	})
	return err
}

// SetLayers replaces the whole list. Exclusivity is enforced and uuids are
// made unique.
func (s *LayerStore) SetLayers(roots []*layertree.Node) []*layertree.Node {
	out, _ := s.apply("set_layers", ActionReset, "", func([]*layertree.Node) ([]*layertree.Node, error) {
		return normalize(roots), nil
	})
	return out
}

func normalize(roots []*layertree.Node) []*layertree.Node {
	used := layertree.NewUUIDSet()
	out := make([]*layertree.Node, 0, len(roots))
	for _, r := range roots {
		out = append(out, layertree.AssignIdentities(layertree.EnforceExclusivity(r), used))
	}
	return out
}

// LoadTheme replaces the layers with the theme and its backgrounds and keeps
// the theme for later restores.
func (s *LayerStore) LoadTheme(t Theme) []*layertree.Node {
	out, _ := s.apply("load_theme", ActionReset, t.ID, func([]*layertree.Node) ([]*layertree.Node, error) {
		s.theme = &t
		return normalize(t.Layers()), nil
	})
	s.log.Info("theme loaded", "theme", t.ID, "layers", len(out))
	return out
}

// Restore rebuilds the foreground of the loaded theme from a URL token.
// Background layers are kept. The returned requests name the external
// layers whose placeholders wait for ReplacePlaceholder.
func (s *LayerStore) Restore(token string) (map[string][]layertree.ExternalLayerRequest, error) {
	var restored layertree.Restored
	_, err := s.apply("restore", ActionRestored, "", func(roots []*layertree.Node) ([]*layertree.Node, error) {
		if s.theme == nil {
			return nil, fmt.Errorf("restore: %w", ErrThemeNotFound)
		}
		params := layertree.DecodeLayers(token, layertree.CodecOptions{ReverseOrder: s.cfg.ReverseLayerOrder})
		params = layertree.ReplaceLayerGroups(params, s.theme.Layer)
		if s.cfg.RestoreOrdered {
			restored = layertree.RestoreOrderedLayerParams(s.theme.Layer.Clone(), params)
		} else {
			restored = layertree.RestoreLayerParams(s.theme.Layer.Clone(), params)
		}
		_, bg := splitBackground(roots)
		return normalize(append(restored.Layers, bg...)), nil
	})
	if err != nil {
		return nil, err
	}
	return restored.External, nil
}

func splitBackground(roots []*layertree.Node) (fg, bg []*layertree.Node) {
	for _, r := range roots {
		if r.Role == layertree.RoleBackground {
			bg = append(bg, r)
		} else {
			fg = append(fg, r)
		}
	}
	return fg, bg
}

// WMSParams returns the request parameters of the layer with the given uuid.
func (s *LayerStore) WMSParams(layerUUID string) (layertree.RequestParams, error) {
	l, err := s.Layer(layerUUID)
	if err != nil {
		return layertree.RequestParams{}, err
	}
	return layertree.BuildWMSParams(l), nil
}
