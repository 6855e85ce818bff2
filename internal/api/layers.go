package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-layers/internal/humastar"
	"github.com/joeblew999/plat-layers/internal/layertree"
	"github.com/joeblew999/plat-layers/internal/service"
)

var (
	layerActions = []humastar.ActionDef{
		{Rel: "delete", Pattern: "/api/v1/layers/%s", Method: "DELETE", Title: "Remove layer"},
		{Rel: "reorder", Pattern: "/api/v1/layers/%s/reorder", Method: "POST", Title: "Move layer"},
		{Rel: "visibility", Pattern: "/api/v1/layers/%s/visibility", Method: "PUT", Title: "Show or hide"},
		{Rel: "opacity", Pattern: "/api/v1/layers/%s/opacity", Method: "PUT", Title: "Change opacity"},
	}
	wmsAction     = humastar.ActionDef{Rel: "wms", Pattern: "/api/v1/layers/%s/wms", Method: "GET", Title: "WMS parameters"}
	featureAction = humastar.ActionDef{Rel: "features", Pattern: "/api/v1/layers/%s/features", Method: "POST", Title: "Add features"}
)

type UUIDInput struct {
	UUID string `path:"uuid" doc:"Top-level layer uuid"`
}

// LayersBody is the full layer list with its permalink token.
type LayersBody struct {
	Layers    []*layertree.Node `json:"layers" doc:"Layers, topmost first"`
	Permalink string            `json:"permalink" doc:"Layer list token (the l= URL parameter)"`
}

// LayerBody is one top-level layer. Its actions depend on the layer type.
type LayerBody struct {
	Layer *layertree.Node `json:"layer"`
}

func (b LayerBody) Actions() []humastar.Action {
	actions := humastar.ActionsFor(b.Layer.UUID, layerActions...)
	switch b.Layer.Type {
	case layertree.TypeWMS, layertree.TypeTheme:
		actions = append(actions, humastar.ActionsFor(b.Layer.UUID, wmsAction)...)
	case layertree.TypeVector:
		actions = append(actions, humastar.ActionsFor(b.Layer.ID, featureAction)...)
	}
	return actions
}

type AddLayerBody struct {
	Layer      *layertree.Node `json:"layer" doc:"Layer to add; id, name and role are filled in when missing"`
	Pos        *int            `json:"pos,omitempty" minimum:"0" doc:"Top-level position; omitted means ordered by role"`
	BeforeName string          `json:"beforeName,omitempty" doc:"Insert above the first leaf with this name"`
}

type ReorderBody struct {
	Path  []int `json:"path,omitempty" required:"false" doc:"Sublayer path inside the layer; empty moves the whole layer"`
	Delta int   `json:"delta" doc:"Positions to move; negative moves up"`
}

type VisibilityBody struct {
	Path    []int  `json:"path,omitempty" required:"false" doc:"Sublayer path inside the layer"`
	Visible bool   `json:"visible" doc:"New visibility"`
	Recurse string `json:"recurse,omitempty" enum:"none,children,parents,both" default:"none" doc:"Apply to children, parents or both"`
}

type OpacityBody struct {
	Path    []int  `json:"path,omitempty" required:"false" doc:"Sublayer path inside the layer"`
	Opacity int    `json:"opacity" minimum:"0" maximum:"255" doc:"New opacity"`
	Recurse string `json:"recurse,omitempty" enum:"none,children,parents,both" default:"none" doc:"Apply to children, parents or both"`
}

type FeaturesBody struct {
	Name     string             `json:"name,omitempty" doc:"Layer name when the layer is created"`
	Title    string             `json:"title,omitempty" doc:"Layer title when the layer is created"`
	Features []*geojson.Feature `json:"features" doc:"GeoJSON features"`
	Clear    bool               `json:"clear,omitempty" doc:"Drop existing features first"`
}

type SeparatorBody struct {
	Title      string `json:"title" doc:"Separator title" example:"Overlays"`
	BeforeID   string `json:"beforeId" doc:"Id of the layer holding the leaf"`
	BeforePath []int  `json:"beforePath" doc:"Path of the leaf the separator goes above"`
}

type PlaceholderBody struct {
	Layer *layertree.Node `json:"layer,omitempty" required:"false" doc:"Resolved layer; omitted drops the placeholder"`
}

// RegisterLayers registers the layer store routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	tags := huma.OperationTags("layers")
	huma.Get(api, "/api/v1/layers", h.GetLayers, tags)
	huma.Post(api, "/api/v1/layers", h.AddLayer, tags)
	huma.Delete(api, "/api/v1/layers", h.RemoveAllLayers, tags)
	huma.Get(api, "/api/v1/layers/{uuid}", h.GetLayer, tags)
	huma.Delete(api, "/api/v1/layers/{uuid}", h.RemoveLayer, tags)
	huma.Post(api, "/api/v1/layers/{uuid}/reorder", h.ReorderLayer, tags)
	huma.Put(api, "/api/v1/layers/{uuid}/visibility", h.SetVisibility, tags)
	huma.Put(api, "/api/v1/layers/{uuid}/opacity", h.SetOpacity, tags)
	huma.Get(api, "/api/v1/layers/{uuid}/wms", h.GetWMSParams, tags)
	huma.Post(api, "/api/v1/layers/{id}/features", h.AddFeatures, tags)
	huma.Delete(api, "/api/v1/layers/{id}/features", h.RemoveFeatures, tags)
	huma.Post(api, "/api/v1/separators", h.InsertSeparator, tags)
	huma.Put(api, "/api/v1/placeholders/{id}", h.ReplacePlaceholder, tags)
}

func (h *APIHandler) layers() *struct{ Body LayersBody } {
	return &struct{ Body LayersBody }{Body: LayersBody{
		Layers:    h.svc.Store.List(),
		Permalink: h.svc.Store.Permalink(),
	}}
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*struct{ Body LayersBody }, error) {
	return h.layers(), nil
}

func (h *APIHandler) AddLayer(ctx context.Context, input *struct{ Body AddLayerBody }) (*struct{ Body LayerBody }, error) {
	if input.Body.Layer == nil {
		return nil, huma.Error422UnprocessableEntity("layer is required")
	}
	opts := service.AddOptions{Pos: -1, BeforeName: input.Body.BeforeName}
	if input.Body.Pos != nil {
		opts.Pos = *input.Body.Pos
	}
	added, err := h.svc.Store.Add(input.Body.Layer, opts)
	if err != nil {
		return nil, h.httpError(err)
	}
	return &struct{ Body LayerBody }{Body: LayerBody{Layer: added}}, nil
}

func (h *APIHandler) RemoveAllLayers(ctx context.Context, input *struct{}) (*struct{ Body MessageBody }, error) {
	h.svc.Store.RemoveAll()
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "All layers removed"}}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *UUIDInput) (*struct{ Body LayerBody }, error) {
	l, err := h.svc.Store.Layer(input.UUID)
	if err != nil {
		return nil, h.httpError(err)
	}
	return &struct{ Body LayerBody }{Body: LayerBody{Layer: l}}, nil
}

func (h *APIHandler) RemoveLayer(ctx context.Context, input *struct {
	UUIDInput
	Path string `query:"path" doc:"Comma-separated sublayer path; empty removes the whole layer" example:"1,0"`
}) (*struct{ Body LayersBody }, error) {
	path, err := parsePath(input.Path)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Store.Remove(input.UUID, path); err != nil {
		return nil, h.httpError(err)
	}
	return h.layers(), nil
}

func (h *APIHandler) ReorderLayer(ctx context.Context, input *struct {
	UUIDInput
	Body ReorderBody
}) (*struct{ Body LayersBody }, error) {
	if err := h.svc.Store.Reorder(input.UUID, input.Body.Path, input.Body.Delta); err != nil {
		return nil, h.httpError(err)
	}
	return h.layers(), nil
}

func parseRecurse(s string) (layertree.Recurse, error) {
	r, err := layertree.ParseRecurse(s)
	if err != nil {
		return r, huma.Error422UnprocessableEntity(err.Error())
	}
	return r, nil
}

func (h *APIHandler) SetVisibility(ctx context.Context, input *struct {
	UUIDInput
	Body VisibilityBody
}) (*struct{ Body LayersBody }, error) {
	recurse, err := parseRecurse(input.Body.Recurse)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Store.SetVisibility(input.UUID, input.Body.Path, input.Body.Visible, recurse); err != nil {
		return nil, h.httpError(err)
	}
	return h.layers(), nil
}

func (h *APIHandler) SetOpacity(ctx context.Context, input *struct {
	UUIDInput
	Body OpacityBody
}) (*struct{ Body LayersBody }, error) {
	recurse, err := parseRecurse(input.Body.Recurse)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Store.SetOpacity(input.UUID, input.Body.Path, input.Body.Opacity, recurse); err != nil {
		return nil, h.httpError(err)
	}
	return h.layers(), nil
}

func (h *APIHandler) GetWMSParams(ctx context.Context, input *UUIDInput) (*struct{ Body layertree.RequestParams }, error) {
	p, err := h.svc.Store.WMSParams(input.UUID)
	if err != nil {
		return nil, h.httpError(err)
	}
	return &struct{ Body layertree.RequestParams }{Body: p}, nil
}

func (h *APIHandler) AddFeatures(ctx context.Context, input *struct {
	ID   string `path:"id" doc:"Vector layer id" example:"drawing"`
	Body FeaturesBody
}) (*struct{ Body LayerBody }, error) {
	layer := layertree.NewLeaf(input.Body.Name)
	layer.ID = input.ID
	layer.Title = input.Body.Title
	l, err := h.svc.Store.AddFeatures(layer, input.Body.Features, input.Body.Clear)
	if err != nil {
		return nil, h.httpError(err)
	}
	return &struct{ Body LayerBody }{Body: LayerBody{Layer: l}}, nil
}

func (h *APIHandler) RemoveFeatures(ctx context.Context, input *struct {
	ID        string `path:"id" doc:"Vector layer id"`
	IDs       string `query:"ids" doc:"Comma-separated feature ids" example:"p1,p2"`
	KeepEmpty bool   `query:"keepEmpty" doc:"Keep the layer when no feature is left"`
}) (*struct{ Body LayersBody }, error) {
	var ids []string
	if input.IDs != "" {
		ids = strings.Split(input.IDs, ",")
	}
	if err := h.svc.Store.RemoveFeatures(input.ID, ids, input.KeepEmpty); err != nil {
		return nil, h.httpError(err)
	}
	return h.layers(), nil
}

func (h *APIHandler) InsertSeparator(ctx context.Context, input *struct{ Body SeparatorBody }) (*struct{ Body LayersBody }, error) {
	b := input.Body
	if err := h.svc.Store.InsertSeparator(b.Title, b.BeforeID, b.BeforePath); err != nil {
		return nil, h.httpError(err)
	}
	return h.layers(), nil
}

func (h *APIHandler) ReplacePlaceholder(ctx context.Context, input *struct {
	ID   string `path:"id" doc:"Placeholder id"`
	Body PlaceholderBody
}) (*struct{ Body LayersBody }, error) {
	if err := h.svc.Store.ReplacePlaceholder(input.ID, input.Body.Layer); err != nil {
		return nil, h.httpError(err)
	}
	return h.layers(), nil
}
