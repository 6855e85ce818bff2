package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-layers/internal/layertree"
	"github.com/joeblew999/plat-layers/internal/service"
)

type ThemeIDInput struct {
	ID string `path:"id" doc:"Theme id" example:"city"`
}

// RegisterThemes registers the theme catalogue routes.
func (h *APIHandler) RegisterThemes(api huma.API) {
	huma.Get(api, "/api/v1/themes", h.ListThemes, huma.OperationTags("themes"))
	huma.Post(api, "/api/v1/themes/{id}/load", h.LoadTheme, huma.OperationTags("themes"))
	huma.Post(api, "/api/v1/themes/{id}/sublayers", h.AddThemeSublayers, huma.OperationTags("themes"))
}

func (h *APIHandler) ListThemes(ctx context.Context, input *struct{}) (*struct{ Body []service.ThemeSummary }, error) {
	return &struct{ Body []service.ThemeSummary }{Body: h.svc.Themes.List()}, nil
}

func (h *APIHandler) LoadTheme(ctx context.Context, input *ThemeIDInput) (*struct{ Body LayersBody }, error) {
	t, err := h.svc.Themes.Get(input.ID)
	if err != nil {
		return nil, h.httpError(err)
	}
	h.svc.Store.LoadTheme(t)
	return h.layers(), nil
}

// AddThemeSublayers merges the named leaves of the catalogue theme into the
// theme layer of the store.
func (h *APIHandler) AddThemeSublayers(ctx context.Context, input *struct {
	ThemeIDInput
	Body struct {
		Names []string `json:"names" minItems:"1" doc:"Names of theme leaves or groups to add"`
	}
}) (*struct{ Body LayersBody }, error) {
	t, err := h.svc.Themes.Get(input.ID)
	if err != nil {
		return nil, h.httpError(err)
	}

	add := layertree.NewGroup(t.ID)
	add.ID = t.ID
	for _, name := range input.Body.Names {
		n, _, ok := layertree.SearchSublayer(t.Layer, layertree.ByName(name))
		if !ok {
			return nil, huma.Error404NotFound("theme " + t.ID + " has no layer " + name)
		}
		add.Sublayers = append(add.Sublayers, n.Clone())
	}
	if err := h.svc.Store.AddThemeSublayers(add); err != nil {
		return nil, h.httpError(err)
	}
	return h.layers(), nil
}
