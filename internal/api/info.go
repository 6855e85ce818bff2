package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	svc     *Services
	dataDir string
}

func NewInfoHandler(svc *Services, dataDir string) *InfoHandler {
	return &InfoHandler{svc: svc, dataDir: dataDir}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	DB       bool     `json:"db" doc:"Whether database is available"`
	Tables   []string `json:"tables,omitempty" doc:"Database tables"`
	Theme    string   `json:"theme,omitempty" doc:"Loaded theme"`
	Layers   int      `json:"layers" doc:"Number of top-level layers"`
	Features []string `json:"features" doc:"Enabled behaviour switches"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     "plat-layers",
		Version:  Version,
		DataDir:  h.dataDir,
		DB:       h.svc.Bookmarks != nil,
		Layers:   len(h.svc.Store.List()),
		Features: []string{"permalink", "reorder", "wms-params"},
	}
	if t, ok := h.svc.Store.Theme(); ok {
		body.Theme = t.ID
	}
	cfg := h.svc.Store.Config()
	if cfg.PreventSplittingGroups {
		body.Features = append(body.Features, "prevent-splitting-groups")
	}
	if cfg.ReverseLayerOrder {
		body.Features = append(body.Features, "reverse-layer-order")
	}
	if cfg.RestoreOrdered {
		body.Features = append(body.Features, "restore-ordered")
	}
	if h.svc.Bookmarks != nil {
		if tables, err := h.svc.Bookmarks.Tables(ctx); err == nil {
			body.Tables = tables
		}
		body.Features = append(body.Features, "bookmarks")
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
