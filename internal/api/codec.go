package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-layers/internal/layertree"
)

type PermalinkBody struct {
	L string `json:"l" doc:"Layer list token" example:"roads,buildings!,parcels[50]"`
}

type RestoreBody struct {
	Layers   []*layertree.Node                           `json:"layers" doc:"Layers after the restore"`
	External map[string][]layertree.ExternalLayerRequest `json:"external,omitempty" doc:"External layers to resolve, keyed type:url"`
}

type DecodeInput struct {
	Body struct {
		L       string `json:"l" doc:"Layer list token"`
		Reverse bool   `json:"reverse,omitempty" doc:"Token lists the bottom layer first"`
	}
}

type DecodeBody struct {
	Params []layertree.LayerParam `json:"params" doc:"Decoded tokens in list order"`
}

type EncodeInput struct {
	Body struct {
		Layers  []*layertree.Node `json:"layers" doc:"Layer list to encode"`
		Reverse bool              `json:"reverse,omitempty" doc:"List the bottom layer first"`
	}
}

// RegisterPermalink registers the permalink and stateless codec routes.
func (h *APIHandler) RegisterPermalink(api huma.API) {
	huma.Get(api, "/api/v1/permalink", h.GetPermalink, huma.OperationTags("permalink"))
	huma.Post(api, "/api/v1/permalink/restore", h.RestorePermalink, huma.OperationTags("permalink"))
	huma.Post(api, "/api/v1/codec/decode", h.Decode, huma.OperationTags("codec"))
	huma.Post(api, "/api/v1/codec/encode", h.Encode, huma.OperationTags("codec"))
}

func (h *APIHandler) GetPermalink(ctx context.Context, input *struct{}) (*struct{ Body PermalinkBody }, error) {
	return &struct{ Body PermalinkBody }{Body: PermalinkBody{L: h.svc.Store.Permalink()}}, nil
}

func (h *APIHandler) RestorePermalink(ctx context.Context, input *struct{ Body PermalinkBody }) (*struct{ Body RestoreBody }, error) {
	external, err := h.svc.Store.Restore(input.Body.L)
	if err != nil {
		return nil, h.httpError(err)
	}
	return &struct{ Body RestoreBody }{Body: RestoreBody{
		Layers:   h.svc.Store.List(),
		External: external,
	}}, nil
}

func (h *APIHandler) Decode(ctx context.Context, input *DecodeInput) (*struct{ Body DecodeBody }, error) {
	params := layertree.DecodeLayers(input.Body.L, layertree.CodecOptions{ReverseOrder: input.Body.Reverse})
	if params == nil {
		params = []layertree.LayerParam{}
	}
	return &struct{ Body DecodeBody }{Body: DecodeBody{Params: params}}, nil
}

func (h *APIHandler) Encode(ctx context.Context, input *EncodeInput) (*struct{ Body PermalinkBody }, error) {
	l := layertree.EncodeLayers(input.Body.Layers, layertree.CodecOptions{ReverseOrder: input.Body.Reverse})
	return &struct{ Body PermalinkBody }{Body: PermalinkBody{L: l}}, nil
}
