package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-layers/internal/humastar"
	"github.com/joeblew999/plat-layers/internal/service"
)

type BookmarkKeyInput struct {
	Key string `path:"key" doc:"Bookmark key"`
}

type CreateBookmarkBody struct {
	Layers string `json:"layers,omitempty" doc:"Layer list token; the current permalink when omitted"`
	View   string `json:"view,omitempty" doc:"Opaque map view state"`
}

// RegisterBookmarks registers the permalink bookmark routes.
func (h *APIHandler) RegisterBookmarks(api huma.API) {
	tags := huma.OperationTags("bookmarks")
	huma.Get(api, "/api/v1/bookmarks", h.ListBookmarks, tags)
	huma.Post(api, "/api/v1/bookmarks", h.CreateBookmark, tags)
	huma.Get(api, "/api/v1/bookmarks/{key}", h.GetBookmark, tags)
	huma.Delete(api, "/api/v1/bookmarks/{key}", h.DeleteBookmark, tags)
}

func (h *APIHandler) bookmarks() (*service.BookmarkStore, error) {
	if h.svc.Bookmarks == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	return h.svc.Bookmarks, nil
}

func (h *APIHandler) ListBookmarks(ctx context.Context, input *humastar.PageInput) (*struct {
	Body humastar.PageBody[service.Bookmark]
}, error) {
	store, err := h.bookmarks()
	if err != nil {
		return nil, err
	}
	items, total, err := store.List(ctx, input.Offset, input.Limit)
	if err != nil {
		return nil, h.httpError(err)
	}
	return &struct {
		Body humastar.PageBody[service.Bookmark]
	}{Body: humastar.PageBody[service.Bookmark]{
		Total: total, Offset: input.Offset, Limit: input.Limit, Data: items,
	}}, nil
}

func (h *APIHandler) CreateBookmark(ctx context.Context, input *struct{ Body CreateBookmarkBody }) (*struct {
	Status int
	Body   service.Bookmark
}, error) {
	store, err := h.bookmarks()
	if err != nil {
		return nil, err
	}
	b := service.Bookmark{Layers: input.Body.Layers, View: input.Body.View}
	if b.Layers == "" {
		b.Layers = h.svc.Store.Permalink()
	}
	if t, ok := h.svc.Store.Theme(); ok {
		b.Theme = t.ID
	}
	created, err := store.Create(ctx, b)
	if err != nil {
		return nil, h.httpError(err)
	}
	return &struct {
		Status int
		Body   service.Bookmark
	}{Status: 201, Body: created}, nil
}

func (h *APIHandler) GetBookmark(ctx context.Context, input *BookmarkKeyInput) (*struct{ Body service.Bookmark }, error) {
	store, err := h.bookmarks()
	if err != nil {
		return nil, err
	}
	b, err := store.Get(ctx, input.Key)
	if err != nil {
		return nil, h.httpError(err)
	}
	return &struct{ Body service.Bookmark }{Body: b}, nil
}

func (h *APIHandler) DeleteBookmark(ctx context.Context, input *BookmarkKeyInput) (*struct{ Body MessageBody }, error) {
	store, err := h.bookmarks()
	if err != nil {
		return nil, err
	}
	if err := store.Delete(ctx, input.Key); err != nil {
		return nil, h.httpError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Bookmark deleted"}}, nil
}
