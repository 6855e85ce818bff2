// Package editor serves the Datastar side of the layer editor: a change
// stream and signal-driven commands.
package editor

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-layers/internal/humastar"
	"github.com/joeblew999/plat-layers/internal/logging"
	"github.com/joeblew999/plat-layers/internal/metrics"
	"github.com/joeblew999/plat-layers/internal/service"
)

// ChangedEvent is the DOM event dispatched for every store mutation.
const ChangedEvent = "layers-changed"

// EventHandler streams layer store changes to the Datastar UI via SSE.
type EventHandler struct {
	store   *service.LayerStore
	metrics *metrics.Metrics
	log     *log.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(store *service.LayerStore, m *metrics.Metrics, logger *log.Logger) *EventHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &EventHandler{store: store, metrics: m, log: logger.WithPrefix("editor")}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags("editor")
	huma.Get(api, "/api/v1/editor/events", h.Events, tags)
	huma.Post(api, "/api/v1/editor/restore", h.Restore, tags)
	huma.Post(api, "/api/v1/editor/reorder", h.Reorder, tags)
}

// Events sends the current permalink as the "l" signal, then one signal
// patch and one ChangedEvent per mutation until the client goes away.
func (h *EventHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)
			logger := logging.FromContext(ctx)
			logger.Debug("event stream opened")
			defer logger.Debug("event stream closed")

			bus := h.store.Bus()
			ch := bus.Subscribe()
			defer bus.Unsubscribe(ch)
			h.metrics.AddSubscribers(1)
			defer h.metrics.AddSubscribers(-1)

			if err := sse.Signals(map[string]any{"l": h.store.Permalink()}); err != nil {
				return
			}
			done := humaCtx.Context().Done()
			for {
				select {
				case <-done:
					return
				case ev := <-ch:
					if ev.Resource == "layers" {
						if err := sse.Signals(map[string]any{"l": ev.Permalink}); err != nil {
							h.log.Debug("event stream write failed", "err", err)
							return
						}
					}
					sse.Event(ChangedEvent, map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
						"l":        ev.Permalink,
					})
				}
			}
		},
	}, nil
}

// Restore rebuilds the layers from the "l" signal.
func (h *EventHandler) Restore(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.Parse()
	if err != nil {
		return nil, err
	}
	return humastar.Stream(func(sse humastar.SSE) {
		external, err := h.store.Restore(signals.String("l"))
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Signals(map[string]any{"l": h.store.Permalink(), "pending": len(external)})
		sse.Success("Layers restored")
	}), nil
}

// Reorder moves a layer from the "uuid", "path" and "delta" signals.
func (h *EventHandler) Reorder(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.Parse()
	if err != nil {
		return nil, err
	}
	var path []int
	if raw, ok := signals["path"].([]any); ok {
		for _, v := range raw {
			if f, ok := v.(float64); ok {
				path = append(path, int(f))
			}
		}
	}
	return humastar.Stream(func(sse humastar.SSE) {
		if err := h.store.Reorder(signals.String("uuid"), path, signals.Int("delta")); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Success("Layer moved")
	}), nil
}
