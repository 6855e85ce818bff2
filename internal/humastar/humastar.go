// Package humastar bridges Huma (REST/OpenAPI) with Datastar (SSE/hypermedia).
//
// It provides:
//   - SSE: Huma streaming → Datastar SSE protocol via [SSE], [NewSSE] and [Stream]
//   - Signals: Datastar signal parsing via [Signals] and [SignalsInput]
//   - Links: RFC 8288 Link headers generated from the OpenAPI spec via [Links]
//   - Actions and pagination: response bodies implementing [Actor] or [Pager]
//
// Usage:
//
//	func (h *EventHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
//	    return humastar.Stream(func(sse humastar.SSE) {
//	        sse.Signals(map[string]any{"l": h.store.Permalink()})
//	    }), nil
//	}
package humastar

import (
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
)

// SSE wraps a Datastar SSE generator with the signal and event helpers the
// editor stream uses.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE creates a Datastar SSE helper from a Huma streaming context.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Stream returns a Huma StreamResponse that calls fn with a ready SSE helper.
func Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx))
		},
	}
}

// Signals sends arbitrary signals to the UI.
func (s SSE) Signals(signals map[string]any) error {
	return s.MarshalAndPatchSignals(signals)
}

// Error sends an error signal to the UI.
func (s SSE) Error(msg string) error {
	return s.Signals(map[string]any{"error": msg})
}

// Success sends a success signal to the UI.
func (s SSE) Success(msg string) error {
	return s.Signals(map[string]any{"success": msg})
}

// Event dispatches a DOM custom event carrying detail.
func (s SSE) Event(name string, detail any) error {
	return s.DispatchCustomEvent(name, detail)
}

// Signals provides typed access to Datastar signal values.
// Datastar sends all signals as a flat JSON object in the request body.
type Signals map[string]any

// ParseSignals parses Datastar signals from a raw request body.
func ParseSignals(body []byte) (Signals, error) {
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns a string signal value, or empty string if not found.
func (s Signals) String(key string) string {
	str, _ := s[key].(string)
	return str
}

// Int returns an int signal value, or 0 if not found.
func (s Signals) Int(key string) int {
	switch n := s[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// Bool returns a bool signal value, or false if not found.
func (s Signals) Bool(key string) bool {
	b, _ := s[key].(bool)
	return b
}

// Has reports whether the signal key exists, even if zero-valued.
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// EmptyInput is a shared input struct for handlers with no parameters.
type EmptyInput struct{}

// SignalsInput is an input struct for handlers that receive Datastar signals.
type SignalsInput struct {
	RawBody []byte
}

// Parse parses signals or returns a Huma 400 error.
func (i *SignalsInput) Parse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}
