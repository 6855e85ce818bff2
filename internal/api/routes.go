// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-layers/internal/service"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Store     *service.LayerStore
	Themes    *service.ThemeService
	Bookmarks *service.BookmarkStore // nil when the database is unavailable
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
	log *log.Logger
}

func NewAPIHandler(svc *Services, logger *log.Logger) *APIHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &APIHandler{svc: svc, log: logger.WithPrefix("api")}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

// httpError maps service errors onto Huma status errors.
func (h *APIHandler) httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrLayerNotFound),
		errors.Is(err, service.ErrThemeNotFound),
		errors.Is(err, service.ErrPlaceholderNotFound),
		errors.Is(err, service.ErrBookmarkNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrExclusiveHide):
		return huma.Error409Conflict(err.Error())
	}
	h.log.Error("request failed", "err", err)
	return huma.Error500InternalServerError("internal error", err)
}

// parsePath reads a sublayer path written as comma-separated indices
// ("1,0"). An empty string is the empty path.
func parsePath(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	path := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, huma.Error422UnprocessableEntity("invalid sublayer path " + strconv.Quote(s))
		}
		path[i] = n
	}
	return path, nil
}
