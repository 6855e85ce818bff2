package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-layers/internal/api"
	"github.com/joeblew999/plat-layers/internal/api/editor"
	"github.com/joeblew999/plat-layers/internal/config"
	"github.com/joeblew999/plat-layers/internal/db"
	"github.com/joeblew999/plat-layers/internal/humastar"
	"github.com/joeblew999/plat-layers/internal/logging"
	"github.com/joeblew999/plat-layers/internal/metrics"
	"github.com/joeblew999/plat-layers/internal/service"
)

// Config holds the server configuration.
type Config struct {
	Host       string
	Port       string
	DataDir    string
	ConfigFile string // TOML client settings; defaults to <DataDir>/layers.toml
	NoDB       bool   // run without the bookmark database
	Logger     *log.Logger
}

// Server is the layer HTTP server.
type Server struct {
	config   Config
	settings config.Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	links    *humastar.Links
	db       *sql.DB
	services *api.Services
	metrics  *metrics.Metrics
	log      *log.Logger
}

// New creates a new layer server. A missing database is not fatal: the
// bookmark routes then answer 503.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	settings, err := config.Load(config.Resolve(cfg.ConfigFile, cfg.DataDir))
	if err != nil {
		return nil, err
	}
	themes, err := service.NewThemeService(settings.ThemesPath(cfg.DataDir))
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	bus := service.NewEventBus()
	services := &api.Services{
		Store:  service.NewLayerStore(settings, bus, logger, m),
		Themes: themes,
	}

	s := &Server{
		config:   cfg,
		settings: settings,
		mux:      http.NewServeMux(),
		links:    humastar.NewLinks("/health"),
		services: services,
		metrics:  m,
		log:      logger,
	}

	if !cfg.NoDB {
		s.openDB(bus)
	}
	if settings.DefaultTheme != "" {
		if t, err := themes.Get(settings.DefaultTheme); err != nil {
			logger.Warn("default theme not loaded", "theme", settings.DefaultTheme, "err", err)
		} else {
			services.Store.LoadTheme(t)
		}
	}

	humaConfig := huma.DefaultConfig("plat-layers API", api.Version)
	humaConfig.Info.Description = "Layer tree engine for a web map client: compose, reorder and share map layers."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, s.links.Transformer())
	s.humaAPI = humago.New(s.mux, humaConfig)

	s.routes()
	s.handler = m.Middleware(withRequestLogger(s.mux, logger))
	return s, nil
}

func (s *Server) openDB(bus *service.EventBus) {
	conn, err := db.Open(db.Config{DataDir: s.config.DataDir, DBName: "layers"})
	if err != nil {
		s.log.Warn("database unavailable", "err", err)
		return
	}
	bookmarks, err := service.NewBookmarkStore(context.Background(), conn, bus, s.log)
	if err != nil {
		s.log.Warn("database unavailable", "err", err)
		conn.Close()
		return
	}
	s.db = conn
	s.services.Bookmarks = bookmarks
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services exposes the services behind the API.
func (s *Server) Services() *api.Services {
	return s.services
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) routes() {
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services, s.log))
	api.NewInfoHandler(s.services, s.config.DataDir).RegisterRoutes(s.humaAPI)
	editor.NewEventHandler(s.services.Store, s.metrics, s.log).RegisterRoutes(s.humaAPI)

	// Links are derived from the spec, so every Huma route must exist first.
	s.links.Generate(s.humaAPI)

	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("/", s.handleRoot)
}

// withRequestLogger puts a logger tagged with the request on its context.
func withRequestLogger(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logger.With("method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), l)))
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	for _, link := range s.links.For("/health") {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service":   "plat-layers",
		"status":    "running",
		"permalink": s.services.Store.Permalink(),
	})
}
