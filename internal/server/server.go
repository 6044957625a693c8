// Package server assembles the talhão HTTP server: the Huma REST API, the
// Datastar UI routes, the map page and the metrics endpoint.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-talhao/internal/api"
	"github.com/joeblew999/plat-talhao/internal/api/ui"
	"github.com/joeblew999/plat-talhao/internal/db"
	"github.com/joeblew999/plat-talhao/internal/metrics"
	"github.com/joeblew999/plat-talhao/internal/operation"
	"github.com/joeblew999/plat-talhao/internal/publish"
	"github.com/joeblew999/plat-talhao/internal/service"
	"github.com/joeblew999/plat-talhao/internal/session"
	"github.com/joeblew999/plat-talhao/internal/templates"
	"github.com/joeblew999/plat-talhao/internal/weather"
)

// WeatherConfig selects the weather provider.
type WeatherConfig struct {
	Endpoint string
	Key      string
	Timeout  time.Duration
}

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	WebDir  string // web/ directory with templates and static files

	Weather  WeatherConfig
	MQTT     publish.Config // empty Broker disables publishing
	User     service.User
	ReadOnly bool

	// Offline skips the database and the broker. Used to export the
	// OpenAPI document without side effects.
	Offline bool

	Logger *slog.Logger
}

// Server is the talhão HTTP server.
type Server struct {
	config    Config
	mux       *http.ServeMux
	humaAPI   huma.API
	db        *sql.DB
	publisher *publish.Publisher
	session   *session.Session
	metrics   *metrics.Metrics
	renderer  *templates.Renderer
	logger    *slog.Logger
}

// New loads the plot and drone data, opens the collaborators and
// registers every route.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	plots, err := service.LoadPlots(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	drones, err := service.LoadDrones(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("plat-talhao API", api.Version)
	humaConfig.Info.Description = "Field plot selection, weather enrichment and drone operation records."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// No $schema property in responses.
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humago.New(mux, humaConfig),
		metrics: metrics.New(),
		logger:  logger,
	}

	var recorders operation.Recorders
	var store *service.OperationStore
	if !cfg.Offline {
		store = s.openStore(ctx)
		if store != nil {
			recorders = append(recorders, store)
		}
		if cfg.MQTT.Broker != "" {
			s.publisher = s.connectBroker(ctx)
			if s.publisher != nil {
				recorders = append(recorders, s.publisher)
			}
		}
	}

	var provider weather.Provider
	ow := weather.NewOpenWeather(cfg.Weather.Endpoint, cfg.Weather.Key, cfg.Weather.Timeout)
	if ow.Configured() {
		provider = ow
	}

	var recorder operation.Recorder
	if len(recorders) > 0 {
		recorder = recorders
	}

	s.session = session.New(session.Config{
		Plots:    plots,
		Drones:   drones,
		Provider: provider,
		Recorder: recorder,
		User:     cfg.User,
		ReadOnly: cfg.ReadOnly,
		Metrics:  s.metrics,
		Logger:   logger.With("component", "session"),
	})

	if cfg.WebDir != "" {
		fragmentsDir := filepath.Join(cfg.WebDir, "templates", "fragments")
		if r, err := templates.New(fragmentsDir); err != nil {
			logger.Warn("fragment templates not loaded, map UI disabled", "dir", fragmentsDir, "error", err)
		} else {
			s.renderer = r
			logger.Debug("loaded fragment templates", "dir", fragmentsDir)
		}
	}

	s.routes(store)
	return s, nil
}

func (s *Server) openStore(ctx context.Context) *service.OperationStore {
	conn, err := db.Get(db.Config{DataDir: s.config.DataDir, DBName: "talhao"})
	if err != nil {
		s.logger.Warn("duckdb unavailable, operations are not stored", "error", err)
		return nil
	}
	store := service.NewOperationStore(conn)
	if err := store.Migrate(ctx); err != nil {
		s.logger.Warn("duckdb migration failed, operations are not stored", "error", err)
		return nil
	}
	s.db = conn
	return store
}

func (s *Server) connectBroker(ctx context.Context) *publish.Publisher {
	p := publish.NewPublisher(s.config.MQTT, s.logger.With("component", "mqtt"))
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := p.Connect(ctx); err != nil {
		s.logger.Warn("mqtt broker unavailable, operations are not published", "broker", s.config.MQTT.Broker, "error", err)
		return nil
	}
	return p
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Session returns the operator session.
func (s *Server) Session() *session.Session {
	return s.session
}

// Close waits for in-flight weather lookups and releases the collaborators.
func (s *Server) Close() error {
	s.session.Wait()
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	if s.db != nil {
		return db.Close()
	}
	return nil
}

func (s *Server) routes(store *service.OperationStore) {
	api.RegisterRoutes(s.humaAPI, &api.Services{
		Session:    s.session,
		Operations: store,
		DataDir:    s.config.DataDir,
	})
	api.NewInfoHandler(s.session, s.config.DataDir, s.db != nil, s.publisher != nil).RegisterRoutes(s.humaAPI)

	if s.renderer != nil {
		ui.NewHandler(s.session, s.renderer).RegisterRoutes(s.humaAPI)
	}

	s.mux.Handle("/metrics", s.metrics.Handler())

	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
		s.mux.HandleFunc("/map", s.handleMap)
	}
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-talhao",
		"status":  "running",
	})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.config.WebDir, "templates", "map.html"))
}
