package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-talhao/internal/api"
	"github.com/joeblew999/plat-talhao/internal/geo"
	"github.com/joeblew999/plat-talhao/internal/logging"
	"github.com/joeblew999/plat-talhao/internal/publish"
	"github.com/joeblew999/plat-talhao/internal/server"
	"github.com/joeblew999/plat-talhao/internal/service"
	"github.com/joeblew999/plat-talhao/internal/weather"
)

// Options defines all CLI flags and env vars for the talhão server.
// Every flag is also read from SERVICE_<NAME>, e.g. SERVICE_WEATHER_KEY.
type Options struct {
	Host     string `doc:"Host to bind to" default:"0.0.0.0"`
	Port     int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir  string `doc:"Directory with talhoes.geojson, drones.yaml and the database" default:".data"`
	WebDir   string `doc:"Path to web/ directory" default:"web"`
	Env      string `doc:"Environment (dev or prod)" default:"dev"`
	LogLevel string `doc:"Log level (debug, info, warn, error)" default:"info"`

	WeatherKey     string `doc:"OpenWeather API key"`
	WeatherURL     string `doc:"OpenWeather current-weather endpoint"`
	WeatherTimeout int    `doc:"Weather lookup timeout in seconds" default:"10"`

	Operator string `doc:"Operator name recorded on operations" default:"Operador"`
	Role     string `doc:"Session role (master, cliente, piloto)" default:"piloto"`
	ReadOnly bool   `doc:"Disable editing tools regardless of role"`

	MQTTBroker   string `doc:"MQTT broker URL, e.g. tcp://localhost:1883 (empty disables publishing)"`
	MQTTClientID string `doc:"MQTT client id" default:"plat-talhao"`
	MQTTTopic    string `doc:"MQTT topic prefix" default:"talhao"`
}

func newLogger(opts *Options) (*slog.Logger, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(os.Stdout, opts.Env, level), nil
}

func serverConfig(opts *Options, logger *slog.Logger) (server.Config, error) {
	role := service.Role(strings.ToLower(strings.TrimSpace(opts.Role)))
	if !role.Valid() {
		return server.Config{}, fmt.Errorf("invalid role %q (allowed: master, cliente, piloto)", opts.Role)
	}
	return server.Config{
		Host:    opts.Host,
		Port:    fmt.Sprintf("%d", opts.Port),
		DataDir: opts.DataDir,
		WebDir:  opts.WebDir,
		Weather: server.WeatherConfig{
			Endpoint: opts.WeatherURL,
			Key:      opts.WeatherKey,
			Timeout:  time.Duration(opts.WeatherTimeout) * time.Second,
		},
		MQTT: publish.Config{
			Broker:   opts.MQTTBroker,
			ClientID: opts.MQTTClientID,
			Prefix:   opts.MQTTTopic,
		},
		User:     service.User{Name: opts.Operator, Role: role},
		ReadOnly: opts.ReadOnly,
		Logger:   logger,
	}, nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	if logger == nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	} else {
		logger.Error(msg, "error", err)
	}
	os.Exit(1)
}

func main() {
	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger, err := newLogger(opts)
		if err != nil {
			fatal(nil, "invalid options", err)
		}
		cfg, err := serverConfig(opts, logger)
		if err != nil {
			fatal(logger, "invalid options", err)
		}

		var httpServer *http.Server
		var srv *server.Server

		hooks.OnStart(func() {
			srv, err = server.New(context.Background(), cfg)
			if err != nil {
				fatal(logger, "server init failed", err)
			}

			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)
			logger.Info("plat-talhao server starting",
				"url", baseURL,
				"map", baseURL+"/map",
				"docs", baseURL+"/docs",
				"data_dir", opts.DataDir,
				"weather", weather.KeyConfigured(opts.WeatherKey),
				"role", cfg.User.Role,
			)

			httpServer = &http.Server{
				Addr:              fmt.Sprintf("%s:%d", opts.Host, opts.Port),
				Handler:           srv,
				ReadHeaderTimeout: 10 * time.Second,
			}
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fatal(logger, "server error", err)
			}
		})

		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if httpServer != nil {
				_ = httpServer.Shutdown(ctx)
			}
			if srv != nil {
				if err := srv.Close(); err != nil {
					logger.Warn("close failed", "error", err)
				}
			}
			logger.Info("plat-talhao server stopped")
		})
	})

	cli.Root().Use = "talhao"
	cli.Root().Short = "Field plot selection, weather and drone operation records"
	cli.Root().Version = api.Version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger, err := newLogger(opts)
			if err != nil {
				fatal(nil, "invalid options", err)
			}
			cfg, err := serverConfig(opts, logger)
			if err != nil {
				fatal(logger, "invalid options", err)
			}
			cfg.Offline = true
			cfg.WebDir = ""
			srv, err := server.New(cmd.Context(), cfg)
			if err != nil {
				fatal(logger, "server init failed", err)
			}
			defer srv.Close()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(srv.OpenAPI())
			} else {
				output, err = json.MarshalIndent(srv.OpenAPI(), "", "  ")
			}
			if err != nil {
				fatal(logger, "marshaling spec", err)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// plots subcommand: print the loaded plots as YAML
	plotsCmd := &cobra.Command{
		Use:   "plots",
		Short: "Print the loaded plots with centroid and geodesic area",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			store, err := service.LoadPlots(opts.DataDir)
			if err != nil {
				fatal(nil, "loading plots", err)
			}
			output, err := yaml.Marshal(plotSummaries(store.List()))
			if err != nil {
				fatal(nil, "marshaling plots", err)
			}
			fmt.Print(string(output))
		}),
	}
	cli.Root().AddCommand(plotsCmd)

	cli.Run()
}

type plotSummary struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	AreaHa      float64     `yaml:"area_ha"`
	GeodesicHa  float64     `yaml:"geodesic_ha,omitempty"`
	Centroid    *[2]float64 `yaml:"centroid,omitempty"` // lat, lon
	Drawable    bool        `yaml:"drawable"`
	BoundaryErr string      `yaml:"boundary_error,omitempty"`
}

func plotSummaries(plots []service.FieldPlot) []plotSummary {
	out := make([]plotSummary, len(plots))
	for i, p := range plots {
		s := plotSummary{ID: p.ID, Name: p.DisplayName(), AreaHa: p.AreaHectares}
		if c, ok := geo.CentroidOf(p); ok {
			s.Centroid = &[2]float64{c.Lat(), c.Lon()}
		}
		if err := geo.ValidRing(p.Boundary); err != nil {
			s.BoundaryErr = err.Error()
		} else {
			s.Drawable = true
			s.GeodesicHa = math.Round(geo.AreaHectares(p.Boundary)*1000) / 1000
		}
		out[i] = s
	}
	return out
}
