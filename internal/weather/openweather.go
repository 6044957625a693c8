// Package weather fetches current conditions for a plot centroid and keeps
// the latest snapshot for the session.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joeblew999/plat-talhao/internal/service"
)

// DefaultEndpoint is the OpenWeather current-conditions endpoint.
const DefaultEndpoint = "https://api.openweathermap.org/data/2.5/weather"

// placeholderKey is the marker left in unconfigured deployments.
const placeholderKey = "COLOQUE_"

// ErrUnconfigured is returned by a provider that has no usable API key.
var ErrUnconfigured = errors.New("weather provider not configured")

// Provider looks up current weather at a coordinate.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (service.WeatherSnapshot, error)
}

// KeyConfigured reports whether key is usable: non-empty and not the placeholder.
func KeyConfigured(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !strings.Contains(key, placeholderKey)
}

// OpenWeather is a Provider for the OpenWeather current-weather API.
type OpenWeather struct {
	endpoint string
	key      string
	client   *http.Client
}

// NewOpenWeather creates a provider. An empty endpoint uses DefaultEndpoint;
// a zero timeout leaves the HTTP client without one.
func NewOpenWeather(endpoint, key string, timeout time.Duration) *OpenWeather {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &OpenWeather{
		endpoint: endpoint,
		key:      strings.TrimSpace(key),
		client:   &http.Client{Timeout: timeout},
	}
}

// Configured reports whether the provider has a usable API key.
func (p *OpenWeather) Configured() bool {
	return KeyConfigured(p.key)
}

// Current performs one GET and parses the snapshot.
func (p *OpenWeather) Current(ctx context.Context, lat, lon float64) (service.WeatherSnapshot, error) {
	if !p.Configured() {
		return service.WeatherSnapshot{}, ErrUnconfigured
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", "metric")
	q.Set("lang", "pt_br")
	q.Set("appid", p.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return service.WeatherSnapshot{}, fmt.Errorf("building weather request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return service.WeatherSnapshot{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return service.WeatherSnapshot{}, fmt.Errorf("reading weather response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return service.WeatherSnapshot{}, fmt.Errorf("weather provider returned %s", resp.Status)
	}

	return ParseSnapshot(body)
}

// ParseSnapshot decodes an OpenWeather body. Missing or non-numeric fields
// stay nil; a body that is not a JSON object is an error.
func ParseSnapshot(body []byte) (service.WeatherSnapshot, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return service.WeatherSnapshot{}, fmt.Errorf("decoding weather response: %w", err)
	}
	if doc == nil {
		return service.WeatherSnapshot{}, errors.New("decoding weather response: not an object")
	}

	var s service.WeatherSnapshot
	s.TemperatureC = number(doc, "main", "temp")
	s.RelativeHumidityPct = number(doc, "main", "humidity")
	if speed := number(doc, "wind", "speed"); speed != nil {
		kmh := KmhFromMs(*speed)
		s.WindSpeedKmh = &kmh
	}
	if deg := number(doc, "wind", "deg"); deg != nil {
		s.WindDirection = Compass(*deg)
	}
	return s, nil
}

// number reads doc[group][field] when it is a finite JSON number.
func number(doc map[string]any, group, field string) *float64 {
	g, ok := doc[group].(map[string]any)
	if !ok {
		return nil
	}
	v, ok := g[field].(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
