package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-talhao/internal/service"
	"github.com/joeblew999/plat-talhao/internal/session"
)

// Version is the API version reported by /health and /api/v1/info.
const Version = "1.0.0"

type InfoHandler struct {
	sess    *session.Session
	dataDir string
	dbOK    bool
	mqttOK  bool
}

func NewInfoHandler(sess *session.Session, dataDir string, dbOK, mqttOK bool) *InfoHandler {
	return &InfoHandler{sess: sess, dataDir: dataDir, dbOK: dbOK, mqttOK: mqttOK}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string       `json:"name" doc:"Service name"`
	Version  string       `json:"version" doc:"Service version"`
	DataDir  string       `json:"data_dir" doc:"Data directory path"`
	DB       bool         `json:"db" doc:"Whether the operation store is available"`
	MQTT     bool         `json:"mqtt" doc:"Whether operations are published over MQTT"`
	Weather  bool         `json:"weather" doc:"Whether a weather provider is configured"`
	User     service.User `json:"user" doc:"Session user"`
	CanEdit  bool         `json:"canEdit" doc:"Whether drawing tools are enabled"`
	Plots    int          `json:"plots" doc:"Number of loaded plots"`
	Features []string     `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	features := []string{"overlay", "weather", "operations"}
	if h.dbOK {
		features = append(features, "duckdb")
	}
	if h.mqttOK {
		features = append(features, "mqtt")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "plat-talhao",
		Version:  Version,
		DataDir:  h.dataDir,
		DB:       h.dbOK,
		MQTT:     h.mqttOK,
		Weather:  h.sess.WeatherConfigured(),
		User:     h.sess.User(),
		CanEdit:  h.sess.CanEdit(),
		Plots:    h.sess.Plots().Len(),
		Features: features,
	}}, nil
}
