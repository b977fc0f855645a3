package httpapi

import (
	"net/http"

	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: requestLogger(mux),
	}
}
