package httpapi

import (
	"net/http"

	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/utils"
)

// BrokerStatus reports broker connectivity for the health endpoint.
type BrokerStatus interface {
	IsConnected() bool
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	broker BrokerStatus
}

func NewHealthchecker(broker BrokerStatus) healthchecker {
	return &healthcheckerImpl{broker: broker}
}

// handleHealthz always answers 200 while the process runs: a disconnected
// broker degrades publishing but the station keeps sampling and serving.
func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	mqttStatus := "disconnected"
	if h.broker.IsConnected() {
		mqttStatus = "connected"
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"mqtt":   mqttStatus,
	})
}

func registerHealthcheck(mux *http.ServeMux, broker BrokerStatus) {
	healthchecker := NewHealthchecker(broker)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
