package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/httpapi/views"
	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/station"
	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/utils"
)

// Readings is the read-only slice of the aggregator the HTTP layer needs.
// Handlers never trigger a sensor read: queries observe cached state only,
// so serving a page cannot perturb the smoothing window.
type Readings interface {
	CurrentAverage(station.Kind) (float64, bool)
	Snapshot() station.Snapshot
}

type StationController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type stationControllerImpl struct {
	readings       Readings
	refreshSeconds int
}

func NewStationController(readings Readings, refreshSeconds int) StationController {
	return &stationControllerImpl{readings: readings, refreshSeconds: refreshSeconds}
}

func (c *stationControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", c.handleIndex)
	mux.HandleFunc("GET /temperature", c.handleChannel(station.Temperature))
	mux.HandleFunc("GET /humidity", c.handleChannel(station.Humidity))
}

func (c *stationControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := views.IndexData{
		Temperature:    c.channelView(station.Temperature),
		Humidity:       c.channelView(station.Humidity),
		RefreshSeconds: c.refreshSeconds,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderIndex(w, data); err != nil {
		slog.Error("index template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
	}
}

func (c *stationControllerImpl) channelView(k station.Kind) views.ChannelView {
	v, ok := c.readings.CurrentAverage(k)
	if !ok {
		return views.ChannelView{}
	}
	return views.ChannelView{Value: station.FormatValue(v), HasData: true}
}

// handleChannel serves the bare numeric moving average as plain text, or
// "no data" during the startup window before the first valid reading.
func (c *stationControllerImpl) handleChannel(k station.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		v, ok := c.readings.CurrentAverage(k)
		if !ok {
			if _, err := w.Write([]byte("no data")); err != nil {
				slog.Error("write response failed", "channel", string(k), "error", err)
			}
			return
		}
		if _, err := w.Write([]byte(station.FormatValue(v))); err != nil {
			slog.Error("write response failed", "channel", string(k), "error", err)
		}
	}
}
