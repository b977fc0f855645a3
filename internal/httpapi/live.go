package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/station"
)

const writeTimeout = 2 * time.Second

// LiveFeed streams one JSON snapshot per tick to every connected websocket
// client. There is no per-client backlog: a client that cannot keep up is
// dropped and has to reconnect.
type LiveFeed struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// liveUpdate is the wire format of one snapshot. Absent fields mean the
// channel has no data yet.
type liveUpdate struct {
	Time        time.Time `json:"time"`
	Temperature *float64  `json:"temperature_c,omitempty"`
	Humidity    *float64  `json:"humidity_pct,omitempty"`
}

func NewLiveFeed(logger *slog.Logger) *LiveFeed {
	return &LiveFeed{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  256,
			WriteBufferSize: 256,
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (f *LiveFeed) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", f.handleWS)
}

func (f *LiveFeed) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	f.mu.Lock()
	f.conns[conn] = struct{}{}
	n := len(f.conns)
	f.mu.Unlock()
	f.logger.Debug("websocket client connected", "clients", n)

	// Drain the read side so close frames are processed; the feed itself
	// is write-only.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.drop(conn)
				return
			}
		}
	}()
}

// Broadcast pushes the snapshot to every connected client.
func (f *LiveFeed) Broadcast(snap station.Snapshot) {
	update := liveUpdate{Time: snap.Time}
	if snap.Temperature.OK {
		update.Temperature = &snap.Temperature.V
	}
	if snap.Humidity.OK {
		update.Humidity = &snap.Humidity.V
	}

	payload, err := json.Marshal(update)
	if err != nil {
		f.logger.Error("marshal live update", "error", err)
		return
	}

	f.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(f.conns))
	for conn := range f.conns {
		conns = append(conns, conn)
	}
	f.mu.Unlock()

	for _, conn := range conns {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			f.drop(conn)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			f.logger.Debug("websocket write failed, dropping client", "error", err)
			f.drop(conn)
		}
	}
}

// Close disconnects all clients during shutdown.
func (f *LiveFeed) Close() {
	f.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(f.conns))
	for conn := range f.conns {
		conns = append(conns, conn)
	}
	f.conns = make(map[*websocket.Conn]struct{})
	f.mu.Unlock()

	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			f.logger.Debug("websocket close", "error", err)
		}
	}
}

func (f *LiveFeed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	_, present := f.conns[conn]
	delete(f.conns, conn)
	f.mu.Unlock()

	if present {
		if err := conn.Close(); err != nil {
			f.logger.Debug("websocket close", "error", err)
		}
	}
}
