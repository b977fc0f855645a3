package httpapi

import "net/http"

func NewMux(readings Readings, broker BrokerStatus, live *LiveFeed, refreshSeconds int) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, broker)
	NewStationController(readings, refreshSeconds).RegisterRoutes(mux)
	live.RegisterRoutes(mux)
	return mux
}
