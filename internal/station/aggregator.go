package station

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/sensor"
)

// Kind selects one monitored physical quantity.
type Kind string

const (
	Temperature Kind = "temperature"
	Humidity    Kind = "humidity"
)

// Kinds lists the channels a station monitors, in publish order.
var Kinds = []Kind{Temperature, Humidity}

// Value is one reported reading. OK is false while no usable value exists
// for the channel (nothing valid has ever been recorded).
type Value struct {
	V  float64
	OK bool
}

// Reading pairs the instantaneous sample with the smoothed value for one
// channel after a sample cycle. Instant.OK is false when the sensor
// reported a fault for that channel this cycle.
type Reading struct {
	Instant  Value
	Smoothed Value
}

// Report is the outcome of one sample cycle across all channels.
type Report struct {
	Time        time.Time
	Temperature Reading
	Humidity    Reading
}

// Snapshot is the read-only view served to queries: current smoothed value
// per channel, no sensor I/O involved.
type Snapshot struct {
	Time        time.Time
	Temperature Value
	Humidity    Value
}

type channel struct {
	window    *Window
	lastValid float64
	hasValid  bool
}

// Aggregator is the single authority for "current smoothed reading" per
// channel. Exactly one flow (the periodic tick) calls SampleAndUpdate;
// HTTP handlers and the live feed only read, so channel state sits behind
// a single RWMutex.
type Aggregator struct {
	source sensor.Source
	logger *slog.Logger

	mu       sync.RWMutex
	channels map[Kind]*channel
}

// NewAggregator creates an aggregator with empty history for every channel.
func NewAggregator(source sensor.Source, capacity int, logger *slog.Logger) *Aggregator {
	channels := make(map[Kind]*channel, len(Kinds))
	for _, k := range Kinds {
		channels[k] = &channel{window: NewWindow(capacity)}
	}
	return &Aggregator{
		source:   source,
		logger:   logger,
		channels: channels,
	}
}

// SampleAndUpdate requests one reading from the sensor and feeds every
// channel. A sensor fault is non-fatal: the failing channel keeps its
// history untouched and the report falls back to the current average, then
// to the previous raw value, then to "no data". The returned report always
// carries some representable value per channel or an explicit not-OK one.
func (a *Aggregator) SampleAndUpdate(ctx context.Context) Report {
	s, err := a.source.Read(ctx)
	if err != nil {
		a.logger.Warn("sensor read failed", "error", err)
		s = sensor.Sample{Temperature: math.NaN(), Humidity: math.NaN()}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return Report{
		Time:        time.Now(),
		Temperature: a.update(Temperature, s.Temperature),
		Humidity:    a.update(Humidity, s.Humidity),
	}
}

// update applies one sampled value to a channel. Callers hold a.mu.
func (a *Aggregator) update(k Kind, v float64) Reading {
	c := a.channels[k]

	if math.IsNaN(v) {
		a.logger.Warn("invalid sensor reading", "channel", string(k))
		if avg, ok := c.window.Average(); ok {
			return Reading{Smoothed: Value{V: avg, OK: true}}
		}
		if c.hasValid {
			// History is gone but a raw value was once seen; degraded fallback.
			return Reading{Smoothed: Value{V: c.lastValid, OK: true}}
		}
		return Reading{}
	}

	c.window.Push(v)
	c.lastValid = v
	c.hasValid = true
	avg, _ := c.window.Average()
	return Reading{
		Instant:  Value{V: v, OK: true},
		Smoothed: Value{V: avg, OK: true},
	}
}

// CurrentAverage returns the channel's smoothed value without touching the
// sensor. Repeated calls between updates return the identical value.
func (a *Aggregator) CurrentAverage(k Kind) (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.channels[k]
	if !ok {
		return 0, false
	}
	return c.window.Average()
}

// LastValue returns the channel's most recent valid raw reading.
func (a *Aggregator) LastValue(k Kind) (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.channels[k]
	if !ok || !c.hasValid {
		return 0, false
	}
	return c.lastValid, true
}

// Snapshot copies the current smoothed values under the read lock. Query
// paths render from this copy so they never race the tick.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := Snapshot{Time: time.Now()}
	if v, ok := a.channels[Temperature].window.Average(); ok {
		snap.Temperature = Value{V: v, OK: true}
	}
	if v, ok := a.channels[Humidity].window.Average(); ok {
		snap.Humidity = Value{V: v, OK: true}
	}
	return snap
}
