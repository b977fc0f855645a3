package sensor

import (
	"context"
	"math"
	"sync"
	"time"
)

// Sim simulates a slowly drifting indoor climate for development machines
// without sensor hardware. Values follow low-frequency sine waves around a
// comfortable baseline; FaultEvery > 0 makes every n-th read report a
// per-channel fault so the fallback path can be exercised end to end.
type Sim struct {
	// FaultEvery makes every n-th Read return NaN readings. Zero disables
	// injected faults.
	FaultEvery int

	mu    sync.Mutex
	start time.Time
	reads int
}

// NewSim creates a simulated source.
func NewSim(faultEvery int) *Sim {
	return &Sim{
		FaultEvery: faultEvery,
		start:      time.Now(),
	}
}

func (s *Sim) Read(_ context.Context) (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if s.FaultEvery > 0 && s.reads%s.FaultEvery == 0 {
		return Sample{Temperature: math.NaN(), Humidity: math.NaN()}, nil
	}

	elapsed := time.Since(s.start).Seconds()
	return Sample{
		Temperature: 23.0 + 1.5*math.Sin(elapsed/60.0),
		Humidity:    55.0 + 5.0*math.Sin(elapsed/90.0),
	}, nil
}

func (s *Sim) Close() error {
	return nil
}
