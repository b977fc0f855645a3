package sensor

import "context"

// Sample is one instantaneous reading from the environment sensor. A NaN
// field signals a per-channel fault: the sensor answered but that quantity
// could not be measured.
type Sample struct {
	Temperature float64 // degrees Celsius
	Humidity    float64 // percent relative humidity
}

// Source reads one instantaneous sample per call. Implementations must be
// safe to call from a single goroutine; the station polls them from the
// periodic tick only.
type Source interface {
	Read(ctx context.Context) (Sample, error)
	Close() error
}
