package sensor

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// BMXX80 reads a Bosch BME280/BMP280 over I2C through periph.io.
type BMXX80 struct {
	bus i2c.BusCloser
	dev *bmxx80.Dev
}

// NewBMXX80 opens the default I2C bus (usually /dev/i2c-1) and probes the
// sensor at addr (0x76 or 0x77).
func NewBMXX80(addr uint16) (*BMXX80, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}

	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		if closeErr := bus.Close(); closeErr != nil {
			return nil, fmt.Errorf("probe bmxx80 at 0x%02x: %w (bus close: %v)", addr, err, closeErr)
		}
		return nil, fmt.Errorf("probe bmxx80 at 0x%02x: %w", addr, err)
	}

	return &BMXX80{bus: bus, dev: dev}, nil
}

func (s *BMXX80) Read(_ context.Context) (Sample, error) {
	var env physic.Env
	if err := s.dev.Sense(&env); err != nil {
		return Sample{}, fmt.Errorf("sense: %w", err)
	}

	// env.Humidity is fixed point at 0.00001 %rH precision.
	return Sample{
		Temperature: env.Temperature.Celsius(),
		Humidity:    float64(env.Humidity) / 100000.0,
	}, nil
}

func (s *BMXX80) Close() error {
	if err := s.dev.Halt(); err != nil {
		_ = s.bus.Close()
		return fmt.Errorf("halt bmxx80: %w", err)
	}
	return s.bus.Close()
}
