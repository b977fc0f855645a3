package sensor

import (
	"context"
	"fmt"

	"github.com/quhar/bme280"
	"golang.org/x/exp/io/i2c"
)

// BME280 reads a Bosch BME280 through the quhar driver on a devfs I2C
// device. Alternative to the periph.io backend for hosts where only
// /dev/i2c-* access is available.
type BME280 struct {
	dev *i2c.Device
	b   *bme280.BME280
}

// NewBME280 opens the sensor at addr on the given device, e.g.
// ("/dev/i2c-1", 0x76).
func NewBME280(device string, addr int) (*BME280, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: device}, addr)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}

	b := bme280.New(dev)
	if err := b.Init(); err != nil {
		if closeErr := dev.Close(); closeErr != nil {
			return nil, fmt.Errorf("bme280 init: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("bme280 init: %w", err)
	}

	return &BME280{dev: dev, b: b}, nil
}

func (s *BME280) Read(_ context.Context) (Sample, error) {
	t, _, h, err := s.b.EnvData()
	if err != nil {
		return Sample{}, fmt.Errorf("env data: %w", err)
	}
	return Sample{Temperature: t, Humidity: h}, nil
}

func (s *BME280) Close() error {
	return s.dev.Close()
}
