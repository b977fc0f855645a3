package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sensor driver names accepted by SENSOR_DRIVER.
const (
	DriverBMXX80 = "bmxx80"
	DriverBME280 = "bme280"
	DriverSim    = "sim"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTTopicPrefix string

	SensorDriver  string
	I2CDevice     string
	SensorAddress uint16
	SimFaultEvery int

	// WindowCapacity is the moving-average window size (typically 5 or 10).
	WindowCapacity int
	// SamplePeriod is the cadence of the sample-and-publish tick.
	SamplePeriod time.Duration
	// ReconnectBackoff is the delay between broker connection attempts.
	ReconnectBackoff time.Duration
}

// Load builds the configuration from the optional STATION_CONFIG YAML file
// with environment variables taking precedence, falling back to defaults.
func Load() (Config, error) {
	var fc fileConfig
	if path := strings.TrimSpace(os.Getenv("STATION_CONFIG")); path != "" {
		if err := readFile(path, &fc); err != nil {
			return Config{}, err
		}
	}

	appEnv := pick("APP_ENV", fc.AppEnv, "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(pick("LOG_LEVEL", fc.LogLevel, "info"))
	if err != nil {
		return Config{}, err
	}

	httpAddr := pick("HTTP_ADDR", fc.HTTP.Addr, ":8080")

	mqttBroker := pick("MQTT_BROKER", fc.MQTT.Broker, "localhost")

	mqttPortStr := pick("MQTT_PORT", fc.MQTT.Port, "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	mqttClientID := pick("MQTT_CLIENT_ID", fc.MQTT.ClientID, "esp32-dht11-station")
	mqttTopicPrefix := pick("MQTT_TOPIC_PREFIX", fc.MQTT.TopicPrefix, "esp32")

	sensorDriver := pick("SENSOR_DRIVER", fc.Sensor.Driver, DriverSim)
	switch sensorDriver {
	case DriverBMXX80, DriverBME280, DriverSim:
	default:
		return Config{}, fmt.Errorf("invalid SENSOR_DRIVER %q (allowed: %s, %s, %s)",
			sensorDriver, DriverBMXX80, DriverBME280, DriverSim)
	}

	i2cDevice := pick("I2C_DEVICE", fc.Sensor.Device, "/dev/i2c-1")

	sensorAddressStr := pick("SENSOR_ADDRESS", fc.Sensor.Address, "0x76")
	sensorAddress, err := strconv.ParseUint(sensorAddressStr, 0, 16)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SENSOR_ADDRESS %q: %w", sensorAddressStr, err)
	}

	simFaultEveryStr := pick("SIM_FAULT_EVERY", fc.Sensor.SimFaultEvery, "0")
	simFaultEvery, err := strconv.Atoi(simFaultEveryStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SIM_FAULT_EVERY %q: %w", simFaultEveryStr, err)
	}
	if simFaultEvery < 0 {
		return Config{}, fmt.Errorf("SIM_FAULT_EVERY must be >= 0, got %d", simFaultEvery)
	}

	windowCapacityStr := pick("WINDOW_CAPACITY", fc.Station.WindowCapacity, "5")
	windowCapacity, err := strconv.Atoi(windowCapacityStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid WINDOW_CAPACITY %q: %w", windowCapacityStr, err)
	}
	if windowCapacity <= 0 {
		return Config{}, fmt.Errorf("WINDOW_CAPACITY must be positive, got %d", windowCapacity)
	}

	samplePeriodStr := pick("SAMPLE_PERIOD", fc.Station.SamplePeriod, "3s")
	samplePeriod, err := time.ParseDuration(samplePeriodStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SAMPLE_PERIOD %q: %w", samplePeriodStr, err)
	}
	if samplePeriod <= 0 {
		return Config{}, fmt.Errorf("SAMPLE_PERIOD must be positive, got %v", samplePeriod)
	}

	reconnectBackoffStr := pick("RECONNECT_BACKOFF", fc.Station.ReconnectBackoff, "5s")
	reconnectBackoff, err := time.ParseDuration(reconnectBackoffStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid RECONNECT_BACKOFF %q: %w", reconnectBackoffStr, err)
	}
	if reconnectBackoff <= 0 {
		return Config{}, fmt.Errorf("RECONNECT_BACKOFF must be positive, got %v", reconnectBackoff)
	}

	return Config{
		AppEnv:           appEnv,
		LogLevel:         level,
		HTTPAddr:         httpAddr,
		MQTTBroker:       mqttBroker,
		MQTTPort:         mqttPort,
		MQTTClientID:     mqttClientID,
		MQTTTopicPrefix:  mqttTopicPrefix,
		SensorDriver:     sensorDriver,
		I2CDevice:        i2cDevice,
		SensorAddress:    uint16(sensorAddress),
		SimFaultEvery:    simFaultEvery,
		WindowCapacity:   windowCapacity,
		SamplePeriod:     samplePeriod,
		ReconnectBackoff: reconnectBackoff,
	}, nil
}

// pick resolves one option: environment wins, then the config file, then
// the default.
func pick(env string, fileVal scalar, def string) string {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	if fileVal != "" {
		return string(fileVal)
	}
	return def
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
