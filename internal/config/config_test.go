package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every recognized variable so tests see defaults unless
// they set something themselves. t.Setenv restores the originals.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR",
		"MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID", "MQTT_TOPIC_PREFIX",
		"SENSOR_DRIVER", "I2C_DEVICE", "SENSOR_ADDRESS", "SIM_FAULT_EVERY",
		"WINDOW_CAPACITY", "SAMPLE_PERIOD", "RECONNECT_BACKOFF",
		"STATION_CONFIG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppEnv != "dev" {
		t.Errorf("AppEnv = %q; want dev", cfg.AppEnv)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v; want info", cfg.LogLevel)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q; want :8080", cfg.HTTPAddr)
	}
	if cfg.MQTTBroker != "localhost" || cfg.MQTTPort != 1883 {
		t.Errorf("broker = %s:%d; want localhost:1883", cfg.MQTTBroker, cfg.MQTTPort)
	}
	if cfg.MQTTTopicPrefix != "esp32" {
		t.Errorf("MQTTTopicPrefix = %q; want esp32", cfg.MQTTTopicPrefix)
	}
	if cfg.SensorDriver != DriverSim {
		t.Errorf("SensorDriver = %q; want %q", cfg.SensorDriver, DriverSim)
	}
	if cfg.SensorAddress != 0x76 {
		t.Errorf("SensorAddress = %#x; want 0x76", cfg.SensorAddress)
	}
	if cfg.WindowCapacity != 5 {
		t.Errorf("WindowCapacity = %d; want 5", cfg.WindowCapacity)
	}
	if cfg.SamplePeriod != 3*time.Second {
		t.Errorf("SamplePeriod = %v; want 3s", cfg.SamplePeriod)
	}
	if cfg.ReconnectBackoff != 5*time.Second {
		t.Errorf("ReconnectBackoff = %v; want 5s", cfg.ReconnectBackoff)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MQTT_BROKER", "broker.lan")
	t.Setenv("MQTT_PORT", "8883")
	t.Setenv("WINDOW_CAPACITY", "10")
	t.Setenv("SAMPLE_PERIOD", "500ms")
	t.Setenv("SENSOR_DRIVER", "bmxx80")
	t.Setenv("SENSOR_ADDRESS", "0x77")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MQTTBroker != "broker.lan" || cfg.MQTTPort != 8883 {
		t.Errorf("broker = %s:%d; want broker.lan:8883", cfg.MQTTBroker, cfg.MQTTPort)
	}
	if cfg.WindowCapacity != 10 {
		t.Errorf("WindowCapacity = %d; want 10", cfg.WindowCapacity)
	}
	if cfg.SamplePeriod != 500*time.Millisecond {
		t.Errorf("SamplePeriod = %v; want 500ms", cfg.SamplePeriod)
	}
	if cfg.SensorDriver != DriverBMXX80 {
		t.Errorf("SensorDriver = %q; want bmxx80", cfg.SensorDriver)
	}
	if cfg.SensorAddress != 0x77 {
		t.Errorf("SensorAddress = %#x; want 0x77", cfg.SensorAddress)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	for _, tc := range []struct {
		key, value, wantSubstr string
	}{
		{"APP_ENV", "staging", "invalid APP_ENV"},
		{"LOG_LEVEL", "verbose", "invalid LOG_LEVEL"},
		{"MQTT_PORT", "not-a-port", "invalid MQTT_PORT"},
		{"SENSOR_DRIVER", "dht11", "invalid SENSOR_DRIVER"},
		{"SENSOR_ADDRESS", "zz", "invalid SENSOR_ADDRESS"},
		{"WINDOW_CAPACITY", "0", "must be positive"},
		{"WINDOW_CAPACITY", "five", "invalid WINDOW_CAPACITY"},
		{"SAMPLE_PERIOD", "-3s", "must be positive"},
		{"RECONNECT_BACKOFF", "soon", "invalid RECONNECT_BACKOFF"},
		{"SIM_FAULT_EVERY", "-1", "must be >= 0"},
	} {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load: expected error for %s=%q", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.wantSubstr) {
				t.Errorf("error = %q; want substring %q", err, tc.wantSubstr)
			}
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "station.yaml")
	content := `
mqtt:
  broker: file-broker
  port: 2883
  topic_prefix: lab
station:
  window_capacity: 10
  sample_period: 10s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STATION_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MQTTBroker != "file-broker" || cfg.MQTTPort != 2883 {
		t.Errorf("broker = %s:%d; want file-broker:2883", cfg.MQTTBroker, cfg.MQTTPort)
	}
	if cfg.MQTTTopicPrefix != "lab" {
		t.Errorf("MQTTTopicPrefix = %q; want lab", cfg.MQTTTopicPrefix)
	}
	if cfg.WindowCapacity != 10 {
		t.Errorf("WindowCapacity = %d; want 10", cfg.WindowCapacity)
	}
	if cfg.SamplePeriod != 10*time.Second {
		t.Errorf("SamplePeriod = %v; want 10s", cfg.SamplePeriod)
	}
	// Unset keys still fall back to defaults.
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q; want :8080", cfg.HTTPAddr)
	}
}

func TestLoad_EnvBeatsConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "station.yaml")
	if err := os.WriteFile(path, []byte("mqtt:\n  broker: file-broker\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STATION_CONFIG", path)
	t.Setenv("MQTT_BROKER", "env-broker")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTTBroker != "env-broker" {
		t.Errorf("MQTTBroker = %q; want env-broker", cfg.MQTTBroker)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATION_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("Load: expected error for missing config file")
	}
}
