package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// scalar keeps any YAML scalar (string, int, duration) as its raw text so
// an absent key stays distinguishable from a zero value; typed parsing
// happens in Load alongside the env path.
type scalar string

func (s *scalar) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", value.Line)
	}
	*s = scalar(value.Value)
	return nil
}

// fileConfig mirrors the optional STATION_CONFIG YAML file.
type fileConfig struct {
	AppEnv   scalar `yaml:"app_env"`
	LogLevel scalar `yaml:"log_level"`

	HTTP struct {
		Addr scalar `yaml:"addr"`
	} `yaml:"http"`

	MQTT struct {
		Broker      scalar `yaml:"broker"`
		Port        scalar `yaml:"port"`
		ClientID    scalar `yaml:"client_id"`
		TopicPrefix scalar `yaml:"topic_prefix"`
	} `yaml:"mqtt"`

	Sensor struct {
		Driver        scalar `yaml:"driver"`
		Device        scalar `yaml:"device"`
		Address       scalar `yaml:"address"`
		SimFaultEvery scalar `yaml:"sim_fault_every"`
	} `yaml:"sensor"`

	Station struct {
		WindowCapacity   scalar `yaml:"window_capacity"`
		SamplePeriod     scalar `yaml:"sample_period"`
		ReconnectBackoff scalar `yaml:"reconnect_backoff"`
	} `yaml:"station"`
}

func readFile(path string, fc *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
