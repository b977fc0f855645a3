package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/config"
	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/httpapi"
	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/httpapi/views"
	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/mqtt"
	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/sensor"
	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/station"
)

// pollInterval is the granularity of the cooperative run loop. The
// scheduler gates the actual sample cadence; polling just has to be much
// finer than the sample period.
const pollInterval = 100 * time.Millisecond

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopicPrefix", cfg.MQTTTopicPrefix,
		"sensorDriver", cfg.SensorDriver,
		"windowCapacity", cfg.WindowCapacity,
		"samplePeriod", cfg.SamplePeriod,
		"reconnectBackoff", cfg.ReconnectBackoff,
	)

	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			slog.Error("sensor close", "error", closeErr)
		}
	}()

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	aggregator := station.NewAggregator(src, cfg.WindowCapacity, slog.Default())

	publisher, err := mqtt.NewClient(cfg, slog.Default())
	if err != nil {
		return err
	}

	// Short timeout for the initial connect so a down broker does not block
	// startup; paho keeps retrying in the background at the configured
	// backoff while publishes are skipped.
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = publisher.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing, will retry in background)", "error", err)
	}

	live := httpapi.NewLiveFeed(slog.Default())
	refresh := int(cfg.SamplePeriod / time.Second)
	if refresh < 1 {
		refresh = 1
	}
	mux := httpapi.NewMux(aggregator, publisher, live, refresh)
	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	scheduler := station.NewScheduler(cfg.SamplePeriod)
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case now := <-poll.C:
			if !scheduler.Tick(now) {
				continue
			}
			report := aggregator.SampleAndUpdate(ctx)
			published := publishReport(publisher, cfg.MQTTTopicPrefix, report)
			live.Broadcast(aggregator.Snapshot())
			logReport(report, published)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("mqtt disconnecting")
	publisher.Disconnect()

	live.Close()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

func openSource(cfg config.Config) (sensor.Source, error) {
	switch cfg.SensorDriver {
	case config.DriverBMXX80:
		return sensor.NewBMXX80(cfg.SensorAddress)
	case config.DriverBME280:
		return sensor.NewBME280(cfg.I2CDevice, int(cfg.SensorAddress))
	case config.DriverSim:
		return sensor.NewSim(cfg.SimFaultEvery), nil
	}
	return nil, fmt.Errorf("unknown sensor driver %q", cfg.SensorDriver)
}

// publishReport sends the cycle's readings to the broker. While the broker
// is unreachable the cycle is skipped with a warning; the averaged series
// keeps advancing locally.
func publishReport(publisher *mqtt.Client, prefix string, report station.Report) int {
	msgs := report.Messages(prefix)
	if len(msgs) == 0 {
		return 0
	}
	if !publisher.IsConnected() {
		slog.Warn("mqtt not connected, skipping publish", "messages", len(msgs))
		return 0
	}

	published := 0
	for _, m := range msgs {
		if err := publisher.Publish(m.Topic, m.Payload); err != nil {
			slog.Warn("publish failed", "topic", m.Topic, "error", err)
			continue
		}
		published++
	}
	return published
}

// logReport is the per-tick diagnostic dump: instantaneous and averaged
// values per channel plus how many messages reached the broker.
func logReport(report station.Report, published int) {
	slog.Info("sample cycle",
		"temperature", formatReading(report.Temperature.Instant),
		"humidity", formatReading(report.Humidity.Instant),
		"avg_temperature", formatReading(report.Temperature.Smoothed),
		"avg_humidity", formatReading(report.Humidity.Smoothed),
		"published", published,
	)
}

func formatReading(v station.Value) string {
	if !v.OK {
		return "n/a"
	}
	return station.FormatValue(v.V)
}
