package station

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaoalexarruda/esp32-dht11-webserver-mqtt/internal/sensor"
)

// fakeSource replays a scripted sequence of samples, then repeats the last
// one.
type fakeSource struct {
	samples []sensor.Sample
	err     error
	reads   int
}

func (f *fakeSource) Read(_ context.Context) (sensor.Sample, error) {
	if f.err != nil {
		return sensor.Sample{}, f.err
	}
	i := f.reads
	if i >= len(f.samples) {
		i = len(f.samples) - 1
	}
	f.reads++
	return f.samples[i], nil
}

func (f *fakeSource) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func sample(temp, hum float64) sensor.Sample {
	return sensor.Sample{Temperature: temp, Humidity: hum}
}

func TestAggregator_ValidSamplesFeedBothChannels(t *testing.T) {
	src := &fakeSource{samples: []sensor.Sample{
		sample(20, 50),
		sample(22, 54),
	}}
	agg := NewAggregator(src, 5, testLogger())

	report := agg.SampleAndUpdate(context.Background())
	require.True(t, report.Temperature.Instant.OK)
	assert.Equal(t, 20.0, report.Temperature.Instant.V)
	assert.Equal(t, 20.0, report.Temperature.Smoothed.V)

	report = agg.SampleAndUpdate(context.Background())
	assert.Equal(t, 22.0, report.Temperature.Instant.V)
	assert.InDelta(t, 21.0, report.Temperature.Smoothed.V, 1e-9)
	assert.InDelta(t, 52.0, report.Humidity.Smoothed.V, 1e-9)
}

func TestAggregator_InvalidSampleDoesNotTouchHistory(t *testing.T) {
	nan := math.NaN()
	src := &fakeSource{samples: []sensor.Sample{
		sample(nan, nan),
		sample(10, 10),
		sample(nan, nan),
		sample(12, 12),
	}}
	agg := NewAggregator(src, 5, testLogger())

	// Persistent failure before any valid reading has nothing to report.
	report := agg.SampleAndUpdate(context.Background())
	assert.False(t, report.Temperature.Instant.OK)
	assert.False(t, report.Temperature.Smoothed.OK)
	_, ok := agg.CurrentAverage(Temperature)
	assert.False(t, ok)

	agg.SampleAndUpdate(context.Background()) // 10.0

	// A glitch between two valid samples still yields a usable fallback.
	report = agg.SampleAndUpdate(context.Background())
	assert.False(t, report.Temperature.Instant.OK)
	require.True(t, report.Temperature.Smoothed.OK)
	assert.Equal(t, 10.0, report.Temperature.Smoothed.V)

	agg.SampleAndUpdate(context.Background()) // 12.0

	// History holds exactly the two valid readings.
	avg, ok := agg.CurrentAverage(Temperature)
	require.True(t, ok)
	assert.InDelta(t, 11.0, avg, 1e-9)

	last, ok := agg.LastValue(Temperature)
	require.True(t, ok)
	assert.Equal(t, 12.0, last)
}

func TestAggregator_SensorErrorIsNonFatal(t *testing.T) {
	src := &fakeSource{err: errors.New("bus stuck")}
	agg := NewAggregator(src, 5, testLogger())

	report := agg.SampleAndUpdate(context.Background())
	assert.False(t, report.Temperature.Smoothed.OK)
	assert.False(t, report.Humidity.Smoothed.OK)
}

func TestAggregator_CurrentAverageIsIdempotent(t *testing.T) {
	src := &fakeSource{samples: []sensor.Sample{sample(21, 48)}}
	agg := NewAggregator(src, 5, testLogger())
	agg.SampleAndUpdate(context.Background())

	first, ok := agg.CurrentAverage(Humidity)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		v, ok := agg.CurrentAverage(Humidity)
		require.True(t, ok)
		assert.Equal(t, first, v)
	}
}

func TestAggregator_PerChannelFault(t *testing.T) {
	src := &fakeSource{samples: []sensor.Sample{
		sample(20, 50),
		sample(math.NaN(), 52),
	}}
	agg := NewAggregator(src, 5, testLogger())

	agg.SampleAndUpdate(context.Background())
	report := agg.SampleAndUpdate(context.Background())

	// Temperature fell back to its average, humidity advanced normally.
	assert.False(t, report.Temperature.Instant.OK)
	assert.Equal(t, 20.0, report.Temperature.Smoothed.V)
	require.True(t, report.Humidity.Instant.OK)
	assert.InDelta(t, 51.0, report.Humidity.Smoothed.V, 1e-9)
}

func TestAggregator_Snapshot(t *testing.T) {
	src := &fakeSource{samples: []sensor.Sample{sample(24, 60)}}
	agg := NewAggregator(src, 5, testLogger())

	snap := agg.Snapshot()
	assert.False(t, snap.Temperature.OK)
	assert.False(t, snap.Humidity.OK)

	agg.SampleAndUpdate(context.Background())

	snap = agg.Snapshot()
	require.True(t, snap.Temperature.OK)
	assert.Equal(t, 24.0, snap.Temperature.V)
	assert.Equal(t, 60.0, snap.Humidity.V)
}
