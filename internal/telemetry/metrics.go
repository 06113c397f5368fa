package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/sheetclock"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Work session metrics
	SessionsStartedTotal   metric.Int64Counter
	SessionsRecordedTotal  metric.Int64Counter
	SessionsDiscardedTotal metric.Int64Counter
	SessionsForcedTotal    metric.Int64Counter
	ActiveSessions         metric.Int64UpDownCounter
	SessionDuration        metric.Float64Histogram

	// Modification poll metrics
	PollsTotal        metric.Int64Counter
	PollErrorsTotal   metric.Int64Counter
	ModificationsSeen metric.Int64Counter

	// Record store metrics
	StoreWriteErrorsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments are bound to the global meter provider, so Setup must run first
// for them to export anything.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.SessionsStartedTotal, _ = meter.Int64Counter(
		"sheetclock.sessions.started.total",
		metric.WithDescription("Total number of work sessions started"),
		metric.WithUnit("{session}"),
	)

	m.SessionsRecordedTotal, _ = meter.Int64Counter(
		"sheetclock.sessions.recorded.total",
		metric.WithDescription("Total number of work sessions written to history"),
		metric.WithUnit("{session}"),
	)

	m.SessionsDiscardedTotal, _ = meter.Int64Counter(
		"sheetclock.sessions.discarded.total",
		metric.WithDescription("Total number of work sessions discarded for lack of activity"),
		metric.WithUnit("{session}"),
	)

	m.SessionsForcedTotal, _ = meter.Int64Counter(
		"sheetclock.sessions.forced.total",
		metric.WithDescription("Total number of work sessions closed by logout or shutdown"),
		metric.WithUnit("{session}"),
	)

	m.ActiveSessions, _ = meter.Int64UpDownCounter(
		"sheetclock.sessions.active",
		metric.WithDescription("Number of work sessions currently running"),
		metric.WithUnit("{session}"),
	)

	m.SessionDuration, _ = meter.Float64Histogram(
		"sheetclock.sessions.duration",
		metric.WithDescription("Rounded duration of closed work sessions"),
		metric.WithUnit("min"),
	)

	m.PollsTotal, _ = meter.Int64Counter(
		"sheetclock.polls.total",
		metric.WithDescription("Total number of document modification polls"),
		metric.WithUnit("{poll}"),
	)

	m.PollErrorsTotal, _ = meter.Int64Counter(
		"sheetclock.polls.errors.total",
		metric.WithDescription("Total number of modification polls that failed after retries"),
		metric.WithUnit("{error}"),
	)

	m.ModificationsSeen, _ = meter.Int64Counter(
		"sheetclock.polls.modifications.total",
		metric.WithDescription("Total number of polls that observed an external modification"),
		metric.WithUnit("{modification}"),
	)

	m.StoreWriteErrorsTotal, _ = meter.Int64Counter(
		"sheetclock.store.write_errors.total",
		metric.WithDescription("Total number of failed record store writes"),
		metric.WithUnit("{error}"),
	)

	return m
}
