// Package metrics exposes the simulation's Prometheus collectors. Every
// label has a bounded value set: resource types, event names, save results.
package metrics

import (
	"time"

	"github.com/hearthfall/settlement/internal/core/event"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/persist"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_ticks_total",
		Help: "Simulation ticks executed",
	})

	Population = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_population",
		Help: "Living citizens",
	})

	Buildings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_buildings",
		Help: "Buildings standing or under work",
	})

	StorageUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_storage_used",
		Help: "Units held in the shared ledger",
	})

	StorageCapacity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_storage_capacity",
		Help: "Ledger capacity",
	})

	Resources = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "settlement_resource_units",
		Help: "Units of each resource in the ledger",
	}, []string{"resource"})

	Events = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_events_total",
		Help: "Simulation events dispatched",
	}, []string{"event"})

	SaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_save_duration_seconds",
		Help:    "Time spent writing a save to the store",
		Buckets: prometheus.DefBuckets,
	})

	Saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_saves_total",
		Help: "Save attempts by result",
	}, []string{"result"}) // "ok", "error"

	SaveBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_save_bytes",
		Help: "Size of the last successful save",
	})

	// HTTP metrics use the route pattern, never the raw path.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_http_requests_total",
		Help: "HTTP requests served",
	}, []string{"method", "route", "status"})

	Rejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_http_rejected_total",
		Help: "Requests rejected before reaching a handler",
	}, []string{"reason"}) // "rate_limit", "auth", "ws_limit", "origin"

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_ws_clients",
		Help: "Connected live feed clients",
	})
)

// ObserveTick records one tick that took d.
func ObserveTick(d time.Duration) {
	TickDuration.Observe(d.Seconds())
	TicksTotal.Inc()
}

// Publish copies a status snapshot into the gauges.
func Publish(s game.Status) {
	Population.Set(float64(s.Population))
	Buildings.Set(float64(s.Buildings))
	StorageUsed.Set(float64(s.StorageUsed))
	StorageCapacity.Set(float64(s.StorageCapacity))
	for _, a := range s.Resources {
		Resources.WithLabelValues(string(a.Type)).Set(float64(a.Amount))
	}
}

// CountEvents subscribes an event counter to bus.
func CountEvents(bus *event.Bus) {
	bus.SubscribeAll(func(ev event.Event) {
		Events.WithLabelValues(ev.Name()).Inc()
	})
}

// ObserveSave matches persist.Autosaver.Observe.
func ObserveSave(rec persist.Record, took time.Duration, err error) {
	SaveDuration.Observe(took.Seconds())
	if err != nil {
		Saves.WithLabelValues("error").Inc()
		return
	}
	Saves.WithLabelValues("ok").Inc()
	SaveBytes.Set(float64(rec.Size))
}
