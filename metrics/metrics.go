// Package metrics exports the state of windows and their events as Prometheus metrics.
package metrics

import (
	"github.com/aryszka/segbuf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "segbuf"

var _ prometheus.Collector = (*Collector)(nil)

type statDesc struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(segbuf.Stats) float64
}

// Collector reads the statistics of a window on every scrape, and exports them as const metrics. It doesn't
// keep any state of its own.
type Collector struct {
	window string
	stats  func() segbuf.Stats
	descs  []statDesc
}

func newDesc(name, help string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, "window", name), help, []string{"window"}, nil)
}

// NewCollector creates a collector for the statistics returned by stats, labeled with the window name.
func NewCollector(window string, stats func() segbuf.Stats) *Collector {
	gauge, counter := prometheus.GaugeValue, prometheus.CounterValue
	return &Collector{
		window: window,
		stats:  stats,
		descs: []statDesc{
			{newDesc("capacity_segments", "Maximum number of segments held by the window."), gauge,
				func(s segbuf.Stats) float64 { return float64(s.Capacity) }},
			{newDesc("segments", "Number of segments currently held."), gauge,
				func(s segbuf.Stats) float64 { return float64(s.Segments) }},
			{newDesc("begin_index", "Virtual index of the oldest live byte."), gauge,
				func(s segbuf.Stats) float64 { return float64(s.Begin) }},
			{newDesc("end_index", "One past the virtual index of the newest byte."), gauge,
				func(s segbuf.Stats) float64 { return float64(s.End) }},
			{newDesc("bytes", "Number of bytes currently held."), gauge,
				func(s segbuf.Stats) float64 { return float64(s.Size) }},
			{newDesc("cursors", "Number of registered cursors."), gauge,
				func(s segbuf.Stats) float64 { return float64(s.Cursors) }},
			{newDesc("pushes_total", "Number of appended segments."), counter,
				func(s segbuf.Stats) float64 { return float64(s.Pushes) }},
			{newDesc("pushed_bytes_total", "Total size of the appended segments."), counter,
				func(s segbuf.Stats) float64 { return float64(s.PushedBytes) }},
			{newDesc("evictions_total", "Number of evicted segments."), counter,
				func(s segbuf.Stats) float64 { return float64(s.Evictions) }},
			{newDesc("evicted_bytes_total", "Total size of the evicted segments."), counter,
				func(s segbuf.Stats) float64 { return float64(s.EvictedBytes) }},
			{newDesc("conflicts_total", "Number of pushes refused due to a blocking cursor."), counter,
				func(s segbuf.Stats) float64 { return float64(s.Conflicts) }},
		},
	}
}

// ForWindow creates a collector for a window. A window is not safe for concurrent use, so it should only be
// scraped when nothing else accesses it, e.g. after processing the input.
func ForWindow(w *segbuf.Window) *Collector {
	return NewCollector(w.Name(), w.Stats)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d.desc
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	for _, d := range c.descs {
		ch <- prometheus.MustNewConstMetric(d.desc, d.valueType, d.value(s), c.window)
	}
}

// EventCounter counts the window events received on a notification channel.
type EventCounter struct {
	events *prometheus.CounterVec
	bytes  *prometheus.CounterVec
}

// NewEventCounter creates an event counter, and registers its metrics with reg. When reg is nil, the counters
// are not registered.
func NewEventCounter(reg prometheus.Registerer) *EventCounter {
	f := promauto.With(reg)
	return &EventCounter{
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Number of window events by type.",
		}, []string{"window", "type"}),
		bytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_bytes_total",
			Help:      "Size of the segments affected by window events, by type.",
		}, []string{"window", "type"}),
	}
}

// Observe counts a single event.
func (ec *EventCounter) Observe(e *segbuf.Event) {
	if e == nil {
		return
	}

	t := e.Type.String()
	ec.events.WithLabelValues(e.Window, t).Inc()
	ec.bytes.WithLabelValues(e.Window, t).Add(float64(e.Size))
}

// Run counts the events received on the channel until it is closed, or until quit is closed. It blocks, and
// it is typically started in its own goroutine.
func (ec *EventCounter) Run(events <-chan *segbuf.Event, quit <-chan struct{}) {
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}

			ec.Observe(e)
		case <-quit:
			return
		}
	}
}
