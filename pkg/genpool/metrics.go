package genpool

// metrics.go is a thin abstraction over Prometheus so a Pool can be used
// with or without metrics: when a caller passes WithMetrics(reg),
// collectors are created and registered; otherwise a no-op sink is used and
// the hot allocation path does not pay for metric updates.
//
// Metric names:
//
//	yoink_pool_rotations_total     Ctr
//	yoink_pool_bytes_freed_total   Ctr
//	yoink_pool_arena_bytes         Gge  (current generation's live bytes)
//	yoink_pool_generation_id       Gge  (monotonically increasing slot id)
//
// There are deliberately no hit/miss counters here — a generational arena
// pool has no lookup path to hit or miss on, unlike a key-value cache.

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metricsSink interface {
	incRotation()
	addBytesFreed(n int64)
	setArenaBytes(n int64)
	setGeneration(id uint32)
}

type noopMetrics struct{}

func (noopMetrics) incRotation()          {}
func (noopMetrics) addBytesFreed(int64)   {}
func (noopMetrics) setArenaBytes(int64)   {}
func (noopMetrics) setGeneration(uint32)  {}

type promMetrics struct {
	rotations  prometheus.Counter
	bytesFreed prometheus.Counter
	arenaBytes prometheus.Gauge
	generation prometheus.Gauge
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	pm := &promMetrics{
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "yoink_pool",
			Name:      "rotations_total",
			Help:      "Number of generation rotations performed.",
		}),
		bytesFreed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "yoink_pool",
			Name:      "bytes_freed_total",
			Help:      "Bytes reclaimed by discarding outgoing generations.",
		}),
		arenaBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "yoink_pool",
			Name:      "arena_bytes",
			Help:      "Live bytes allocated in the active generation's arena.",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "yoink_pool",
			Name:      "generation_id",
			Help:      "Monotonically increasing id of the active generation.",
		}),
	}
	reg.MustRegister(pm.rotations, pm.bytesFreed, pm.arenaBytes, pm.generation)
	return pm
}

func (m *promMetrics) incRotation()            { m.rotations.Inc() }
func (m *promMetrics) addBytesFreed(n int64)   { m.bytesFreed.Add(float64(n)) }
func (m *promMetrics) setArenaBytes(n int64)   { m.arenaBytes.Set(float64(n)) }
func (m *promMetrics) setGeneration(id uint32) { m.generation.Set(float64(id)) }

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
