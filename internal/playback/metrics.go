package playback

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "wavecloud"

// Metrics are the prometheus collectors updated by a controller.
type Metrics struct {
	TrackChanges    prometheus.Counter
	TracksCompleted prometheus.Counter
	Resolutions     *prometheus.CounterVec
	ResolveSeconds  prometheus.Histogram
	Errors          *prometheus.CounterVec
	Playing         prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TrackChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "playback",
			Name:      "track_changes_total",
			Help:      "Tracks loaded into the output.",
		}),
		TracksCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "playback",
			Name:      "tracks_completed_total",
			Help:      "Tracks that played through to their end.",
		}),
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "playback",
			Name:      "resolutions_total",
			Help:      "Track URL resolutions by result.",
		}, []string{"result"}),
		ResolveSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "playback",
			Name:      "resolve_duration_seconds",
			Help:      "Time spent resolving track URLs.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 6),
		}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "playback",
			Name:      "errors_total",
			Help:      "Failed playback operations by operation.",
		}, []string{"operation"}),
		Playing: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "playback",
			Name:      "playing",
			Help:      "1 while the controller is playing.",
		}),
	}
}

func (m *Metrics) observeResolve(start time.Time, err error) {
	m.ResolveSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		m.Resolutions.WithLabelValues("error").Inc()
		return
	}
	m.Resolutions.WithLabelValues("ok").Inc()
}

func (m *Metrics) setState(s State) {
	if s == StatePlaying {
		m.Playing.Set(1)
		return
	}
	m.Playing.Set(0)
}
