package transferengine

import "github.com/prometheus/client_golang/prometheus"

// metrics.go wires the engine's Progress/terminal events into Prometheus
// counters, the observability pattern this engine's teacher does not have
// (the teacher only logs), but which the domain-stack expansion adds:
// client_golang is an added dependency with no counterpart in the pack, and a
// serial-transfer daemon (cmd/xfersend, cmd/xferrecv) is exactly the kind
// of long-running process that would export it.

// Recorder observes Session events and updates its own set of Prometheus
// collectors. Put it in front of a Session's Sink with Wrap.
type Recorder struct {
	bytesTransferred prometheus.Counter
	sessionsActive   prometheus.Gauge
	sessionsTotal    *prometheus.CounterVec
	errorsTotal      prometheus.Counter
}

// NewRecorder creates a Recorder and registers its collectors with reg.
// Pass prometheus.DefaultRegisterer for the global registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		bytesTransferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transferengine",
			Name:      "bytes_transferred_total",
			Help:      "Total payload bytes moved across all sessions.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transferengine",
			Name:      "sessions_active",
			Help:      "Number of sessions currently in progress.",
		}),
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transferengine",
			Name:      "sessions_total",
			Help:      "Sessions by terminal outcome.",
		}, []string{"outcome"}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transferengine",
			Name:      "transient_errors_total",
			Help:      "Transient errors observed via progress.error_count deltas.",
		}),
	}
	reg.MustRegister(r.bytesTransferred, r.sessionsActive, r.sessionsTotal, r.errorsTotal)
	return r
}

// Wrap returns a Sink that forwards every event to inner after recording
// it, for composing a Recorder in front of a host's own Sink.
func (r *Recorder) Wrap(inner Sink) Sink {
	var lastBytes uint64
	var lastErrors uint32
	started := false
	return func(evt Event) {
		switch evt.Type {
		case EventStarted:
			r.sessionsActive.Inc()
			started = true
			lastBytes = 0
			lastErrors = 0
		case EventProgress:
			if evt.Progress.BytesTransferred > lastBytes {
				r.bytesTransferred.Add(float64(evt.Progress.BytesTransferred - lastBytes))
				lastBytes = evt.Progress.BytesTransferred
			}
			if evt.Progress.ErrorCount > lastErrors {
				r.errorsTotal.Add(float64(evt.Progress.ErrorCount - lastErrors))
				lastErrors = evt.Progress.ErrorCount
			}
		case EventCompleted, EventFailed, EventCancelled:
			if started {
				r.sessionsActive.Dec()
				started = false
			}
			r.sessionsTotal.WithLabelValues(outcomeLabel(evt.Type)).Inc()
		}
		if inner != nil {
			inner(evt)
		}
	}
}

func outcomeLabel(t EventType) string {
	switch t {
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
