// Package metrics exposes Prometheus collectors for the alarm controller.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/alarm-blinker/internal/controller"
	"github.com/oshokin/alarm-blinker/internal/domain/alarm"
)

// Namespace prefixes every metric of the project.
const Namespace = "alarm_blinker"

// Metrics holds the controller collectors.
type Metrics struct {
	// Armed is 1 while the alarm is enabled.
	Armed prometheus.Gauge
	// Output is 1 while the output is on.
	Output prometheus.Gauge
	// Transitions counts controller events by kind.
	Transitions *prometheus.CounterVec
	// Commands counts arm/disarm requests by command and result.
	Commands *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	subsystem := "controller"

	return &Metrics{
		Armed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      "armed",
			Help:      "Whether the alarm is armed.",
		}),
		Output: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      "output_on",
			Help:      "Whether the blinker output is on.",
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      "events_total",
			Help:      "Controller events by kind.",
		}, []string{"kind"}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      "commands_total",
			Help:      "Alarm commands by command and result.",
		}, []string{"command", "result"}),
	}
}

// Observe updates the collectors from a controller event.
func (m *Metrics) Observe(event controller.Event) {
	m.Transitions.WithLabelValues(event.Kind.String()).Inc()

	switch event.Kind {
	case controller.EventArmed:
		m.Armed.Set(1)
	case controller.EventDisarmed, controller.EventExpired:
		m.Armed.Set(0)
	case controller.EventOutputChanged:
		if event.Output == alarm.On {
			m.Output.Set(1)
		} else {
			m.Output.Set(0)
		}
	}
}

// CountCommand records a received command.
// A nil err means the command was accepted.
func (m *Metrics) CountCommand(command alarm.Command, err error) {
	result := "accepted"
	if err != nil {
		result = "rejected"
	}

	m.Commands.WithLabelValues(command.String(), result).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
