// Package metrics exposes transmission counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Result labels.
const (
	ResultOK          = "ok"
	ResultInvalid     = "invalid"
	ResultLinkFailure = "link_error"
)

// Metrics are the counters updated by a Tower.
type Metrics struct {
	Packets  *prometheus.CounterVec // labels: result
	TxBytes  prometheus.Counter
	Opcodes  prometheus.Counter
	Requests *prometheus.CounterVec // labels: source
}

// New registers and returns the counters.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rcx_packets_total",
			Help: "Packets by send result.",
		}, []string{"result"}),
		TxBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rcx_tx_bytes_total",
			Help: "Bytes written to the serial line.",
		}),
		Opcodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rcx_opcodes_total",
			Help: "Opcodes transmitted.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rcx_bridge_requests_total",
			Help: "Remote send requests by bridge source.",
		}, []string{"source"}),
	}
	reg.MustRegister(m.Packets, m.TxBytes, m.Opcodes, m.Requests)
	return m
}

// ObserveSent records a transmitted packet.
func (m *Metrics) ObserveSent(opcodes, wireLen int) {
	if m == nil {
		return
	}
	m.Packets.WithLabelValues(ResultOK).Inc()
	m.Opcodes.Add(float64(opcodes))
	m.TxBytes.Add(float64(wireLen))
}

// ObserveFailed records a packet rejected with result.
func (m *Metrics) ObserveFailed(result string) {
	if m == nil {
		return
	}
	m.Packets.WithLabelValues(result).Inc()
}

// ObserveRequest records a bridge request from source.
func (m *Metrics) ObserveRequest(source string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(source).Inc()
}
