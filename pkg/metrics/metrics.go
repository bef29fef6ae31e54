package metrics

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type manager struct {
	namespace string
	system    string
	registry  *prometheus.Registry

	messagesSent        *prometheus.CounterVec
	roomsCreated        *prometheus.CounterVec
	readMarks           *prometheus.CounterVec
	wsConnections       *prometheus.GaugeVec
	activeSubscriptions *prometheus.GaugeVec
}

var (
	mu      sync.RWMutex
	current *manager
)

// Setup builds a fresh registry with the chat collectors. Calling it again
// replaces the previous registry.
func Setup(ns, system string) {
	m := &manager{
		namespace: ns,
		system:    system,
		registry:  prometheus.NewRegistry(),
	}
	m.registry.Register(collectors.NewGoCollector())

	m.messagesSent = m.newCounterVec("messages_sent", []string{"sender_type"})
	m.roomsCreated = m.newCounterVec("rooms_created", nil)
	m.readMarks = m.newCounterVec("read_marks", nil)
	m.wsConnections = m.newGaugeVec("ws_connections", []string{"role"})
	m.activeSubscriptions = m.newGaugeVec("active_subscriptions", []string{"topic"})

	mu.Lock()
	current = m
	mu.Unlock()
}

func (m *manager) newCounterVec(name string, labels []string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: FmtFixer(m.namespace),
			Subsystem: FmtFixer(m.system),
			Name:      FmtFixer(name) + "_total",
			Help:      fmt.Sprintf("%s count of /%s/%s", name, m.namespace, m.system),
		},
		labels,
	)
	m.registry.Register(vec)
	return vec
}

func (m *manager) newGaugeVec(name string, labels []string) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: FmtFixer(m.namespace),
			Subsystem: FmtFixer(m.system),
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s gauge of /%s/%s", name, m.namespace, m.system),
		},
		labels,
	)
	m.registry.Register(vec)
	return vec
}

func get() *manager {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func MessageSent(senderType string) {
	if m := get(); m != nil {
		m.messagesSent.WithLabelValues(senderType).Inc()
	}
}

func RoomCreated() {
	if m := get(); m != nil {
		m.roomsCreated.WithLabelValues().Inc()
	}
}

func ReadMarked() {
	if m := get(); m != nil {
		m.readMarks.WithLabelValues().Inc()
	}
}

func ConnectionOpened(role string) {
	if m := get(); m != nil {
		m.wsConnections.WithLabelValues(role).Inc()
	}
}

func ConnectionClosed(role string) {
	if m := get(); m != nil {
		m.wsConnections.WithLabelValues(role).Dec()
	}
}

func SubscriptionOpened(topic string) {
	if m := get(); m != nil {
		m.activeSubscriptions.WithLabelValues(topic).Inc()
	}
}

func SubscriptionClosed(topic string) {
	if m := get(); m != nil {
		m.activeSubscriptions.WithLabelValues(topic).Dec()
	}
}

// Handler exposes the current registry. It returns 503 until Setup runs.
func Handler() http.Handler {
	m := get()
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics not configured", http.StatusServiceUnavailable)
		})
	}
	return promhttp.InstrumentMetricHandler(m.registry, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func FmtFixer(in string) string {
	return strings.Replace(strings.Replace(in, ".", "_", -1), "-", "_", -1)
}
