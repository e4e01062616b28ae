// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package metrics exposes Prometheus counters for requests, store calls and
// email deliveries.
package metrics

import (
	"net/http"

	"codeberg.org/oliverandrich/accountd/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "accountd"

// Metrics holds the service's collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	storeOps *prometheus.CounterVec
	emails   *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route.",
		}, []string{"route"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Store client calls by operation and outcome.",
		}, []string{"op", "result"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Verification email deliveries by outcome.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.storeOps,
		m.emails,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Request counts one request to route.
func (m *Metrics) Request(route string) {
	m.requests.WithLabelValues(route).Inc()
}

// StoreOperation is a store.ObserveFunc.
func (m *Metrics) StoreOperation(op string, err error) {
	m.storeOps.WithLabelValues(op, store.Outcome(err)).Inc()
}

// EmailSent records a delivery attempt.
func (m *Metrics) EmailSent(err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.emails.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
