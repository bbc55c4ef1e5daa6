// Package metrics exposes prometheus counters for the agent's activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentlog_actions_total",
		Help: "Browser actions executed, by tool and outcome.",
	}, []string{"tool", "outcome"})

	llmRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentlog_llm_requests_total",
		Help: "LLM requests, by outcome.",
	}, []string{"outcome"})

	networkEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentlog_network_events_total",
		Help: "Observed network responses, by traffic class.",
	}, []string{"class"})
)

// ObserveAction records one executed browser action.
func ObserveAction(tool string, err error) {
	actionsTotal.WithLabelValues(tool, outcome(err)).Inc()
}

// ObserveLLM records one model request.
func ObserveLLM(err error) {
	llmRequestsTotal.WithLabelValues(outcome(err)).Inc()
}

// ObserveNetwork records one observed network response. class is "page" or
// "control".
func ObserveNetwork(class string) {
	networkEventsTotal.WithLabelValues(class).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Serve starts a /metrics listener on addr. Returns the server so the caller
// can shut it down; errors from the listener are delivered to onErr.
func Serve(addr string, onErr func(error)) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			onErr(err)
		}
	}()
	return srv
}
