package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/status-im/pocket-provider/logutils"
)

const namespace = "pocket_provider"

var (
	dispatchCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Number of payloads dispatched, by request type",
		},
		[]string{"type"},
	)
	outcomeCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Number of completed dispatches, by request type and outcome",
		},
		[]string{"type", "outcome"},
	)
	sendDuration = prom.NewHistogramVec(
		prom.HistogramOpts{
			Namespace: namespace,
			Name:      "send_duration_seconds",
			Help:      "Time from dispatch to the terminal callback",
			Buckets:   prom.DefBuckets,
		},
		[]string{"type"},
	)
	connectedGauge = prom.NewGauge(
		prom.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 if the last completed request reached the Pocket node",
		},
	)
)

func init() {
	prom.MustRegister(dispatchCounter, outcomeCounter, sendDuration, connectedGauge)
}

// OutcomeSuccess is recorded for dispatches that produced a result.
const OutcomeSuccess = "success"

// RecordDispatch counts a payload entering the pipeline.
func RecordDispatch(requestType string) {
	dispatchCounter.WithLabelValues(requestType).Inc()
}

// RecordOutcome counts a terminal callback and observes its latency.
// outcome is OutcomeSuccess or an error code.
func RecordOutcome(requestType, outcome string, started time.Time) {
	outcomeCounter.WithLabelValues(requestType, outcome).Inc()
	sendDuration.WithLabelValues(requestType).Observe(time.Since(started).Seconds())
}

// SetConnected mirrors the provider connectivity flag.
func SetConnected(connected bool) {
	if connected {
		connectedGauge.Set(1)
		return
	}
	connectedGauge.Set(0)
}

// Server runs and controls a HTTP metrics interface.
type Server struct {
	server *http.Server
}

func NewMetricsServer(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/health", healthHandler())
	mux.Handle("/metrics", Handler())
	p := Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			ReadHeaderTimeout: 5 * time.Second,
			Handler:           mux,
		},
	}
	return &p
}

func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("OK"))
		if err != nil {
			logutils.ZapLogger().Error("health handler error", zap.Error(err))
		}
	})
}

func Handler() http.Handler {
	return promhttp.HandlerFor(prom.DefaultGatherer, promhttp.HandlerOpts{})
}

// Listen starts the HTTP server and blocks until it stops.
func (p *Server) Listen() {
	err := p.server.ListenAndServe()
	if err == http.ErrServerClosed {
		err = nil
	}
	logutils.ZapLogger().Info("metrics server stopped", zap.Error(err))
}

// Stop gracefully shuts the server down.
func (p *Server) Stop(ctx context.Context) error {
	return p.server.Shutdown(ctx)
}
