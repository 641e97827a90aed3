// Package metrics exposes Prometheus counters for commands, session
// transitions and settlements.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"telegram-wager-bot/internal/session"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	sessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_transitions_total",
			Help: "Total number of session state transitions",
		},
		[]string{"from", "to"},
	)
	settlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Total number of settled games by game and result",
		},
		[]string{"game", "result"},
	)
	balanceDeltaTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_delta_total",
			Help: "Absolute balance moved by settlements, split into won and lost",
		},
		[]string{"direction"},
	)
	sessionsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sessions_by_state",
			Help: "Number of live sessions per state",
		},
		[]string{"state"},
	)
)

var trackedStates = []session.State{
	session.StateAwaitingWager,
	session.StateAwaitingOutcome,
}

func init() {
	session.RegisterTransitionRecorder(RecordSessionTransition)
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordSessionTransition tracks session state transitions.
func RecordSessionTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	sessionTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordSettlement tracks one applied settlement.
func RecordSettlement(game string, won bool, balanceDelta int64) {
	result := "lost"
	if won {
		result = "won"
	}
	settlementsTotal.WithLabelValues(game, result).Inc()

	switch {
	case balanceDelta > 0:
		balanceDeltaTotal.WithLabelValues("won").Add(float64(balanceDelta))
	case balanceDelta < 0:
		balanceDeltaTotal.WithLabelValues("lost").Add(float64(-balanceDelta))
	}
}

// SessionCollector periodically counts live sessions per state.
type SessionCollector struct {
	store    session.Store
	interval time.Duration
}

// NewSessionCollector builds a collector bound to the provided session store.
func NewSessionCollector(store session.Store, interval time.Duration) *SessionCollector {
	return &SessionCollector{store: store, interval: interval}
}

// Run polls the store every interval, updating gauges until ctx is cancelled.
func (c *SessionCollector) Run(ctx context.Context) {
	if c == nil || c.store == nil || c.interval <= 0 {
		return
	}

	for {
		if err := c.collect(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("Failed to collect session metrics")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *SessionCollector) collect(ctx context.Context) error {
	sessions, err := c.store.All(ctx)
	if err != nil {
		return err
	}

	counts := make(map[session.State]int, len(trackedStates))
	for _, s := range sessions {
		counts[s.State]++
	}

	for _, state := range trackedStates {
		sessionsByState.WithLabelValues(string(state)).Set(float64(counts[state]))
	}
	return nil
}

// Server serves the Prometheus registry over HTTP.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server listening on addr at /metrics.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background. Listen errors are logged.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("Metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the HTTP handler serving /metrics.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
