package services

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/authflow/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	flowRegister      = "register"
	flowLogin         = "login"
	flowPasswordReset = "password_reset"
	flowBiometric     = "biometric"

	outcomeSuccess          = "success"
	outcomeFailure          = "failure"
	outcomeBiometricEnabled = "biometric_enabled"
)

// Metrics provides observability for the auth flows.
// Tracks outcomes per flow and flow durations.
type Metrics struct {
	FlowOutcomes *prometheus.CounterVec
	FlowDuration *prometheus.HistogramVec
}

// NewMetrics registers the flow metrics with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FlowOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "authflow_flow_outcomes_total",
			Help: "Total number of completed auth flows by flow and outcome",
		}, []string{"flow", "outcome"}),
		FlowDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authflow_flow_duration_seconds",
			Help:    "Duration of auth flows from command to emission",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"flow"}),
	}
}

// ObserveFlow records a finished flow. Safe on a nil receiver.
func (m *Metrics) ObserveFlow(flow string, err error, start time.Time) {
	if m == nil {
		return
	}
	m.FlowOutcomes.WithLabelValues(flow, outcome(err)).Inc()
	m.FlowDuration.WithLabelValues(flow).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, common.ErrBiometricEnabled):
		return outcomeBiometricEnabled
	default:
		return outcomeFailure
	}
}
