// Package telemetry constructs the process-wide structured logger and
// Prometheus metric set, and adapts them to a schedule.Observer so the
// Scheduler remains the diagnostics sink's sole writer (the
// single-writer replacement for the source's module-level diagnostics
// singleton).
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/xlandscape/catchflow/internal/catchment"
	"github.com/xlandscape/catchflow/internal/schedule"
	"github.com/xlandscape/catchflow/internal/trace"
)

// NewLogger returns a development zap.Logger when debug is set and a
// production one otherwise, or a no-op logger if construction fails
// (never returns nil).
func NewLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Metrics is the scheduler's Prometheus metric set: queue depth proxies
// (dispatch counters), completion/failure counters, and duration
// histograms, registered on a dedicated registry so a caller can expose
// or discard it freely.
type Metrics struct {
	Registry    *prometheus.Registry
	Dispatched  *prometheus.CounterVec
	Completions *prometheus.CounterVec
	Failures    prometheus.Counter
	Duration    *prometheus.HistogramVec
}

// NewMetrics registers and returns a fresh Metrics set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catchflow_commands_dispatched_total",
			Help: "Number of commands dispatched, by action.",
		}, []string{"action"}),
		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catchflow_reach_completions_total",
			Help: "Number of reach reports received, by action and status.",
		}, []string{"action", "status"}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catchflow_reach_failures_total",
			Help: "Number of reach reports with error status.",
		}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "catchflow_action_duration_seconds",
			Help: "Wall-clock duration of a dispatched action.",
		}, []string{"action"}),
	}
	reg.MustRegister(m.Dispatched, m.Completions, m.Failures, m.Duration)
	return m
}

// Observer adapts a *zap.Logger, *Metrics, and an optional trace.Sink to
// schedule.Observer. Trace, if set, receives one ReachEvent per
// terminal report, building the run's canonical, worker-count-independent
// trace alongside the logger and metrics side effects.
type Observer struct {
	Logger  *zap.Logger
	Metrics *Metrics
	Trace   trace.Sink
}

var _ schedule.Observer = (*Observer)(nil)

func (o *Observer) OnDispatch(action catchment.Action, reachID catchment.ReachID) {
	if o.Metrics != nil {
		o.Metrics.Dispatched.WithLabelValues(string(action)).Inc()
	}
	if o.Logger != nil {
		o.Logger.Debug("dispatch", zap.String("action", string(action)), zap.String("reachID", string(reachID)))
	}
}

func (o *Observer) OnReport(rep schedule.ReachReport) {
	statusName := statusString(rep.Status)
	if o.Metrics != nil {
		o.Metrics.Completions.WithLabelValues(string(rep.Action), statusName).Inc()
		o.Metrics.Duration.WithLabelValues(string(rep.Action)).Observe(rep.EndTime.Sub(rep.StartTime).Seconds())
		if rep.Status == catchment.StatusError {
			o.Metrics.Failures.Inc()
		}
	}
	if o.Logger != nil {
		fields := []zap.Field{
			zap.String("reachID", string(rep.ReachID)),
			zap.String("action", string(rep.Action)),
			zap.String("status", statusName),
			zap.Int("workerID", rep.WorkerID),
		}
		if rep.Err != nil {
			fields = append(fields, zap.Error(rep.Err))
			o.Logger.Warn("reach report", fields...)
			return
		}
		o.Logger.Info("reach report", fields...)
	}

	if o.Trace != nil {
		trace.SafeRecord(o.Trace, traceEvent(rep))
	}
}

func traceEvent(rep schedule.ReachReport) trace.ReachEvent {
	reachID := string(rep.ReachID)
	if rep.Status == catchment.StatusError {
		reason := ""
		if rep.Err != nil {
			reason = rep.Err.Error()
		}
		return trace.ReachEvent{Kind: trace.EventReachFailed, ReachID: reachID, Reason: reason}
	}
	switch rep.Action {
	case catchment.ActionInit:
		return trace.ReachEvent{Kind: trace.EventReachInitialized, ReachID: reachID, Reason: statusString(rep.Status)}
	case catchment.ActionCleanup:
		return trace.ReachEvent{Kind: trace.EventReachCleaned, ReachID: reachID, Reason: statusString(rep.Status)}
	default:
		if rep.Status == catchment.StatusSkipReach || rep.Status == catchment.StatusSkipExist {
			return trace.ReachEvent{Kind: trace.EventReachSkipped, ReachID: reachID, Reason: statusString(rep.Status)}
		}
		return trace.ReachEvent{Kind: trace.EventReachCompleted, ReachID: reachID, Reason: statusString(rep.Status)}
	}
}

func statusString(s catchment.ReportStatus) string {
	switch s {
	case catchment.StatusOk:
		return "ok"
	case catchment.StatusSkipReach:
		return "skip_reach"
	case catchment.StatusSkipExist:
		return "skip_exist"
	case catchment.StatusError:
		return "error"
	default:
		return "unknown"
	}
}
