package services

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/metricsx"
	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline stages reported in PipelineError.
const (
	StageSummarize  = "summarize"
	StageSynthesize = "synthesize"
	StagePersist    = "persist"
)

// PipelineError reports the failed stage of a diary creation. It matches
// both common.ErrPipelineFailure and the underlying cause.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("diary pipeline %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() []error {
	return []error{common.ErrPipelineFailure, e.Err}
}

// PipelineMetrics counts pipeline runs by outcome. A nil *PipelineMetrics
// records nothing.
type PipelineMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewPipelineMetrics(reg prometheus.Registerer) (*PipelineMetrics, error) {
	runs, err := metricsx.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gophdiary",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Diary pipeline runs by result (ok or failed stage)",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}
	duration, err := metricsx.Register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gophdiary",
		Subsystem: "pipeline",
		Name:      "duration_seconds",
		Help:      "Latency of diary pipeline runs",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}
	return &PipelineMetrics{runs: runs, duration: duration}, nil
}

func (m *PipelineMetrics) observe(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.WithLabelValues(result).Observe(d.Seconds())
}
