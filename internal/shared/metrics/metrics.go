package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	recordingsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recordings_started_total",
		Help: "Total recording analyses started",
	})
	recordingsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recordings_completed_total",
		Help: "Total recording analyses completed",
	})
	recordingsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recordings_failed_total",
		Help: "Total recording analyses failed",
	})
	wordsAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "words_analyzed_total",
		Help: "Total transcript words consumed against word quotas",
	})
	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recording_pipeline_duration_ms",
		Help:    "Recording pipeline duration in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000},
	})
	jobsReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recording_jobs_received_total",
		Help: "Total recording jobs received from the queue",
	})
	jobsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recording_jobs_completed_total",
		Help: "Total recording jobs completed and deleted from the queue",
	})
	jobsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recording_jobs_failed_total",
		Help: "Total recording jobs that failed processing",
	})
	jobsDeletedUnrecoverableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recording_jobs_deleted_unrecoverable_total",
		Help: "Total malformed recording jobs deleted without processing",
	})
)

// IncRecordingStarted increments the started counter.
func IncRecordingStarted() {
	recordingsStartedTotal.Inc()
}

// IncRecordingCompleted increments the completed counter.
func IncRecordingCompleted() {
	recordingsCompletedTotal.Inc()
}

// IncRecordingFailed increments the failed counter.
func IncRecordingFailed() {
	recordingsFailedTotal.Inc()
}

// AddWordsAnalyzed records words consumed against a quota.
func AddWordsAnalyzed(n int) {
	if n <= 0 {
		return
	}
	wordsAnalyzedTotal.Add(float64(n))
}

// ObservePipelineDurationMs records a pipeline duration in milliseconds.
func ObservePipelineDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	pipelineDuration.Observe(value)
}

// IncRecordingJobsReceived increments the queue jobs received counter.
func IncRecordingJobsReceived() {
	jobsReceivedTotal.Inc()
}

// IncRecordingJobsCompleted increments the queue jobs completed counter.
func IncRecordingJobsCompleted() {
	jobsCompletedTotal.Inc()
}

// IncRecordingJobsFailed increments the queue jobs failed counter.
func IncRecordingJobsFailed() {
	jobsFailedTotal.Inc()
}

// IncRecordingJobsDeletedUnrecoverable increments the malformed jobs counter.
func IncRecordingJobsDeletedUnrecoverable() {
	jobsDeletedUnrecoverableTotal.Inc()
}

// Handler exposes metrics in Prometheus exposition format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
