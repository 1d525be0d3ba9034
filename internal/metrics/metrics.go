package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Job Metrics
	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgremove_jobs_processed_total",
			Help: "Total number of video jobs processed",
		},
		[]string{"status"},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bgremove_job_duration_seconds",
			Help:    "End-to-end job processing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bgremove_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bgremove_jobs_in_progress",
			Help: "Number of jobs currently being processed",
		},
	)

	// Frame Metrics
	FramesExtractedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bgremove_frames_extracted_total",
			Help: "Total number of frames extracted from source videos",
		},
	)

	FramesSegmentedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bgremove_frames_segmented_total",
			Help: "Total number of frames run through background removal",
		},
	)

	SegmentationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bgremove_segmentation_duration_seconds",
			Help:    "Per-frame segmentation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	// Batch Metrics
	BatchRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bgremove_batch_runs_total",
			Help: "Total number of batch runs",
		},
	)

	BatchVideosTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgremove_batch_videos_total",
			Help: "Videos seen by batch runs, by outcome",
		},
		[]string{"status"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgremove_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// Storage Metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgremove_storage_operations_total",
			Help: "Total number of object storage operations",
		},
		[]string{"operation", "status"},
	)

	// Queue Metrics
	QueueJobsConsumedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bgremove_queue_jobs_consumed_total",
			Help: "Total number of jobs consumed from the queue",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bgremove_queue_depth",
			Help: "Number of jobs waiting in the queue",
		},
	)

	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgremove_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bgremove_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordJobCompleted records a finished job and its duration
func RecordJobCompleted(status string, duration float64) {
	JobsProcessedTotal.WithLabelValues(status).Inc()
	JobDuration.Observe(duration)
}

// RecordStage records one pipeline stage duration
func RecordStage(stage string, duration float64) {
	StageDuration.WithLabelValues(stage).Observe(duration)
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordStorageOperation records an object storage operation
func RecordStorageOperation(operation, status string) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
}
