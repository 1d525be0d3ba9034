package models

import (
	"time"
)

// Result status constants
const (
	ResultStatusSuccess = "success"
	ResultStatusFailed  = "failed"
)

// ProcessingResult is the outcome of one video job. It is created once at
// the end of a pipeline run and appended, never mutated, into a BatchReport.
type ProcessingResult struct {
	JobID          string  `json:"job_id,omitempty" db:"job_id"`
	VideoName      string  `json:"video_name" db:"video_name"`
	InputVideo     string  `json:"input_video" db:"input_video"`
	OutputDir      string  `json:"output_dir" db:"output_dir"`
	Status         string  `json:"status" db:"status"`
	ProcessingTime float64 `json:"processing_time" db:"processing_time"` // seconds
	Error          string  `json:"error,omitempty" db:"error_msg"`

	// Populated on success only.
	FrameCount int     `json:"frame_count,omitempty" db:"frame_count"`
	FPS        float64 `json:"fps,omitempty" db:"fps"`
	Resolution [2]int  `json:"resolution,omitempty" db:"-"`
	OutputMP4  string  `json:"output_mp4,omitempty" db:"output_mp4"`
	OutputWebM string  `json:"output_webm,omitempty" db:"output_webm"`
	FramesDir  string  `json:"frames_dir,omitempty" db:"-"`
	ProcessedFramesDir string `json:"processed_frames_dir,omitempty" db:"-"`
}

// Succeeded reports whether the job completed.
func (r ProcessingResult) Succeeded() bool {
	return r.Status == ResultStatusSuccess
}

// BatchStatistics aggregates one batch run
type BatchStatistics struct {
	TotalFiles          int     `json:"total_files"`
	Successful          int     `json:"successful"`
	Failed              int     `json:"failed"`
	TotalProcessingTime float64 `json:"total_processing_time"` // seconds
}

// BatchReport is the externally visible contract of a batch run: built
// incrementally as jobs complete, serialized once at the end.
type BatchReport struct {
	Timestamp string             `json:"timestamp"`
	ModelName string             `json:"model_name"`
	MaxFrames int                `json:"max_frames"`
	Statistics BatchStatistics   `json:"statistics"`
	Results   []ProcessingResult `json:"results"`
}

// NewBatchReport creates an empty report stamped with the current time.
func NewBatchReport(modelName string, maxFrames int) *BatchReport {
	return &BatchReport{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		ModelName: modelName,
		MaxFrames: maxFrames,
		Results:   []ProcessingResult{},
	}
}

// Append records one finished job in the report and updates the aggregate
// counters.
func (b *BatchReport) Append(r ProcessingResult) {
	b.Results = append(b.Results, r)
	b.Statistics.TotalFiles++
	if r.Succeeded() {
		b.Statistics.Successful++
	} else {
		b.Statistics.Failed++
	}
}
