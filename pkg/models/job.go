package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VideoJob identifies one input video to process. It is immutable once
// constructed and owned by exactly one pipeline run.
type VideoJob struct {
	ID        string    `json:"id" db:"id"`
	InputPath string    `json:"input_path" db:"input_path"`
	OutputDir string    `json:"output_dir" db:"output_dir"`
	Config    JobConfig `json:"config" db:"config"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// JobConfig holds per-job processing configuration
type JobConfig struct {
	Model      string `json:"model"`
	MaxFrames  int    `json:"max_frames,omitempty"` // 0 means no cap
	CreateWebM bool   `json:"create_webm"`
}

// NewVideoJob creates a job for a single input video. The job's output
// directory is used as-is; callers derive per-video subdirectories before
// constructing the job.
func NewVideoJob(inputPath, outputDir string, cfg JobConfig) *VideoJob {
	return &VideoJob{
		ID:        uuid.New().String(),
		InputPath: inputPath,
		OutputDir: outputDir,
		Config:    cfg,
		CreatedAt: time.Now().UTC(),
	}
}

// Name returns the video's base name without extension, used to label
// results and derive per-video output directories.
func (j *VideoJob) Name() string {
	base := filepath.Base(j.InputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// JobStatus constants
const (
	JobStatusPending    = "pending"
	JobStatusExtracting = "extracting"
	JobStatusSegmenting = "segmenting"
	JobStatusAssembling = "assembling"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ValidModels is the set of segmentation models the external capability
// accepts.
var ValidModels = []string{
	"u2net",
	"u2netp",
	"u2net_human_seg",
	"isnet-general-use",
	"silueta",
}

// ValidateModel checks a model name against the supported set.
func ValidateModel(name string) error {
	for _, m := range ValidModels {
		if m == name {
			return nil
		}
	}
	return fmt.Errorf("unknown model %q (supported: %s)", name, strings.Join(ValidModels, ", "))
}
