// Package batch discovers video files under a directory, runs each
// through the pipeline with per-file failure isolation, and aggregates a
// reproducible processing report.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/internal/metrics"
	"github.com/videokit/bgremove/pkg/models"
)

// Report artifact names within the batch output directory.
const (
	ReportFileName     = "batch_processing_report.json"
	HTMLReportFileName = "batch_processing_report.html"
)

// VideoPipeline is the per-video operation the runner drives.
type VideoPipeline interface {
	Process(ctx context.Context, job *models.VideoJob) (*models.ProcessingResult, error)
}

// Config holds batch run settings
type Config struct {
	Model      string
	MaxFrames  int
	CreateWebM bool
	Extensions []string
	HTMLReport bool
}

// Runner executes one batch run. The pipeline it wraps holds a single
// segmentation session, shared across every video in the run.
type Runner struct {
	pipeline VideoPipeline
	cfg      Config
	logger   *logging.Logger
}

// NewRunner creates a batch runner.
func NewRunner(pipeline VideoPipeline, cfg Config, logger *logging.Logger) *Runner {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	return &Runner{
		pipeline: pipeline,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run processes every discovered video under inputDir into per-video
// subdirectories of outputDir and writes the batch report. A failing
// video is recorded and does not abort the batch; only a configuration
// error discovered before any file is processed returns an error.
func (r *Runner) Run(ctx context.Context, inputDir, outputDir string) (*models.BatchReport, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("invalid input directory %s", inputDir)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	files, err := Discover(inputDir, r.cfg.Extensions)
	if err != nil {
		return nil, err
	}

	r.logger.Infof("Found %d video files", len(files))

	report := models.NewBatchReport(r.cfg.Model, r.cfg.MaxFrames)
	metrics.BatchRunsTotal.Inc()

	if len(files) == 0 {
		r.logger.Warn("No video files found")
		if err := r.writeReports(outputDir, report); err != nil {
			return report, err
		}
		return report, nil
	}

	start := time.Now()

	for i, path := range files {
		if ctx.Err() != nil {
			r.logger.Warnf("Batch cancelled after %d of %d videos", i, len(files))
			break
		}

		r.logger.Infof("Progress: %d/%d", i+1, len(files))

		job := models.NewVideoJob(path, "", models.JobConfig{
			Model:      r.cfg.Model,
			MaxFrames:  r.cfg.MaxFrames,
			CreateWebM: r.cfg.CreateWebM,
		})
		job.OutputDir = filepath.Join(outputDir, job.Name())

		result, err := r.pipeline.Process(ctx, job)
		if err != nil {
			// The failure is already captured in the result; the batch
			// carries on with the next file.
			r.logger.WithVideo(job.Name()).ErrorWithErr("Video failed", err)
		}
		report.Append(*result)
		metrics.BatchVideosTotal.WithLabelValues(result.Status).Inc()
	}

	report.Statistics.TotalProcessingTime = time.Since(start).Seconds()

	r.logger.Infof("Batch complete: %d total, %d succeeded, %d failed (%.2fs)",
		report.Statistics.TotalFiles,
		report.Statistics.Successful,
		report.Statistics.Failed,
		report.Statistics.TotalProcessingTime)

	if err := r.writeReports(outputDir, report); err != nil {
		return report, err
	}

	return report, nil
}

func (r *Runner) writeReports(outputDir string, report *models.BatchReport) error {
	if err := WriteReport(filepath.Join(outputDir, ReportFileName), report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	r.logger.Infof("Report saved: %s", filepath.Join(outputDir, ReportFileName))

	if r.cfg.HTMLReport {
		htmlPath := filepath.Join(outputDir, HTMLReportFileName)
		if err := WriteHTMLReport(htmlPath, report); err != nil {
			return fmt.Errorf("write html report: %w", err)
		}
		r.logger.Infof("HTML report saved: %s", htmlPath)
	}
	return nil
}

// WriteReport serializes the report as indented JSON.
func WriteReport(path string, report *models.BatchReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
