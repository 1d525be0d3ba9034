// Package pipeline sequences frame extraction, per-frame background
// removal and video assembly into one per-video operation, producing a
// structured result or failure record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/internal/metrics"
	"github.com/videokit/bgremove/internal/segmenter"
	"github.com/videokit/bgremove/internal/tracing"
	"github.com/videokit/bgremove/pkg/models"
)

// Output file names within a job's output directory. Other tooling
// depends on this naming scheme.
const (
	OutputMP4Name  = "output_transparent.mp4"
	OutputWebMName = "output_transparent.webm"
)

// FrameExtractor decodes a source video into per-frame image files.
type FrameExtractor interface {
	Extract(ctx context.Context, inputPath, destDir string, maxFrames int) (models.VideoMetadata, []models.FrameRecord, error)
}

// VideoAssembler turns an ordered sequence of segmented frames into
// output videos.
type VideoAssembler interface {
	Assemble(ctx context.Context, frames []models.FrameRecord, outputPath string, meta models.VideoMetadata) error
	ExportWebM(ctx context.Context, frames []models.FrameRecord, outputPath string, frameRate float64) error
}

// Pipeline runs one video job through the state machine
// Pending -> Extracting -> Segmenting -> Assembling -> Succeeded|Failed.
type Pipeline struct {
	extractor FrameExtractor
	processor *FrameProcessor
	assembler VideoAssembler
	logger    *logging.Logger
	onStage   func(jobID, stage string)
}

// New assembles a pipeline from its stage implementations. The segmenter
// session is created by the caller so one session can be shared across
// every video of a batch run that uses the same model.
func New(extractor FrameExtractor, seg segmenter.Segmenter, assembler VideoAssembler, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		processor: NewFrameProcessor(seg, logger),
		assembler: assembler,
		logger:    logger,
	}
}

// OnStageChange registers a callback invoked at every stage transition.
// Used by the worker to surface job state externally; local CLI runs
// leave it unset.
func (p *Pipeline) OnStageChange(fn func(jobID, stage string)) {
	p.onStage = fn
}

// OnFrameProgress registers a callback invoked after each segmented frame.
func (p *Pipeline) OnFrameProgress(fn func(done, total int)) {
	p.processor.progress = fn
}

func (p *Pipeline) stageChanged(jobID, stage string) {
	if p.onStage != nil {
		p.onStage(jobID, stage)
	}
}

// Process runs the full pipeline for one job. The returned result is
// always non-nil; on failure it carries the originating stage's error and
// the elapsed time up to that point, and the error is returned as well.
//
// Re-running a job with the same output directory overwrites prior
// outputs deterministically.
func (p *Pipeline) Process(ctx context.Context, job *models.VideoJob) (*models.ProcessingResult, error) {
	start := time.Now()
	log := p.logger.WithJobID(job.ID).WithVideo(job.Name())

	metrics.JobsInProgress.Inc()
	defer metrics.JobsInProgress.Dec()

	result := &models.ProcessingResult{
		JobID:      job.ID,
		VideoName:  job.Name(),
		InputVideo: job.InputPath,
		OutputDir:  job.OutputDir,
	}

	fail := func(stage string, err error) (*models.ProcessingResult, error) {
		result.Status = models.ResultStatusFailed
		result.Error = err.Error()
		result.ProcessingTime = time.Since(start).Seconds()
		metrics.RecordJobCompleted(models.ResultStatusFailed, result.ProcessingTime)
		metrics.RecordError("pipeline", stage)
		log.ErrorWithErr(fmt.Sprintf("Job failed during %s", stage), err)
		return result, err
	}

	log.Infof("Processing video: %s", job.InputPath)

	if err := os.MkdirAll(job.OutputDir, 0755); err != nil {
		return fail(models.JobStatusPending, fmt.Errorf("create output dir: %w", err))
	}

	// Extracting
	log.LogStageEvent(job.ID, models.JobStatusExtracting, nil)
	p.stageChanged(job.ID, models.JobStatusExtracting)
	span, sctx := tracing.StartSpan(ctx, "extract_frames")
	stageStart := time.Now()
	meta, frames, err := p.extractor.Extract(sctx, job.InputPath, job.OutputDir, job.Config.MaxFrames)
	tracing.LogError(span, err)
	span.Finish()
	metrics.RecordStage("extract", time.Since(stageStart).Seconds())
	if err != nil {
		return fail(models.JobStatusExtracting, err)
	}
	if len(frames) == 0 {
		return fail(models.JobStatusExtracting, errors.New("no frames extracted"))
	}
	metrics.FramesExtractedTotal.Add(float64(len(frames)))

	// Segmenting
	log.LogStageEvent(job.ID, models.JobStatusSegmenting, map[string]interface{}{"frames": len(frames)})
	p.stageChanged(job.ID, models.JobStatusSegmenting)
	span, sctx = tracing.StartSpan(ctx, "segment_frames")
	tracing.SetTag(span, "model", p.processor.segmenter.Model())
	stageStart = time.Now()
	processed, err := p.processor.ProcessAll(sctx, frames, job.OutputDir)
	tracing.LogError(span, err)
	span.Finish()
	metrics.RecordStage("segment", time.Since(stageStart).Seconds())
	if err != nil {
		return fail(models.JobStatusSegmenting, err)
	}

	// Assembling
	log.LogStageEvent(job.ID, models.JobStatusAssembling, nil)
	p.stageChanged(job.ID, models.JobStatusAssembling)
	outputMP4 := filepath.Join(job.OutputDir, OutputMP4Name)
	span, sctx = tracing.StartSpan(ctx, "assemble_video")
	stageStart = time.Now()
	err = p.assembler.Assemble(sctx, processed, outputMP4, meta)
	tracing.LogError(span, err)
	span.Finish()
	metrics.RecordStage("assemble", time.Since(stageStart).Seconds())
	if err != nil {
		return fail(models.JobStatusAssembling, err)
	}

	// The alpha-true export is best-effort: a failure is logged and the
	// webm reported absent, but the job still succeeds.
	outputWebM := ""
	if job.Config.CreateWebM {
		webmPath := filepath.Join(job.OutputDir, OutputWebMName)
		if err := p.assembler.ExportWebM(ctx, processed, webmPath, meta.FrameRate); err != nil {
			log.Warnf("WebM export failed: %v", err)
			metrics.RecordError("pipeline", "webm_export")
		} else {
			outputWebM = webmPath
		}
	}

	result.Status = models.ResultStatusSuccess
	result.ProcessingTime = time.Since(start).Seconds()
	result.FrameCount = meta.FrameCount
	result.FPS = meta.FrameRate
	result.Resolution = [2]int{meta.Width, meta.Height}
	result.OutputMP4 = outputMP4
	result.OutputWebM = outputWebM
	result.FramesDir = filepath.Join(job.OutputDir, "frames")
	result.ProcessedFramesDir = filepath.Join(job.OutputDir, ProcessedFramesDirName)

	metrics.RecordJobCompleted(models.ResultStatusSuccess, result.ProcessingTime)
	log.Infof("Video processed in %.2fs (%d frames)", result.ProcessingTime, result.FrameCount)

	return result, nil
}
