package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/internal/metrics"
	"github.com/videokit/bgremove/internal/segmenter"
	"github.com/videokit/bgremove/pkg/models"
)

// ProcessedFramesDirName is the per-job subdirectory holding segmented
// frames.
const ProcessedFramesDirName = "processed_frames"

// processedFramePattern mirrors the raw-frame naming scheme so the
// ordinal stays visible in both directories.
const processedFramePattern = "processed_frame_%06d.png"

// FrameProcessor applies background removal to every frame of a job,
// strictly in ordinal order.
type FrameProcessor struct {
	segmenter segmenter.Segmenter
	logger    *logging.Logger
	progress  func(done, total int)
}

// NewFrameProcessor creates a processor bound to one segmentation session.
func NewFrameProcessor(seg segmenter.Segmenter, logger *logging.Logger) *FrameProcessor {
	return &FrameProcessor{
		segmenter: seg,
		logger:    logger,
	}
}

// ProcessAll segments every frame into destDir/processed_frames. The
// result sequence parallels the input: result[i] derives from frames[i]
// for every i. The first segmentation failure aborts the remaining work
// for this job; a video with one bad frame must not silently produce a
// shorter or shuffled output.
//
// Cancellation is cooperative: the context is consulted before each
// frame begins, never mid-frame.
func (fp *FrameProcessor) ProcessAll(ctx context.Context, frames []models.FrameRecord, destDir string) ([]models.FrameRecord, error) {
	processedDir := filepath.Join(destDir, ProcessedFramesDirName)
	if err := os.MkdirAll(processedDir, 0755); err != nil {
		return nil, fmt.Errorf("create processed frames dir: %w", err)
	}

	fp.logger.Infof("Removing background from %d frames (model: %s)", len(frames), fp.segmenter.Model())

	processed := make([]models.FrameRecord, 0, len(frames))
	for i, fr := range frames {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled before frame %d: %w", fr.Index, err)
		}

		dstPath := filepath.Join(processedDir, fmt.Sprintf(processedFramePattern, fr.Index))

		start := time.Now()
		if err := fp.segmenter.Segment(ctx, fr.Path, dstPath); err != nil {
			return nil, err
		}
		metrics.SegmentationDuration.Observe(time.Since(start).Seconds())
		metrics.FramesSegmentedTotal.Inc()

		processed = append(processed, models.FrameRecord{
			Index: fr.Index,
			Path:  dstPath,
			State: models.FrameStateSegmented,
		})

		fp.logger.Debugf("Frame %d/%d processed", i+1, len(frames))
		if fp.progress != nil {
			fp.progress(i+1, len(frames))
		}
	}

	fp.logger.Infof("Processed %d frames", len(processed))
	return processed, nil
}
