// Package segmenter invokes the external image-segmentation capability:
// a byte-in/byte-out transform that returns the input image with an alpha
// channel marking the foreground.
package segmenter

import (
	"context"
	"fmt"
)

// Segmenter removes the background from a single frame. Implementations
// hold one pre-warmed model session per instance; session creation is the
// expensive step and is amortized across all frames of a run, and across
// all videos of a batch run that share the same model.
type Segmenter interface {
	// Segment reads the raw image at srcPath, applies the model and
	// writes the alpha-augmented result to dstPath.
	Segment(ctx context.Context, srcPath, dstPath string) error

	// Model returns the model identifier this session was created with.
	Model() string

	Close() error
}

// SegmentationError reports a segmentation failure on a specific frame.
// It is fatal to the job: a missing segmented frame would break ordinal
// continuity downstream, so it always propagates.
type SegmentationError struct {
	FramePath string
	Err       error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("segmentation failed for frame %s: %v", e.FramePath, e.Err)
}

func (e *SegmentationError) Unwrap() error {
	return e.Err
}
