package segmenter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// CLISegmenter shells out to the rembg binary per frame. Unlike the HTTP
// daemon, each invocation loads the model session, so it is only suitable
// for short clips or environments without the daemon.
type CLISegmenter struct {
	binaryPath string
	model      string
}

// NewCLISegmenter creates a segmenter backed by the rembg binary.
func NewCLISegmenter(binaryPath, model string) *CLISegmenter {
	return &CLISegmenter{
		binaryPath: binaryPath,
		model:      model,
	}
}

// Segment runs `rembg i -m <model> src dst`.
func (s *CLISegmenter) Segment(ctx context.Context, srcPath, dstPath string) error {
	cmd := exec.CommandContext(ctx, s.binaryPath, "i", "-m", s.model, srcPath, dstPath)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &SegmentationError{
			FramePath: srcPath,
			Err:       fmt.Errorf("rembg failed: %w, stderr: %s", err, stderr.String()),
		}
	}

	// rembg exits 0 on some failures; the output file is the contract.
	info, err := os.Stat(dstPath)
	if err != nil {
		return &SegmentationError{FramePath: srcPath, Err: fmt.Errorf("no output produced: %w", err)}
	}
	if info.Size() == 0 {
		return &SegmentationError{FramePath: srcPath, Err: fmt.Errorf("empty output produced")}
	}

	return nil
}

// Model returns the model identifier.
func (s *CLISegmenter) Model() string {
	return s.model
}

// Close is a no-op.
func (s *CLISegmenter) Close() error {
	return nil
}
