// Package assembler turns an ordered sequence of alpha-channel frames
// into output videos: an opaque MP4 with the alpha flattened against
// white, and optionally a WebM that preserves transparency natively.
package assembler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/pkg/models"
)

// AssemblyError reports that the opaque video could not be produced.
// Fatal to the job.
type AssemblyError struct {
	Path string
	Err  error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("cannot assemble video %s: %v", e.Path, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// FFmpegAssembler muxes frames into video containers via ffmpeg.
type FFmpegAssembler struct {
	ffmpegPath string
	logger     *logging.Logger
}

// NewFFmpegAssembler creates an assembler using the given ffmpeg binary.
func NewFFmpegAssembler(ffmpegPath string, logger *logging.Logger) *FFmpegAssembler {
	return &FFmpegAssembler{
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

// Assemble flattens every frame against a white backdrop and muxes the
// result to outputPath in strictly increasing ordinal order. Frames whose
// stored size does not match the declared resolution are resized to fit.
func (a *FFmpegAssembler) Assemble(ctx context.Context, frames []models.FrameRecord, outputPath string, meta models.VideoMetadata) error {
	if len(frames) == 0 {
		return &AssemblyError{Path: outputPath, Err: fmt.Errorf("no frames to assemble")}
	}

	a.logger.Infof("Creating video: %s", outputPath)

	flatDir, err := os.MkdirTemp(filepath.Dir(outputPath), "flat_frames_")
	if err != nil {
		return &AssemblyError{Path: outputPath, Err: fmt.Errorf("create staging dir: %w", err)}
	}
	defer os.RemoveAll(flatDir)

	written := 0
	for _, fr := range frames {
		if err := ctx.Err(); err != nil {
			return &AssemblyError{Path: outputPath, Err: err}
		}

		img, err := readPNG(fr.Path)
		if err != nil {
			a.logger.Warnf("Cannot read frame %s: %v", fr.Path, err)
			continue
		}

		flat := FlattenToWhite(img)
		if b := flat.Bounds(); b.Dx() != meta.Width || b.Dy() != meta.Height {
			a.logger.Warnf("Frame %d is %dx%d, resizing to %dx%d",
				fr.Index, b.Dx(), b.Dy(), meta.Width, meta.Height)
			flat = Resize(flat, meta.Width, meta.Height)
		}

		name := filepath.Join(flatDir, fmt.Sprintf("frame_%06d.png", written))
		if err := writePNG(name, flat); err != nil {
			return &AssemblyError{Path: outputPath, Err: fmt.Errorf("stage frame %d: %w", fr.Index, err)}
		}
		written++
	}

	if written == 0 {
		return &AssemblyError{Path: outputPath, Err: fmt.Errorf("no readable frames")}
	}

	args := []string{
		"-y",
		"-framerate", fmt.Sprintf("%g", meta.FrameRate),
		"-start_number", "0",
		"-i", filepath.Join(flatDir, "frame_%06d.png"),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		outputPath,
	}

	if err := a.runFFmpeg(ctx, args); err != nil {
		return &AssemblyError{Path: outputPath, Err: err}
	}

	a.logger.Info("Video created")
	return nil
}

// ExportWebM transcodes the original alpha-channel frame files (not the
// flattened ones) into a VP9 WebM that preserves transparency. Callers
// treat a failure here as a warning, not a job failure.
func (a *FFmpegAssembler) ExportWebM(ctx context.Context, frames []models.FrameRecord, outputPath string, frameRate float64) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to export")
	}

	a.logger.Infof("Creating alpha WebM: %s", outputPath)

	pattern := filepath.Join(filepath.Dir(frames[0].Path), "processed_frame_%06d.png")
	args := []string{
		"-y",
		"-framerate", fmt.Sprintf("%g", frameRate),
		"-start_number", "0",
		"-i", pattern,
		"-c:v", "libvpx-vp9",
		"-pix_fmt", "yuva420p",
		outputPath,
	}

	return a.runFFmpeg(ctx, args)
}

func (a *FFmpegAssembler) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, a.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderr.String())
	}
	return nil
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
