package assembler

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/pkg/models"
)

func TestAssembleNoFrames(t *testing.T) {
	a := NewFFmpegAssembler("ffmpeg", logging.Nop())

	err := a.Assemble(context.Background(), nil, "/tmp/out.mp4", models.VideoMetadata{})

	var asmErr *AssemblyError
	require.True(t, errors.As(err, &asmErr))
	assert.Contains(t, asmErr.Err.Error(), "no frames")
}

func TestAssembleNoReadableFrames(t *testing.T) {
	dir := t.TempDir()
	frames := []models.FrameRecord{
		{Index: 0, Path: filepath.Join(dir, "missing_000000.png"), State: models.FrameStateSegmented},
	}

	a := NewFFmpegAssembler("ffmpeg", logging.Nop())
	err := a.Assemble(context.Background(), frames, filepath.Join(dir, "out.mp4"), models.VideoMetadata{Width: 4, Height: 4, FrameRate: 10})

	var asmErr *AssemblyError
	require.True(t, errors.As(err, &asmErr))
	assert.Contains(t, asmErr.Err.Error(), "no readable frames")
}

func TestAssembleFFmpegFailureIsAssemblyError(t *testing.T) {
	dir := t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 9, A: 255})
	framePath := filepath.Join(dir, "processed_frame_000000.png")
	require.NoError(t, writePNG(framePath, img))

	frames := []models.FrameRecord{
		{Index: 0, Path: framePath, State: models.FrameStateSegmented},
	}

	a := NewFFmpegAssembler("/nonexistent/ffmpeg", logging.Nop())
	err := a.Assemble(context.Background(), frames, filepath.Join(dir, "out.mp4"), models.VideoMetadata{Width: 4, Height: 4, FrameRate: 10})

	var asmErr *AssemblyError
	require.True(t, errors.As(err, &asmErr))
}

func TestAssembleCancelledContext(t *testing.T) {
	dir := t.TempDir()
	frames := []models.FrameRecord{
		{Index: 0, Path: filepath.Join(dir, "f.png")},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewFFmpegAssembler("ffmpeg", logging.Nop())
	err := a.Assemble(ctx, frames, filepath.Join(dir, "out.mp4"), models.VideoMetadata{Width: 4, Height: 4})

	var asmErr *AssemblyError
	require.True(t, errors.As(err, &asmErr))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExportWebMNoFrames(t *testing.T) {
	a := NewFFmpegAssembler("ffmpeg", logging.Nop())
	assert.Error(t, a.ExportWebM(context.Background(), nil, "/tmp/out.webm", 10))
}

func TestExportWebMUsesAlphaFramePattern(t *testing.T) {
	// The webm export must point ffmpeg at the alpha-true frame files,
	// not a flattened copy; the pattern is derived from the frame dir.
	dir := t.TempDir()
	frames := []models.FrameRecord{
		{Index: 0, Path: filepath.Join(dir, "processed_frame_000000.png")},
	}

	a := NewFFmpegAssembler("/nonexistent/ffmpeg", logging.Nop())
	err := a.ExportWebM(context.Background(), frames, filepath.Join(dir, "out.webm"), 24)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ffmpeg failed")
}

func TestWritePNGRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", 0))

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 200})
	require.NoError(t, writePNG(path, img))

	decoded, err := readPNG(path)
	require.NoError(t, err)

	got := decoded.(*image.NRGBA).NRGBAAt(0, 1)
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 200}, got)
}
