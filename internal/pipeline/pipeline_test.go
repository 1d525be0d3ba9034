package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/internal/segmenter"
	"github.com/videokit/bgremove/pkg/models"
)

// fakeExtractor returns canned frames, or an error.
type fakeExtractor struct {
	meta   models.VideoMetadata
	frames []models.FrameRecord
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, inputPath, destDir string, maxFrames int) (models.VideoMetadata, []models.FrameRecord, error) {
	return f.meta, f.frames, f.err
}

// fakeSegmenter records the source frames it sees in call order and can
// be told to fail at a given ordinal.
type fakeSegmenter struct {
	failAtIndex int // -1 means never fail
	srcCalls    []string
}

func (f *fakeSegmenter) Segment(ctx context.Context, srcPath, dstPath string) error {
	if f.failAtIndex >= 0 && len(f.srcCalls) == f.failAtIndex {
		return &segmenter.SegmentationError{FramePath: srcPath, Err: errors.New("model exploded")}
	}
	f.srcCalls = append(f.srcCalls, srcPath)
	return os.WriteFile(dstPath, []byte("alpha"), 0644)
}

func (f *fakeSegmenter) Model() string { return "u2net" }
func (f *fakeSegmenter) Close() error  { return nil }

// fakeAssembler records what it was asked to mux.
type fakeAssembler struct {
	assembleErr error
	webmErr     error

	gotFrames  []models.FrameRecord
	webmCalled bool
}

func (f *fakeAssembler) Assemble(ctx context.Context, frames []models.FrameRecord, outputPath string, meta models.VideoMetadata) error {
	f.gotFrames = frames
	return f.assembleErr
}

func (f *fakeAssembler) ExportWebM(ctx context.Context, frames []models.FrameRecord, outputPath string, frameRate float64) error {
	f.webmCalled = true
	return f.webmErr
}

func makeRawFrames(t *testing.T, dir string, n int) []models.FrameRecord {
	t.Helper()
	framesDir := filepath.Join(dir, "frames")
	require.NoError(t, os.MkdirAll(framesDir, 0755))

	frames := make([]models.FrameRecord, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(framesDir, fmt.Sprintf("frame_%06d.png", i))
		require.NoError(t, os.WriteFile(path, []byte("raw"), 0644))
		frames[i] = models.FrameRecord{Index: i, Path: path, State: models.FrameStateRaw}
	}
	return frames
}

func newTestPipeline(ext FrameExtractor, seg segmenter.Segmenter, asm VideoAssembler) *Pipeline {
	return New(ext, seg, asm, logging.Nop())
}

func TestProcessSuccess(t *testing.T) {
	dir := t.TempDir()
	frames := makeRawFrames(t, dir, 3)

	ext := &fakeExtractor{
		meta:   models.VideoMetadata{FrameRate: 10, Width: 64, Height: 48, FrameCount: 3},
		frames: frames,
	}
	seg := &fakeSegmenter{failAtIndex: -1}
	asm := &fakeAssembler{}

	job := models.NewVideoJob("/in/demo.mp4", dir, models.JobConfig{Model: "u2net", CreateWebM: true})
	p := newTestPipeline(ext, seg, asm)

	result, err := p.Process(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, models.ResultStatusSuccess, result.Status)
	assert.Equal(t, 3, result.FrameCount)
	assert.Equal(t, float64(10), result.FPS)
	assert.Equal(t, [2]int{64, 48}, result.Resolution)
	assert.Equal(t, filepath.Join(dir, "output_transparent.mp4"), result.OutputMP4)
	assert.Equal(t, filepath.Join(dir, "output_transparent.webm"), result.OutputWebM)
	assert.True(t, result.ProcessingTime >= 0)
	assert.True(t, asm.webmCalled)

	// Segmented outputs exist and follow the ordinal naming scheme.
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, ProcessedFramesDirName, fmt.Sprintf("processed_frame_%06d.png", i))
		_, err := os.Stat(path)
		assert.NoError(t, err, "missing processed frame %d", i)
	}
}

func TestProcessPreservesOrdinalOrder(t *testing.T) {
	dir := t.TempDir()
	frames := makeRawFrames(t, dir, 5)

	ext := &fakeExtractor{meta: models.VideoMetadata{FrameRate: 24, Width: 8, Height: 8, FrameCount: 5}, frames: frames}
	seg := &fakeSegmenter{failAtIndex: -1}
	asm := &fakeAssembler{}

	job := models.NewVideoJob("/in/a.mp4", dir, models.JobConfig{Model: "u2net"})
	_, err := newTestPipeline(ext, seg, asm).Process(context.Background(), job)
	require.NoError(t, err)

	// The segmenter saw raw frames in exactly ordinal order.
	require.Len(t, seg.srcCalls, 5)
	for i, src := range seg.srcCalls {
		assert.Equal(t, frames[i].Path, src)
	}

	// The assembler received a parallel sequence: result[i] derives from
	// raw[i] for all i.
	require.Len(t, asm.gotFrames, 5)
	for i, fr := range asm.gotFrames {
		assert.Equal(t, i, fr.Index)
		assert.Equal(t, models.FrameStateSegmented, fr.State)
		assert.Contains(t, fr.Path, fmt.Sprintf("processed_frame_%06d.png", i))
	}
}

func TestProcessFailFastOnSegmentation(t *testing.T) {
	dir := t.TempDir()
	frames := makeRawFrames(t, dir, 4)

	ext := &fakeExtractor{meta: models.VideoMetadata{FrameRate: 10, Width: 8, Height: 8, FrameCount: 4}, frames: frames}
	seg := &fakeSegmenter{failAtIndex: 1}
	asm := &fakeAssembler{}

	job := models.NewVideoJob("/in/a.mp4", dir, models.JobConfig{Model: "u2net"})
	result, err := newTestPipeline(ext, seg, asm).Process(context.Background(), job)

	require.Error(t, err)
	var segErr *segmenter.SegmentationError
	require.True(t, errors.As(err, &segErr))
	assert.Equal(t, frames[1].Path, segErr.FramePath)

	assert.Equal(t, models.ResultStatusFailed, result.Status)
	assert.Contains(t, result.Error, "segmentation failed")

	// No frame past the failure point was produced.
	for i := 1; i < 4; i++ {
		path := filepath.Join(dir, ProcessedFramesDirName, fmt.Sprintf("processed_frame_%06d.png", i))
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "frame %d should not exist", i)
	}

	// The assembler never ran.
	assert.Nil(t, asm.gotFrames)
}

func TestProcessZeroFramesFails(t *testing.T) {
	dir := t.TempDir()

	ext := &fakeExtractor{meta: models.VideoMetadata{}, frames: nil}
	job := models.NewVideoJob("/in/empty.mp4", dir, models.JobConfig{Model: "u2net"})

	result, err := newTestPipeline(ext, &fakeSegmenter{failAtIndex: -1}, &fakeAssembler{}).Process(context.Background(), job)

	require.Error(t, err)
	assert.Equal(t, models.ResultStatusFailed, result.Status)
	assert.Equal(t, "no frames extracted", result.Error)
}

func TestProcessExtractionErrorFails(t *testing.T) {
	dir := t.TempDir()

	openErr := errors.New("unsupported codec")
	ext := &fakeExtractor{err: openErr}
	job := models.NewVideoJob("/in/corrupt.mp4", dir, models.JobConfig{Model: "u2net"})

	result, err := newTestPipeline(ext, &fakeSegmenter{failAtIndex: -1}, &fakeAssembler{}).Process(context.Background(), job)

	require.ErrorIs(t, err, openErr)
	assert.Equal(t, models.ResultStatusFailed, result.Status)
	assert.True(t, result.ProcessingTime >= 0)
}

func TestProcessAssemblyErrorFails(t *testing.T) {
	dir := t.TempDir()
	frames := makeRawFrames(t, dir, 2)

	ext := &fakeExtractor{meta: models.VideoMetadata{FrameRate: 10, Width: 8, Height: 8, FrameCount: 2}, frames: frames}
	asm := &fakeAssembler{assembleErr: errors.New("writer could not be opened")}

	job := models.NewVideoJob("/in/a.mp4", dir, models.JobConfig{Model: "u2net", CreateWebM: true})
	result, err := newTestPipeline(ext, &fakeSegmenter{failAtIndex: -1}, asm).Process(context.Background(), job)

	require.Error(t, err)
	assert.Equal(t, models.ResultStatusFailed, result.Status)
	// The webm export never runs when the opaque output failed.
	assert.False(t, asm.webmCalled)
}

func TestProcessWebMFailureStillSucceeds(t *testing.T) {
	dir := t.TempDir()
	frames := makeRawFrames(t, dir, 2)

	ext := &fakeExtractor{meta: models.VideoMetadata{FrameRate: 10, Width: 8, Height: 8, FrameCount: 2}, frames: frames}
	asm := &fakeAssembler{webmErr: errors.New("vp9 encoder missing")}

	job := models.NewVideoJob("/in/a.mp4", dir, models.JobConfig{Model: "u2net", CreateWebM: true})
	result, err := newTestPipeline(ext, &fakeSegmenter{failAtIndex: -1}, asm).Process(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, models.ResultStatusSuccess, result.Status)
	assert.NotEmpty(t, result.OutputMP4)
	assert.Empty(t, result.OutputWebM, "webm must be reported absent")
}

func TestProcessWebMDisabled(t *testing.T) {
	dir := t.TempDir()
	frames := makeRawFrames(t, dir, 1)

	ext := &fakeExtractor{meta: models.VideoMetadata{FrameRate: 10, Width: 8, Height: 8, FrameCount: 1}, frames: frames}
	asm := &fakeAssembler{}

	job := models.NewVideoJob("/in/a.mp4", dir, models.JobConfig{Model: "u2net", CreateWebM: false})
	result, err := newTestPipeline(ext, &fakeSegmenter{failAtIndex: -1}, asm).Process(context.Background(), job)

	require.NoError(t, err)
	assert.False(t, asm.webmCalled)
	assert.Empty(t, result.OutputWebM)
}

func TestProcessStageAndProgressHooks(t *testing.T) {
	dir := t.TempDir()
	frames := makeRawFrames(t, dir, 2)

	ext := &fakeExtractor{meta: models.VideoMetadata{FrameRate: 10, Width: 8, Height: 8, FrameCount: 2}, frames: frames}
	p := newTestPipeline(ext, &fakeSegmenter{failAtIndex: -1}, &fakeAssembler{})

	var stages []string
	p.OnStageChange(func(jobID, stage string) {
		stages = append(stages, stage)
	})
	var progress []int
	p.OnFrameProgress(func(done, total int) {
		progress = append(progress, done)
		assert.Equal(t, 2, total)
	})

	job := models.NewVideoJob("/in/a.mp4", dir, models.JobConfig{Model: "u2net"})
	_, err := p.Process(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, []string{
		models.JobStatusExtracting,
		models.JobStatusSegmenting,
		models.JobStatusAssembling,
	}, stages)
	assert.Equal(t, []int{1, 2}, progress)
}

func TestProcessAllCancelledBetweenFrames(t *testing.T) {
	dir := t.TempDir()
	frames := makeRawFrames(t, dir, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fp := NewFrameProcessor(&fakeSegmenter{failAtIndex: -1}, logging.Nop())
	_, err := fp.ProcessAll(ctx, frames, dir)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Contains(t, err.Error(), "cancelled before frame 0")
}

func TestProcessAllEmptyInput(t *testing.T) {
	dir := t.TempDir()

	fp := NewFrameProcessor(&fakeSegmenter{failAtIndex: -1}, logging.Nop())
	processed, err := fp.ProcessAll(context.Background(), nil, dir)

	require.NoError(t, err)
	assert.Empty(t, processed)
}
