package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/pkg/models"
)

// FramesDirName is the per-job subdirectory holding raw extracted frames.
const FramesDirName = "frames"

// framePattern names frames by a zero-padded ordinal so that lexical sort
// order equals playback order. Other tooling depends on this scheme.
const framePattern = "frame_%06d.png"

// FFmpeg extracts frames and metadata from video containers by shelling
// out to ffmpeg and ffprobe.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	logger      *logging.Logger
}

// NewFFmpeg creates a new extractor using the given binary paths.
func NewFFmpeg(ffmpegPath, ffprobePath string, logger *logging.Logger) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      logger,
	}
}

// probeOutput holds video metadata extracted from ffprobe
type probeOutput struct {
	Format  formatInfo   `json:"format"`
	Streams []streamInfo `json:"streams"`
}

// formatInfo holds container-level information
type formatInfo struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// streamInfo holds stream information
type streamInfo struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	NbFrames     string `json:"nb_frames"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

// Probe reads video metadata once, before any frames are decoded. It
// returns an *OpenError when the container cannot be inspected or has no
// video stream.
func (f *FFmpeg) Probe(ctx context.Context, inputPath string) (models.VideoMetadata, error) {
	var meta models.VideoMetadata

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return meta, &OpenError{Path: inputPath, Err: fmt.Errorf("ffprobe failed: %w, stderr: %s", err, stderr.String())}
	}

	var probe probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &probe); err != nil {
		return meta, &OpenError{Path: inputPath, Err: fmt.Errorf("failed to parse ffprobe output: %w", err)}
	}

	stream, ok := videoStream(probe.Streams)
	if !ok {
		return meta, &OpenError{Path: inputPath, Err: fmt.Errorf("no video stream in container")}
	}

	meta.Width = stream.Width
	meta.Height = stream.Height
	meta.FrameRate = parseFrameRate(stream.AvgFrameRate)

	if n, err := strconv.Atoi(stream.NbFrames); err == nil {
		meta.FrameCount = n
	} else if duration, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		// Some containers omit nb_frames; estimate from duration.
		meta.FrameCount = int(math.Round(duration * meta.FrameRate))
	}

	return meta, nil
}

// Extract decodes the source video into individually addressable PNG
// frames under destDir/frames. maxFrames of 0 means no cap; a cap larger
// than the container's frame count runs to container end without error.
//
// A mid-stream decode failure does not fail the job: the frames decoded
// up to that point are returned and the reported frame count reflects
// them. Zero decoded frames is an *OpenError.
func (f *FFmpeg) Extract(ctx context.Context, inputPath, destDir string, maxFrames int) (models.VideoMetadata, []models.FrameRecord, error) {
	meta, err := f.Probe(ctx, inputPath)
	if err != nil {
		return meta, nil, err
	}

	f.logger.Infof("Video info: %d frames, %.2f fps, %dx%d",
		meta.FrameCount, meta.FrameRate, meta.Width, meta.Height)

	framesDir := filepath.Join(destDir, FramesDirName)
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return meta, nil, fmt.Errorf("create frames dir: %w", err)
	}

	args := []string{
		"-i", inputPath,
		"-vsync", "0",
		"-start_number", "0",
		"-y",
	}
	if maxFrames > 0 {
		args = append(args, "-frames:v", strconv.Itoa(maxFrames))
	}
	args = append(args, filepath.Join(framesDir, framePattern))

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	frames, err := listFrames(framesDir)
	if err != nil {
		return meta, nil, fmt.Errorf("list frames: %w", err)
	}

	if runErr != nil {
		if len(frames) == 0 {
			return meta, nil, &OpenError{Path: inputPath, Err: fmt.Errorf("ffmpeg failed: %w, stderr: %s", runErr, stderr.String())}
		}
		// Partial extraction: keep what decoded and report it through the
		// frame count instead of failing the job.
		f.logger.Warnf("Decode stopped early after %d frames: %v", len(frames), runErr)
	}

	meta.FrameCount = len(frames)
	if maxFrames > 0 && meta.FrameCount > maxFrames {
		frames = frames[:maxFrames]
		meta.FrameCount = maxFrames
	}

	f.logger.Infof("Extracted %d frames", meta.FrameCount)

	return meta, frames, nil
}

// listFrames returns the extracted frames in ordinal order. The ordinal is
// carried explicitly on each record; nothing downstream parses filenames
// to recover order.
func listFrames(framesDir string) ([]models.FrameRecord, error) {
	paths, err := filepath.Glob(filepath.Join(framesDir, "frame_*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	frames := make([]models.FrameRecord, len(paths))
	for i, p := range paths {
		frames[i] = models.FrameRecord{
			Index: i,
			Path:  p,
			State: models.FrameStateRaw,
		}
	}
	return frames, nil
}

func videoStream(streams []streamInfo) (streamInfo, bool) {
	for _, s := range streams {
		if s.CodecType == "video" {
			return s, true
		}
	}
	return streamInfo{}, false
}

// parseFrameRate converts ffprobe's fractional rate ("30000/1001") to a
// float. Zero denominators and malformed values yield 0.
func parseFrameRate(rate string) float64 {
	parts := strings.Split(rate, "/")
	if len(parts) != 2 {
		if v, err := strconv.ParseFloat(rate, 64); err == nil {
			return v
		}
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
