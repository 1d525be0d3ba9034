package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videokit/bgremove/pkg/models"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997002997},
		{"10/1", 10},
		{"25", 25},
		{"0/0", 0},
		{"garbage", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseFrameRate(tt.input), 1e-9)
		})
	}
}

func TestListFramesOrdinalOrder(t *testing.T) {
	dir := t.TempDir()

	// Write frames out of creation order; listing must still be ordinal.
	for _, n := range []int{3, 0, 2, 1} {
		name := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", n))
		require.NoError(t, os.WriteFile(name, []byte("png"), 0644))
	}
	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	frames, err := listFrames(dir)
	require.NoError(t, err)
	require.Len(t, frames, 4)

	for i, fr := range frames {
		assert.Equal(t, i, fr.Index)
		assert.Equal(t, models.FrameStateRaw, fr.State)
		assert.Equal(t, filepath.Join(dir, fmt.Sprintf("frame_%06d.png", i)), fr.Path)
	}
}

func TestListFramesEmptyDir(t *testing.T) {
	frames, err := listFrames(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestOpenErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &OpenError{Path: "/videos/x.mp4", Err: cause}

	assert.Contains(t, err.Error(), "/videos/x.mp4")
	assert.True(t, errors.Is(err, cause))

	var openErr *OpenError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &openErr))
}

func TestVideoStream(t *testing.T) {
	streams := []streamInfo{
		{CodecType: "audio", CodecName: "aac"},
		{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080},
		{CodecType: "video", CodecName: "mjpeg"},
	}

	s, ok := videoStream(streams)
	require.True(t, ok)
	assert.Equal(t, "h264", s.CodecName)

	_, ok = videoStream([]streamInfo{{CodecType: "audio"}})
	assert.False(t, ok)
}
