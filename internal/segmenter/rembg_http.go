package segmenter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// HTTPSegmenter talks to a rembg-style inference daemon over HTTP. The
// daemon keeps the model session warm across requests, so per-frame calls
// only pay for inference.
type HTTPSegmenter struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewHTTPSegmenter creates a segmenter backed by the daemon at endpoint.
func NewHTTPSegmenter(endpoint, model string) *HTTPSegmenter {
	return &HTTPSegmenter{
		endpoint: endpoint,
		model:    model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Segment posts the raw image bytes and writes the returned alpha image.
func (s *HTTPSegmenter) Segment(ctx context.Context, srcPath, dstPath string) error {
	input, err := os.ReadFile(srcPath)
	if err != nil {
		return &SegmentationError{FramePath: srcPath, Err: fmt.Errorf("read frame: %w", err)}
	}

	reqURL := fmt.Sprintf("%s/api/remove?model=%s", s.endpoint, url.QueryEscape(s.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(input))
	if err != nil {
		return &SegmentationError{FramePath: srcPath, Err: err}
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return &SegmentationError{FramePath: srcPath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &SegmentationError{
			FramePath: srcPath,
			Err:       fmt.Errorf("daemon returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	output, err := io.ReadAll(resp.Body)
	if err != nil {
		return &SegmentationError{FramePath: srcPath, Err: fmt.Errorf("read response: %w", err)}
	}
	if len(output) == 0 {
		return &SegmentationError{FramePath: srcPath, Err: fmt.Errorf("daemon returned empty body")}
	}

	if err := os.WriteFile(dstPath, output, 0644); err != nil {
		return &SegmentationError{FramePath: srcPath, Err: fmt.Errorf("write result: %w", err)}
	}

	return nil
}

// Model returns the model identifier.
func (s *HTTPSegmenter) Model() string {
	return s.model
}

// Close is a no-op; the session lives in the daemon.
func (s *HTTPSegmenter) Close() error {
	return nil
}
