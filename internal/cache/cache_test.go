package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/videokit/bgremove/pkg/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	cache, err := NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create cache: %v", err)
	}

	return cache, mr
}

func TestNewCache(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestCache_JobStatus(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	if err := cache.SetJobStatus(ctx, "job-1", models.JobStatusSegmenting, 5*time.Minute); err != nil {
		t.Fatalf("SetJobStatus failed: %v", err)
	}

	status, err := cache.GetJobStatus(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJobStatus failed: %v", err)
	}
	if status != models.JobStatusSegmenting {
		t.Errorf("Expected status %s, got %s", models.JobStatusSegmenting, status)
	}

	// Miss returns empty string, not an error.
	status, err = cache.GetJobStatus(ctx, "unknown")
	if err != nil {
		t.Fatalf("GetJobStatus miss should not error: %v", err)
	}
	if status != "" {
		t.Errorf("Expected empty status on miss, got %s", status)
	}
}

func TestCache_JobProgress(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	if err := cache.SetJobProgress(ctx, "job-2", 30, 120, time.Minute); err != nil {
		t.Fatalf("SetJobProgress failed: %v", err)
	}

	progress, err := cache.GetJobProgress(ctx, "job-2")
	if err != nil {
		t.Fatalf("GetJobProgress failed: %v", err)
	}
	if progress != "30/120" {
		t.Errorf("Expected progress 30/120, got %s", progress)
	}
}

func TestCache_Result(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	result := &models.ProcessingResult{
		JobID:      "job-3",
		VideoName:  "clip",
		Status:     models.ResultStatusSuccess,
		FrameCount: 42,
		FPS:        29.97,
		Resolution: [2]int{1920, 1080},
		OutputMP4:  "/out/clip/output_transparent.mp4",
	}

	if err := cache.SetResult(ctx, result, 5*time.Minute); err != nil {
		t.Fatalf("SetResult failed: %v", err)
	}

	retrieved, err := cache.GetResult(ctx, "job-3")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Retrieved result should not be nil")
	}
	if retrieved.VideoName != "clip" {
		t.Errorf("Expected video name clip, got %s", retrieved.VideoName)
	}
	if retrieved.FrameCount != 42 {
		t.Errorf("Expected frame count 42, got %d", retrieved.FrameCount)
	}
	if retrieved.Resolution != [2]int{1920, 1080} {
		t.Errorf("Unexpected resolution: %v", retrieved.Resolution)
	}

	// Miss returns nil, nil.
	missing, err := cache.GetResult(ctx, "nope")
	if err != nil {
		t.Fatalf("GetResult miss should not error: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil result on miss")
	}
}
