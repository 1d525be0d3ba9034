// Command bgremove removes the background from every frame of a single
// video and renders an opaque MP4 (background flattened to white) plus,
// by default, an alpha-true WebM next to it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/videokit/bgremove/internal/assembler"
	"github.com/videokit/bgremove/internal/config"
	"github.com/videokit/bgremove/internal/extractor"
	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/internal/pipeline"
	"github.com/videokit/bgremove/internal/segmenter"
	"github.com/videokit/bgremove/pkg/models"
)

func main() {
	var (
		input     = flag.String("input", "", "path to the source video (required)")
		output    = flag.String("output", "output", "directory for frames and rendered videos")
		model     = flag.String("model", "u2net", "segmentation model name")
		maxFrames = flag.Int("max-frames", 0, "process at most N frames (0 = all)")
		noWebM    = flag.Bool("no-webm", false, "skip the alpha-true WebM export")
		verbose   = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	logger := logging.NewConsoleLogger(*verbose)

	if *input == "" {
		flag.Usage()
		logger.Error("-input is required")
		os.Exit(1)
	}
	if err := models.ValidateModel(*model); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	if *maxFrames < 0 {
		logger.Error("-max-frames must not be negative")
		os.Exit(1)
	}

	cfg := config.Default()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("Interrupted, finishing current frame")
		cancel()
	}()

	seg := newSegmenter(cfg, *model)
	defer seg.Close()

	p := pipeline.New(
		extractor.NewFFmpeg(cfg.Pipeline.FFmpegPath, cfg.Pipeline.FFprobePath, logger),
		seg,
		assembler.NewFFmpegAssembler(cfg.Pipeline.FFmpegPath, logger),
		logger,
	)

	job := models.NewVideoJob(*input, *output, models.JobConfig{
		Model:      *model,
		MaxFrames:  *maxFrames,
		CreateWebM: !*noWebM,
	})

	result, err := p.Process(ctx, job)
	if err != nil {
		os.Exit(1)
	}

	fmt.Printf("Done: %s (%d frames, %.2fs)\n", result.OutputMP4, result.FrameCount, result.ProcessingTime)
	if result.OutputWebM != "" {
		fmt.Printf("WebM: %s\n", result.OutputWebM)
	}
}

func newSegmenter(cfg *config.Config, model string) segmenter.Segmenter {
	if cfg.Pipeline.RembgEndpoint != "" {
		return segmenter.NewHTTPSegmenter(cfg.Pipeline.RembgEndpoint, model)
	}
	return segmenter.NewCLISegmenter(cfg.Pipeline.RembgPath, model)
}
