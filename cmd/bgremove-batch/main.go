// Command bgremove-batch runs background removal over every video in a
// directory tree and writes a JSON (and optionally HTML) report of the
// run. One bad video never stops the rest; the exit code is non-zero
// when any video failed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/videokit/bgremove/internal/assembler"
	"github.com/videokit/bgremove/internal/batch"
	"github.com/videokit/bgremove/internal/config"
	"github.com/videokit/bgremove/internal/extractor"
	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/internal/pipeline"
	"github.com/videokit/bgremove/internal/segmenter"
	"github.com/videokit/bgremove/pkg/models"
)

func main() {
	var (
		inputDir   = flag.String("input-dir", "", "directory to scan for videos (required)")
		outputDir  = flag.String("output-dir", "output", "directory for per-video outputs and the report")
		model      = flag.String("model", "u2net", "segmentation model name")
		maxFrames  = flag.Int("max-frames", 0, "process at most N frames per video (0 = all)")
		noWebM     = flag.Bool("no-webm", false, "skip the alpha-true WebM exports")
		extensions = flag.String("extensions", "", "comma-separated extension allow-list (default: mp4,avi,mov,mkv,wmv)")
		htmlReport = flag.Bool("html-report", false, "also write an HTML report")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	logger := logging.NewConsoleLogger(*verbose)

	if *inputDir == "" {
		flag.Usage()
		logger.Error("-input-dir is required")
		os.Exit(1)
	}
	if err := models.ValidateModel(*model); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	var exts []string
	if *extensions != "" {
		for _, e := range strings.Split(*extensions, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exts = append(exts, e)
			}
		}
	}

	cfg := config.Default()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("Interrupted, stopping after current video")
		cancel()
	}()

	// One segmentation session is shared across all videos of the run.
	seg := newSegmenter(cfg, *model)
	defer seg.Close()

	p := pipeline.New(
		extractor.NewFFmpeg(cfg.Pipeline.FFmpegPath, cfg.Pipeline.FFprobePath, logger),
		seg,
		assembler.NewFFmpegAssembler(cfg.Pipeline.FFmpegPath, logger),
		logger,
	)

	runner := batch.NewRunner(p, batch.Config{
		Model:      *model,
		MaxFrames:  *maxFrames,
		CreateWebM: !*noWebM,
		Extensions: exts,
		HTMLReport: *htmlReport,
	}, logger)

	report, err := runner.Run(ctx, *inputDir, *outputDir)
	if err != nil {
		logger.Errorf("Batch run failed: %v", err)
		os.Exit(1)
	}

	stats := report.Statistics
	fmt.Printf("Processed %d videos: %d succeeded, %d failed (%.2fs)\n",
		stats.TotalFiles, stats.Successful, stats.Failed, stats.TotalProcessingTime)

	if stats.Failed > 0 {
		os.Exit(1)
	}
}

func newSegmenter(cfg *config.Config, model string) segmenter.Segmenter {
	if cfg.Pipeline.RembgEndpoint != "" {
		return segmenter.NewHTTPSegmenter(cfg.Pipeline.RembgEndpoint, model)
	}
	return segmenter.NewCLISegmenter(cfg.Pipeline.RembgPath, model)
}
