package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/videokit/bgremove/internal/assembler"
	"github.com/videokit/bgremove/internal/cache"
	"github.com/videokit/bgremove/internal/config"
	"github.com/videokit/bgremove/internal/database"
	"github.com/videokit/bgremove/internal/extractor"
	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/internal/metrics"
	"github.com/videokit/bgremove/internal/monitoring"
	"github.com/videokit/bgremove/internal/pipeline"
	"github.com/videokit/bgremove/internal/queue"
	"github.com/videokit/bgremove/internal/segmenter"
	"github.com/videokit/bgremove/internal/storage"
	"github.com/videokit/bgremove/internal/tracing"
	"github.com/videokit/bgremove/internal/webhook"
	"github.com/videokit/bgremove/pkg/models"
)

const resultTTL = 24 * time.Hour

type worker struct {
	cfg      *config.Config
	logger   *logging.Logger
	repo     *database.Repository
	cache    *cache.Cache
	storage  *storage.Storage
	notifier *webhook.Notifier // nil when no endpoint is configured
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		cfg = config.Default()
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize tracer")
		} else {
			defer closer.Close()
		}
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	if err := repo.InitSchema(context.Background()); err != nil {
		logger.Fatalf("Failed to initialize schema: %v", err)
	}

	redisCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	stor, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	q, err := queue.New(cfg.Queue)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("Metrics server failed", err)
			}
		}()
		defer metricsServer.Shutdown(context.Background())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully")
		cancel()
	}()

	monitoring.NewMonitor(q, logger, 0).Start(ctx)

	w := &worker{
		cfg:     cfg,
		logger:  logger,
		repo:    repo,
		cache:   redisCache,
		storage: stor,
	}
	if cfg.Webhook.URL != "" {
		w.notifier = webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret, logger)
	}

	logger.Info("Worker started, waiting for jobs")
	if err := q.ConsumeJobs(ctx, func(job *models.VideoJob) error {
		return w.handleJob(ctx, job)
	}); err != nil {
		logger.Fatalf("Failed to consume jobs: %v", err)
	}

	<-ctx.Done()
	logger.Info("Worker stopped")
}

// handleJob downloads the input, runs the pipeline locally and uploads
// the rendered outputs back to object storage.
func (w *worker) handleJob(ctx context.Context, job *models.VideoJob) error {
	log := w.logger.WithJobID(job.ID).WithVideo(job.Name())
	log.Infof("Received job for %s", job.InputPath)

	workDir, err := os.MkdirTemp(w.cfg.Pipeline.TempDir, "job_"+job.ID+"_")
	if err != nil {
		// TempDir may not exist yet on a fresh host.
		if mkErr := os.MkdirAll(w.cfg.Pipeline.TempDir, 0755); mkErr == nil {
			workDir, err = os.MkdirTemp(w.cfg.Pipeline.TempDir, "job_"+job.ID+"_")
		}
		if err != nil {
			w.recordFailure(ctx, job, fmt.Errorf("create work dir: %w", err))
			return err
		}
	}
	defer os.RemoveAll(workDir)

	w.setStatus(ctx, job.ID, models.JobStatusPending)

	localInput := filepath.Join(workDir, filepath.Base(job.InputPath))
	if err := w.storage.DownloadVideo(ctx, job.InputPath, localInput); err != nil {
		w.recordFailure(ctx, job, err)
		return err
	}

	localJob := *job
	localJob.InputPath = localInput
	localJob.OutputDir = filepath.Join(workDir, "output")

	model := localJob.Config.Model
	if model == "" {
		model = w.cfg.Pipeline.DefaultModel
	}
	if err := models.ValidateModel(model); err != nil {
		w.recordFailure(ctx, job, err)
		return err
	}
	localJob.Config.Model = model

	seg := w.newSegmenter(model)
	defer seg.Close()

	p := pipeline.New(
		extractor.NewFFmpeg(w.cfg.Pipeline.FFmpegPath, w.cfg.Pipeline.FFprobePath, w.logger),
		seg,
		assembler.NewFFmpegAssembler(w.cfg.Pipeline.FFmpegPath, w.logger),
		w.logger,
	)

	p.OnStageChange(func(jobID, stage string) {
		w.setStatus(ctx, jobID, stage)
	})
	p.OnFrameProgress(func(done, total int) {
		if err := w.cache.SetJobProgress(ctx, job.ID, done, total, resultTTL); err != nil {
			log.Debugf("Failed to update cached progress: %v", err)
		}
	})

	result, runErr := p.Process(ctx, &localJob)
	result.InputVideo = job.InputPath

	if runErr == nil {
		if obj, err := w.storage.UploadResult(ctx, job.ID, result.OutputMP4); err != nil {
			log.ErrorWithErr("Failed to upload MP4", err)
		} else {
			result.OutputMP4 = obj
		}
		if result.OutputWebM != "" {
			if obj, err := w.storage.UploadResult(ctx, job.ID, result.OutputWebM); err != nil {
				log.ErrorWithErr("Failed to upload WebM", err)
				result.OutputWebM = ""
			} else {
				result.OutputWebM = obj
			}
		}
	}
	result.OutputDir = ""
	result.FramesDir = ""
	result.ProcessedFramesDir = ""

	if err := w.repo.SaveResult(ctx, result); err != nil {
		log.ErrorWithErr("Failed to persist result", err)
	}
	if err := w.cache.SetResult(ctx, result, resultTTL); err != nil {
		log.ErrorWithErr("Failed to cache result", err)
	}
	if w.notifier != nil {
		if err := w.notifier.NotifyResult(ctx, result); err != nil {
			log.Warnf("Webhook notification failed: %v", err)
		}
	}

	if runErr != nil {
		w.setStatus(ctx, job.ID, models.JobStatusFailed)
		return runErr
	}

	w.setStatus(ctx, job.ID, models.JobStatusCompleted)
	log.Infof("Job done in %.2fs", result.ProcessingTime)
	return nil
}

func (w *worker) newSegmenter(model string) segmenter.Segmenter {
	if w.cfg.Pipeline.RembgEndpoint != "" {
		return segmenter.NewHTTPSegmenter(w.cfg.Pipeline.RembgEndpoint, model)
	}
	return segmenter.NewCLISegmenter(w.cfg.Pipeline.RembgPath, model)
}

func (w *worker) setStatus(ctx context.Context, jobID, status string) {
	if err := w.cache.SetJobStatus(ctx, jobID, status, resultTTL); err != nil {
		w.logger.WithJobID(jobID).Warnf("Failed to update cached status: %v", err)
	}
}

// recordFailure persists a failed result for errors that happen before
// the pipeline could produce one.
func (w *worker) recordFailure(ctx context.Context, job *models.VideoJob, cause error) {
	result := &models.ProcessingResult{
		JobID:      job.ID,
		VideoName:  job.Name(),
		InputVideo: job.InputPath,
		Status:     models.ResultStatusFailed,
		Error:      cause.Error(),
	}

	if err := w.repo.SaveResult(ctx, result); err != nil {
		w.logger.WithJobID(job.ID).ErrorWithErr("Failed to persist failure", err)
	}
	_ = w.cache.SetResult(ctx, result, resultTTL)
	w.setStatus(ctx, job.ID, models.JobStatusFailed)
	if w.notifier != nil {
		if err := w.notifier.NotifyResult(ctx, result); err != nil {
			w.logger.WithJobID(job.ID).Warnf("Webhook notification failed: %v", err)
		}
	}
}
