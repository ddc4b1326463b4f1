package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/controlsuite/auditfiles/internal/config"
	"github.com/controlsuite/auditfiles/internal/foldercache"
	"github.com/controlsuite/auditfiles/internal/logging"
	"github.com/controlsuite/auditfiles/internal/offline"
	"github.com/controlsuite/auditfiles/internal/resolver"
	"github.com/controlsuite/auditfiles/internal/storage"
	"github.com/controlsuite/auditfiles/internal/storage/controlfile"
	"github.com/controlsuite/auditfiles/internal/storage/s3"
	"github.com/controlsuite/auditfiles/internal/syncer"
	"github.com/controlsuite/auditfiles/internal/uploader"
)

func main() {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := offline.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	repos := offline.NewRepositories(db)

	var tokens controlfile.TokenSource = controlfile.NewStaticTokenSource(cfg.APIToken)
	if cfg.TokenRefreshURL != "" {
		tokens = controlfile.NewHTTPRefreshTokenSource(cfg.TokenRefreshURL)
	}
	backend := controlfile.NewClient(cfg.BackendBaseURL, tokens, logger)

	var folders storage.Folders = backend
	var binaries storage.Binaries = backend
	if cfg.StorageBackend == config.BackendS3 {
		store, err := s3.New(ctx, s3.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return err
		}
		folders = store
		binaries = store
	}

	res := resolver.New(folders, foldercache.New(cfg.FolderCacheSize), logger)
	uploads := uploader.New(res, binaries)

	watcher := syncer.NewWatcher(backend, logger)
	go watcher.Run(ctx, cfg.OnlineCheckInterval)

	consumer := syncer.NewConsumer(db, repos.Tasks, repos.Blobs, uploads, watcher, logger)
	if err := consumer.CleanupOld(ctx, cfg.CleanupAge); err != nil {
		logger.Warn(ctx, "startup cleanup failed", "error", err)
	}

	logger.Info(ctx, "sync agent started",
		"backend", cfg.BackendBaseURL, "storage", cfg.StorageBackend, "db", cfg.DatabaseDSN)
	consumer.Run(ctx, cfg.ReplayInterval)
	return nil
}
