package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soltixdb/sst/internal/archive"
	"github.com/soltixdb/sst/internal/config"
	sstgrpc "github.com/soltixdb/sst/internal/grpc"
	"github.com/soltixdb/sst/internal/logging"
	"github.com/soltixdb/sst/internal/profiles"
	"github.com/soltixdb/sst/internal/queue"
	"github.com/soltixdb/sst/internal/router"
	"github.com/soltixdb/sst/internal/services"
	"github.com/soltixdb/sst/internal/worker"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Scorer service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Fatal("Failed to create directories", "error", err)
	}

	// Profile store
	logger.Info("Opening profile store", "backend", cfg.Profiles.Backend)
	profileStore, err := profiles.NewStore(cfg.Profiles)
	if err != nil {
		logger.Fatal("Failed to open profile store", "error", err)
	}
	defer func() { _ = profileStore.Close() }()

	// Result archive
	var archiveStore *archive.Store
	if cfg.Archive.Enabled {
		archiveStore, err = archive.New(cfg.Archive.Dir, cfg.Archive.Compress, logger)
		if err != nil {
			logger.Fatal("Failed to open result archive", "error", err)
		}
		logger.Info("Result archive ready", "dir", cfg.Archive.Dir, "compress", cfg.Archive.Compress)
	}

	// Job queue
	var queueClient queue.Queue
	if cfg.Queue.Enabled {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		queueClient, err = queue.NewQueue(cfg.Queue)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = queueClient.Close() }()
	}

	var publisher queue.Publisher
	if queueClient != nil {
		publisher = queueClient
	}
	service := services.NewScoreService(logger, cfg.Detector, profileStore, archiveStore, publisher, cfg.Queue.JobSubject)

	var jobWorker *worker.Worker
	if queueClient != nil {
		jobWorker = worker.New(worker.Config{
			JobSubject:    cfg.Queue.JobSubject,
			ResultSubject: cfg.Queue.ResultSubject,
			Concurrency:   cfg.Queue.Concurrency,
		}, logger, service, queueClient, queueClient)
		if err := jobWorker.Start(); err != nil {
			logger.Fatal("Failed to start worker", "error", err)
		}
	}

	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// gRPC server
	grpcDone := make(chan struct{})
	if addr := cfg.Server.GRPCAddress(); addr != "" {
		grpcServer := sstgrpc.NewScoreServer(addr, cfg.Server.BodyLimit, logger, service)
		go func() {
			defer close(grpcDone)
			if err := grpcServer.Start(ctx); err != nil {
				logger.Fatal("Failed to start gRPC server", "error", err)
			}
		}()
	} else {
		close(grpcDone)
	}

	// HTTP server
	app := router.New(logger, service, *cfg)
	go func() {
		addr := cfg.Server.HTTPAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	cancel()
	<-grpcDone

	if jobWorker != nil {
		jobWorker.Stop()
	}

	logger.Info("Server exited")
}
