package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/feichai0017/document-search/config"
	"github.com/feichai0017/document-search/internal/service/document"
	"github.com/feichai0017/document-search/pkg/logger"
	"github.com/feichai0017/document-search/pkg/queue"
	"github.com/feichai0017/document-search/pkg/worker"
)

func main() {
	cfg := config.GetAppConfig()

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.LogLevel),
		logger.WithEncoding(cfg.LogEncoding),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
		logger.WithInitialFields(map[string]interface{}{"service": "worker"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if !cfg.QueueMode() {
		log.Error("Worker requires PROCESS_MODE=queue", logger.String("processMode", cfg.ProcessMode))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docService, cleanup, err := document.GetService(ctx, log)
	if err != nil {
		log.Error("Failed to create document service", logger.Error(err))
		os.Exit(1)
	}
	defer cleanup()

	documentWorker, err := worker.NewDocumentWorker(&worker.Config{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Concurrency:   1,
		Queues:        map[string]int{queue.QueueCatalog: 1},
	}, docService, log)
	if err != nil {
		log.Error("Failed to create document worker", logger.Error(err))
		os.Exit(1)
	}

	if err := documentWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	log.Info("Shutting down worker...")
	documentWorker.Stop()
	log.Info("Worker stopped")
}
