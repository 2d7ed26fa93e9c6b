package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-search/api/handlers"
	"github.com/feichai0017/document-search/api/routes"
	"github.com/feichai0017/document-search/config"
	"github.com/feichai0017/document-search/internal/service/document"
	"github.com/feichai0017/document-search/pkg/logger"
)

func main() {
	cfg := config.GetAppConfig()

	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel(cfg.LogLevel),
		logger.WithEncoding(cfg.LogEncoding),
		logger.WithOutputPaths([]string{"stdout", cfg.LogFile}),
		logger.WithInitialFields(map[string]interface{}{"service": "server"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// init document service
	docService, cleanup, err := document.GetService(ctx, log)
	if err != nil {
		log.Fatal("Failed to get document service", logger.Error(err))
	}
	defer cleanup()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	h := handlers.NewHandlers(docService, cfg.MaxUploadBytes, log)
	routes.SetupRoutes(r, h, cfg.AllowedOrigins, log)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting",
			logger.String("addr", cfg.ListenAddr),
			logger.String("storage", cfg.StorageType),
			logger.String("processMode", cfg.ProcessMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	// graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
		os.Exit(1)
	}
}
