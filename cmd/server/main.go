package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taxlaw-backend/app"
	"taxlaw-backend/config"
	"taxlaw-backend/handlers"
	"taxlaw-backend/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	settings, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.InitLogger(settings.Stage, settings.LogLevel)
	defer logger.Sync()

	if settings.Stage == logger.ProdStage {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, settings)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close(context.Background())

	router := handlers.NewRouter(ctx, handlers.RouterConfig{
		TaxService:      application.Tax,
		DocumentService: application.Documents,
		ChatService:     application.Chat,
		MaxUploadBytes:  settings.MaxUploadBytes,
		AllowedOrigins:  settings.CORSAllowedOrigins,
		RateLimitRPS:    settings.RateLimitRPS,
		RateLimitBurst:  settings.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("port", settings.Port), zap.String("stage", settings.Stage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server stopped unexpectedly", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
