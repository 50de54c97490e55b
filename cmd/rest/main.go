package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"growny-ai-be/internal/bootstrap"
	"growny-ai-be/internal/config"
	"growny-ai-be/internal/pkg/logger"
	"growny-ai-be/internal/server"
	"growny-ai-be/internal/tracer"
	"growny-ai-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	// 2. Tracing (off unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(sysLogger, cfg.App.Version)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database
	if cfg.Database.Connection == "" {
		log.Fatal("DB_CONNECTION_STRING is not set")
	}
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction())
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, gormDB, cfg, sysLogger)
	defer container.Close()

	// 5. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		sysLogger.Error("EMBED_BACKFILL", "Consumer failed to start", map[string]interface{}{"error": err})
	}

	// 6. Run Server until a signal arrives
	srv := server.New(cfg, container)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			sysLogger.Error("HTTP", "Server stopped", map[string]interface{}{"error": err})
		}
	case <-ctx.Done():
		sysLogger.Info("HTTP", "Shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sysLogger.Error("HTTP", "Graceful shutdown failed", map[string]interface{}{"error": err})
		}
	}
}
