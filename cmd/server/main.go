package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/config"
	"github.com/vhsilvat/MetaMorfose/internal/database"
	"github.com/vhsilvat/MetaMorfose/internal/logger"
	"github.com/vhsilvat/MetaMorfose/internal/routes"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.DBUrl == "" {
		zlog.Fatal("DB_URL is required")
	}
	pool, err := database.Connect(context.Background(), cfg.DBUrl)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	app := fiber.New()

	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	reminders, err := routes.RegisterRoutes(app, cfg, pool, zlog)
	if err != nil {
		zlog.Fatal("Failed to register routes", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go reminders.Run(ctx)

	go func() {
		<-ctx.Done()
		zlog.Info("Shutting down")
		_ = app.Shutdown()
	}()

	zlog.Info("Server starting", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("Server failed to start", zap.Error(err))
	}
}
