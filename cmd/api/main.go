package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/jhoicas/ventas-sync/internal/application/usecase"
	"github.com/jhoicas/ventas-sync/internal/infrastructure/export"
	"github.com/jhoicas/ventas-sync/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/ventas-sync/internal/interfaces/http"
	"github.com/jhoicas/ventas-sync/pkg/config"
	"github.com/jhoicas/ventas-sync/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Bool("auth", cfg.JWT.Secret != "").
		Msg("iniciando API de reportes")
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: la API de reportes queda sin autenticación")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, 10)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	reportRepo := postgres.NewReportRepository(pool)
	runRepo := postgres.NewSyncRunRepository(pool)
	reportUC := usecase.NewReportUseCase(reportRepo, runRepo, export.NewExcelExporter())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // exportaciones grandes
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Ventas Sync API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ReportUC:    reportUC,
		DB:          pool,
		JWTSecret:   cfg.JWT.Secret,
		ServiceName: cfg.App.Name,
		Logger:      log.Component("api"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
