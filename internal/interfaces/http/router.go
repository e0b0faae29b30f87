package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/ventas-sync/internal/application/usecase"
	"github.com/jhoicas/ventas-sync/pkg/jwt"
)

// Pinger verifica la conexión a la base (lo implementa *pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ReportUC    *usecase.ReportUseCase
	DB          Pinger // opcional; sin él /health no consulta la base
	JWTSecret   string
	ServiceName string
	Logger      zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", healthHandler(deps))

	// Con JWT_SECRET vacío AuthMiddleware deja pasar y la API queda abierta.
	authEnabled := deps.JWTSecret != ""
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	reportHandler := NewReportHandler(deps.ReportUC, deps.Logger)

	// Catálogos para filtros
	api.Get("/empresas", reportHandler.Companies)
	api.Get("/sucursales", reportHandler.Branches)
	api.Get("/tipos-documento", reportHandler.DocumentTypes)

	// Reportes
	api.Get("/resumen", reportHandler.Summary)
	api.Get("/ventas-sucursal", reportHandler.SalesByBranch)
	api.Get("/top-productos", reportHandler.TopProducts)
	api.Get("/ventas/export", reportHandler.Export)

	// Historial de importaciones (solo admin)
	syncGroup := api.Group("/sync", RequireRole(authEnabled, jwt.RoleAdmin))
	syncGroup.Get("/runs", reportHandler.Runs)
}

func healthHandler(deps RouterDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
			defer cancel()
			if err := deps.DB.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "degraded", "service": deps.ServiceName, "database": "down",
				})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	}
}
