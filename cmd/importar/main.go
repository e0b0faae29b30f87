package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/jhoicas/ventas-sync/internal/application/ingest"
	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
	"github.com/jhoicas/ventas-sync/pkg/config"
	"github.com/jhoicas/ventas-sync/pkg/jwt"
	"github.com/jhoicas/ventas-sync/pkg/logger"
)

// Códigos de salida.
const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

func main() {
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "importar",
		Usage: "Importa ventas desde Bsale a PostgreSQL",
		Commands: []*cli.Command{
			{
				Name:  "backfill",
				Usage: "Importa un rango de fechas (por defecto 2024-01-01 a 2025-12-31)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "desde", Usage: "Fecha inicial YYYY-MM-DD"},
					&cli.StringFlag{Name: "hasta", Usage: "Fecha final YYYY-MM-DD (inclusive)"},
					&cli.IntFlag{Name: "start-company", Usage: "Índice de la empresa inicial (0 = primera)"},
					&cli.IntFlag{Name: "start-offset", Usage: "Offset inicial de documentos, solo para la primera empresa"},
					&cli.BoolFlag{Name: "resume", Usage: "Reanudar desde el checkpoint guardado de la ventana"},
				},
				Action: runBackfill,
			},
			{
				Name:   "diario",
				Usage:  "Importa las ventas del día anterior (pensado para cron)",
				Action: runDaily,
			},
			{
				Name:  "ejecuciones",
				Usage: "Muestra las últimas ejecuciones registradas",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 10, Usage: "Cantidad de ejecuciones"},
				},
				Action: runList,
			},
			{
				Name:  "emitir-token",
				Usage: "Emite un token JWT para la API de reportes",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Required: true, Usage: "Identificador del consumidor"},
					&cli.StringFlag{Name: "rol", Value: jwt.RoleLector, Usage: "admin | lector"},
					&cli.StringSliceFlag{Name: "empresa", Usage: "Empresa visible (repetible); sin valor = todas"},
					&cli.IntFlag{Name: "minutos", Usage: "Vigencia en minutos (por defecto JWT_EXPIRATION_MINUTES)"},
				},
				Action: runIssueToken,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			if msg := exit.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exit.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}
}

// setup carga configuración y logger comunes a todos los subcomandos.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	return cfg, log, nil
}

func runBackfill(c *cli.Context) error {
	params, err := backfillParams(c.String("desde"), c.String("hasta"),
		c.Int("start-company"), c.Int("start-offset"),
		c.Bool("resume"), c.IsSet("start-company") || c.IsSet("start-offset"))
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}

	cfg, log, err := setup()
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	p, err := buildPipeline(c.Context, cfg, log)
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	defer p.Close()

	start := time.Now()
	sum, err := p.orchestrator.Run(c.Context, params)
	if errors.Is(err, context.Canceled) {
		log.Warn().Msg("importación interrumpida; usar --resume para continuar desde el último checkpoint")
		fmt.Println(formatSummary(sum, time.Since(start)))
		return cli.Exit("", exitInterrupted)
	}
	if err != nil {
		log.Error().Err(err).Msg("importación fallida")
		return cli.Exit("", exitError)
	}
	fmt.Println(formatSummary(sum, time.Since(start)))
	return nil
}

// runDaily importación del día anterior. Los mensajes llevan el marcador [CRON] para
// poder filtrarlos en los logs del programador de tareas.
func runDaily(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return cli.Exit("[CRON] "+err.Error(), exitError)
	}
	w := ventas.YesterdayWindow(time.Now())
	log.Info().Str("ventana", w.String()).Msg("[CRON] inicio de importación diaria")

	p, err := buildPipeline(c.Context, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("[CRON] error de inicialización")
		return cli.Exit("", exitError)
	}
	defer p.Close()

	start := time.Now()
	sum, err := p.orchestrator.Run(c.Context, ingest.RunParams{
		Window:  w,
		Resume:  true,
		Trigger: entity.TriggerDaily,
	})
	switch {
	case errors.Is(err, context.Canceled):
		log.Warn().Msg("[CRON] importación diaria interrumpida")
		return cli.Exit("", exitOK)
	case err != nil:
		log.Error().Err(err).Msg("[CRON] importación diaria fallida")
		return cli.Exit("", exitError)
	}
	log.Info().
		Int("documentos", sum.Documents).
		Int("insertadas", sum.Inserted).
		Int("duplicadas", sum.Duplicates).
		Dur("duracion", time.Since(start)).
		Msg("[CRON] importación diaria completada")
	return nil
}

func runList(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	p, err := buildPipeline(c.Context, cfg, log)
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	defer p.Close()

	runs, err := p.runs.ListRecent(c.Context, c.Int("limit"))
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	for _, r := range runs {
		fmt.Println(formatRun(r))
	}
	return nil
}

func runIssueToken(c *cli.Context) error {
	cfg, _, err := setup()
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	role := c.String("rol")
	if role != jwt.RoleAdmin && role != jwt.RoleLector {
		return cli.Exit("rol inválido: "+role, exitError)
	}
	minutes := c.Int("minutos")
	if minutes <= 0 {
		minutes = cfg.JWT.Expiration
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, c.String("subject"), role, c.StringSlice("empresa"), cfg.JWT.Issuer, minutes)
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	fmt.Println(tok)
	return nil
}
