package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/ventas-sync/internal/domain"
	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/repository"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
)

// DefaultPageSize documentos por página en el listado de Bsale.
const DefaultPageSize = 50

// OrchestratorDeps dependencias del orquestador.
type OrchestratorDeps struct {
	Companies   []entity.Company
	Documents   DocumentSource
	Enricher    *Enricher
	Persister   *Persister
	Schema      repository.SalesRepository
	Checkpoints repository.CheckpointRepository
	Runs        repository.SyncRunRepository // opcional
	PageSize    int
	Logger      zerolog.Logger
}

// RunParams parámetros de una ejecución.
// StartOffset aplica solo a la primera empresa procesada; las siguientes parten en 0.
// Con Resume, el checkpoint pendiente de la ventana reemplaza StartCompany/StartOffset.
type RunParams struct {
	Window       ventas.DateWindow
	StartCompany int
	StartOffset  int
	Resume       bool
	Trigger      string
}

// RunSummary totales de una ejecución.
type RunSummary struct {
	RunID      string
	Companies  int
	Documents  int
	Rows       int
	Inserted   int
	Duplicates int
	Enrichment EnrichmentStats
}

// Orchestrator recorre empresa × página: obtiene, enriquece, mapea y persiste.
// Empresas y páginas se procesan en forma secuencial.
type Orchestrator struct {
	deps OrchestratorDeps
	log  zerolog.Logger
	now  func() time.Time
}

// NewOrchestrator construye el orquestador.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.PageSize <= 0 {
		deps.PageSize = DefaultPageSize
	}
	return &Orchestrator{
		deps: deps,
		log:  deps.Logger.With().Str("componente", "orchestrator").Logger(),
		now:  time.Now,
	}
}

// Run ejecuta la sincronización de la ventana para todas las empresas desde p.StartCompany.
// Un error de obtención o persistencia detiene la ejecución y se devuelve tal cual (envuelto).
func (o *Orchestrator) Run(ctx context.Context, p RunParams) (RunSummary, error) {
	var sum RunSummary
	companies := o.deps.Companies
	if len(companies) == 0 {
		return sum, domain.ErrNoCompanies
	}
	if p.Trigger == "" {
		p.Trigger = entity.TriggerBackfill
	}

	if err := o.deps.Schema.EnsureSchema(ctx); err != nil {
		return sum, fmt.Errorf("crear esquema: %w", err)
	}

	if p.Resume {
		cp, err := o.deps.Checkpoints.Get(ctx, p.Window.Start, p.Window.End)
		if err != nil {
			return sum, fmt.Errorf("leer checkpoint: %w", err)
		}
		switch {
		case cp == nil:
			o.log.Info().Str("ventana", p.Window.String()).Msg("sin checkpoint, se inicia desde el comienzo")
		case cp.Completed:
			o.log.Info().Str("ventana", p.Window.String()).Msg("la ventana ya fue completada, se reprocesa desde el comienzo")
			p.StartCompany, p.StartOffset = 0, 0
		case cp.CompanyIndex < 0 || cp.CompanyIndex >= len(companies) || companies[cp.CompanyIndex].Name != cp.CompanyName:
			o.log.Warn().
				Int("empresa_idx", cp.CompanyIndex).
				Str("empresa", cp.CompanyName).
				Str("ventana", p.Window.String()).
				Msg("la lista de empresas cambió desde el checkpoint, se reinicia la ventana")
			p.StartCompany, p.StartOffset = 0, 0
		default:
			p.StartCompany, p.StartOffset = cp.CompanyIndex, cp.NextOffset
			o.log.Info().
				Int("empresa_idx", cp.CompanyIndex).
				Str("empresa", cp.CompanyName).
				Int("offset", cp.NextOffset).
				Msg("reanudando desde checkpoint")
		}
	}

	if p.StartCompany < 0 || p.StartCompany >= len(companies) {
		return sum, fmt.Errorf("%w: índice de empresa %d fuera de rango (0..%d)", domain.ErrInvalidInput, p.StartCompany, len(companies)-1)
	}
	if p.StartOffset < 0 {
		return sum, fmt.Errorf("%w: offset negativo %d", domain.ErrInvalidInput, p.StartOffset)
	}

	run := &entity.SyncRun{
		ID:          uuid.NewString(),
		Trigger:     p.Trigger,
		WindowStart: p.Window.Start,
		WindowEnd:   p.Window.End,
		Status:      entity.SyncStatusRunning,
		StartedAt:   o.now(),
	}
	sum.RunID = run.ID
	if o.deps.Runs != nil {
		if err := o.deps.Runs.Create(ctx, run); err != nil {
			return sum, fmt.Errorf("registrar ejecución: %w", err)
		}
	}
	log := o.log.With().Str("run_id", run.ID).Logger()
	log.Info().
		Str("ventana", p.Window.String()).
		Int("empresa_inicial", p.StartCompany).
		Int("offset_inicial", p.StartOffset).
		Msg("iniciando importación")

	enrich := o.deps.Enricher.Begin()
	runErr := o.syncCompanies(ctx, log, enrich, p, &sum)
	sum.Enrichment = enrich.Stats()

	if runErr == nil {
		last := len(companies) - 1
		runErr = o.deps.Checkpoints.Save(ctx, &entity.SyncCheckpoint{
			WindowStart:  p.Window.Start,
			WindowEnd:    p.Window.End,
			CompanyIndex: last,
			CompanyName:  companies[last].Name,
			Completed:    true,
			UpdatedAt:    o.now(),
		})
		if runErr != nil {
			runErr = fmt.Errorf("cerrar checkpoint: %w", runErr)
		}
	}

	o.finish(ctx, log, run, sum, runErr)
	if runErr != nil {
		return sum, runErr
	}
	log.Info().
		Int("documentos", sum.Documents).
		Int("lineas", sum.Rows).
		Int("insertadas", sum.Inserted).
		Int("duplicadas", sum.Duplicates).
		Msg("importación completada")
	return sum, nil
}

func (o *Orchestrator) syncCompanies(ctx context.Context, log zerolog.Logger, enrich *EnrichmentRun, p RunParams, sum *RunSummary) error {
	companies := o.deps.Companies
	for i := p.StartCompany; i < len(companies); i++ {
		offset := 0
		if i == p.StartCompany {
			offset = p.StartOffset
		}
		if err := o.syncCompany(ctx, log, enrich, p.Window, i, companies[i], offset, sum); err != nil {
			return err
		}
		sum.Companies++
	}
	return nil
}

func (o *Orchestrator) syncCompany(
	ctx context.Context,
	log zerolog.Logger,
	enrich *EnrichmentRun,
	w ventas.DateWindow,
	idx int,
	company entity.Company,
	startOffset int,
	sum *RunSummary,
) error {
	name := entity.CompanyByToken(o.deps.Companies, company.Token)
	log = log.With().Str("empresa", name).Logger()
	log.Info().Int("offset", startOffset).Msg("procesando empresa")

	pager := NewPager(o.deps.Documents, company.Token, w, startOffset, o.deps.PageSize, log)
	var docs, lines int
	for {
		page, err := pager.Next(ctx)
		if err != nil {
			return fmt.Errorf("empresa %s: %w", name, err)
		}
		if pager.Done() {
			break
		}

		variants, err := enrich.ResolvePage(ctx, company.Token, page.Items)
		if err != nil {
			return fmt.Errorf("empresa %s: enriquecer: %w", name, err)
		}
		var rows []entity.SalesRow
		for _, doc := range page.Items {
			rows = append(rows, MapDocument(doc, variants, name)...)
		}

		cp := &entity.SyncCheckpoint{
			WindowStart:  w.Start,
			WindowEnd:    w.End,
			CompanyIndex: idx,
			CompanyName:  name,
			NextOffset:   pager.Offset(),
			UpdatedAt:    o.now(),
		}
		res, err := o.deps.Persister.PersistPage(ctx, rows, cp)
		if err != nil {
			return fmt.Errorf("empresa %s offset %d: %w", name, pager.Offset()-o.deps.PageSize, err)
		}

		docs += len(page.Items)
		lines += len(rows)
		sum.Documents += len(page.Items)
		sum.Rows += len(rows)
		sum.Inserted += res.Inserted
		sum.Duplicates += res.Duplicates

		ev := log.Info().
			Int("offset", pager.Offset()).
			Int("documentos", docs).
			Int("lineas", lines).
			Int("insertadas", res.Inserted).
			Int("duplicadas", res.Duplicates)
		if total := pager.Total(); total > 0 {
			ev = ev.Float64("avance_pct", progress(startOffset+docs, total))
		}
		ev.Msg("página procesada")
	}
	log.Info().Int("documentos", docs).Int("lineas", lines).Msg("empresa completada")
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, log zerolog.Logger, run *entity.SyncRun, sum RunSummary, runErr error) {
	if o.deps.Runs == nil {
		return
	}
	finished := o.now()
	run.FinishedAt = &finished
	run.Documents = sum.Documents
	run.Rows = sum.Rows
	run.Inserted = sum.Inserted
	run.Duplicates = sum.Duplicates
	run.Status = entity.SyncStatusSuccess
	if runErr != nil {
		run.Status = entity.SyncStatusFailed
		run.Error = runErr.Error()
	}
	// El registro se cierra aunque el contexto de la ejecución ya esté cancelado.
	fctx := ctx
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
	}
	if err := o.deps.Runs.Finish(fctx, run); err != nil {
		log.Error().Err(err).Msg("no se pudo cerrar el registro de la ejecución")
	}
}

func progress(done, total int) float64 {
	pct := float64(done) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}
	return float64(int(pct*100)) / 100
}
