package main

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/ventas-sync/internal/application/ingest"
	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
)

// printer separadores de miles chilenos (1.234.567).
var printer = message.NewPrinter(language.MustParse("es-CL"))

// backfillParams valida los flags de backfill. Las fechas vacías usan el rango histórico
// por defecto; --resume no se combina con una posición explícita.
func backfillParams(desde, hasta string, startCompany, startOffset int, resume, explicitStart bool) (ingest.RunParams, error) {
	if resume && explicitStart {
		return ingest.RunParams{}, errors.New("--resume no se puede combinar con --start-company/--start-offset")
	}
	w, err := ventas.RangeWindow(desde, hasta)
	if err != nil {
		return ingest.RunParams{}, err
	}
	return ingest.RunParams{
		Window:       w,
		StartCompany: startCompany,
		StartOffset:  startOffset,
		Resume:       resume,
		Trigger:      entity.TriggerBackfill,
	}, nil
}

func formatSummary(sum ingest.RunSummary, elapsed time.Duration) string {
	var b strings.Builder
	b.WriteString("Resumen de importación\n")
	printer.Fprintf(&b, "  Ejecución:            %s\n", sum.RunID)
	printer.Fprintf(&b, "  Empresas procesadas:  %d\n", sum.Companies)
	printer.Fprintf(&b, "  Documentos:           %d\n", sum.Documents)
	printer.Fprintf(&b, "  Líneas:               %d\n", sum.Rows)
	printer.Fprintf(&b, "  Insertadas:           %d\n", sum.Inserted)
	printer.Fprintf(&b, "  Duplicadas:           %d\n", sum.Duplicates)
	printer.Fprintf(&b, "  Variantes consultadas: %d (cache compartida: %d)\n", sum.Enrichment.Variants, sum.Enrichment.SharedHits)
	if sum.Enrichment.ProductFailures > 0 || sum.Enrichment.CostFailures > 0 {
		printer.Fprintf(&b, "  Fallos de enriquecimiento: producto %d, costo %d\n",
			sum.Enrichment.ProductFailures, sum.Enrichment.CostFailures)
	}
	printer.Fprintf(&b, "  Duración:             %s", elapsed.Round(time.Second))
	return b.String()
}

func formatRun(r *entity.SyncRun) string {
	w := ventas.DateWindow{Start: r.WindowStart, End: r.WindowEnd}
	line := printer.Sprintf("%s  %-8s  %-7s  %s  docs=%d  insertadas=%d  duplicadas=%d",
		r.StartedAt.In(ventas.BusinessZone).Format("2006-01-02 15:04"),
		r.Trigger, r.Status, w.String(), r.Documents, r.Inserted, r.Duplicates)
	if r.Error != "" {
		line += "  error=" + r.Error
	}
	return line
}
