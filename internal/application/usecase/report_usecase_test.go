package usecase

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-sync/internal/application/dto"
	"github.com/jhoicas/ventas-sync/internal/domain"
	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/repository"
)

type fakeReports struct {
	lastFilter repository.SalesFilter
	lastLimit  int
	sales      []entity.SalesRow
}

func (f *fakeReports) Summary(_ context.Context, sf repository.SalesFilter) (*repository.SalesSummary, error) {
	f.lastFilter = sf
	return &repository.SalesSummary{TotalRegistros: 6, VentasTotales: decimal.NewFromInt(42000)}, nil
}

func (f *fakeReports) SalesByBranch(_ context.Context, sf repository.SalesFilter) ([]repository.BranchYearSales, error) {
	f.lastFilter = sf
	return []repository.BranchYearSales{{Sucursal: "Centro", Anio: 2024, Documentos: 3}}, nil
}

func (f *fakeReports) TopProducts(_ context.Context, sf repository.SalesFilter, limit int) ([]repository.TopProduct, error) {
	f.lastFilter, f.lastLimit = sf, limit
	return []repository.TopProduct{{Ranking: 1, SKU: "SKU-55"}}, nil
}

func (f *fakeReports) DocumentTypes(_ context.Context, sf repository.SalesFilter) ([]repository.DocumentTypeCount, error) {
	f.lastFilter = sf
	return []repository.DocumentTypeCount{{TipoDocumento: "BOLETA ELECTRÓNICA", TotalDocumentos: 3}}, nil
}

func (f *fakeReports) Companies(context.Context) ([]string, error) {
	return []string{"Empresa Centro"}, nil
}

func (f *fakeReports) Branches(context.Context) ([]repository.Branch, error) {
	return []repository.Branch{{Sucursal: "Centro", Empresa: "Empresa Centro"}}, nil
}

func (f *fakeReports) ListSales(_ context.Context, sf repository.SalesFilter, limit int) ([]entity.SalesRow, error) {
	f.lastFilter, f.lastLimit = sf, limit
	return f.sales, nil
}

type fakeRuns struct {
	runs []*entity.SyncRun
}

func (f *fakeRuns) Create(context.Context, *entity.SyncRun) error { return nil }
func (f *fakeRuns) Finish(context.Context, *entity.SyncRun) error { return nil }
func (f *fakeRuns) ListRecent(_ context.Context, limit int) ([]*entity.SyncRun, error) {
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

type countingExporter struct{ rows int }

func (e *countingExporter) WriteSales(w io.Writer, rows []entity.SalesRow) error {
	e.rows = len(rows)
	_, err := w.Write([]byte("xlsx"))
	return err
}

func TestSummary_FiltrosLimpios(t *testing.T) {
	repo := &fakeReports{}
	uc := NewReportUseCase(repo, nil, nil)

	s, err := uc.Summary(context.Background(), dto.ReportFilter{
		Sucursal: []string{"", "Centro"},
		Anios:    []int{2024},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), s.TotalRegistros)
	assert.Equal(t, []string{"Centro"}, repo.lastFilter.Sucursal)
	assert.Empty(t, repo.lastFilter.Empresa)
	assert.Equal(t, []int{2024}, repo.lastFilter.Anios)
}

func TestSummary_MesInvalido(t *testing.T) {
	uc := NewReportUseCase(&fakeReports{}, nil, nil)
	_, err := uc.Summary(context.Background(), dto.ReportFilter{Meses: []int{13}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.SalesByBranch(context.Background(), dto.ReportFilter{Anios: []int{1999}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTopProducts_Limites(t *testing.T) {
	repo := &fakeReports{}
	uc := NewReportUseCase(repo, nil, nil)

	_, err := uc.TopProducts(context.Background(), dto.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, defaultTopProducts, repo.lastLimit)

	_, err = uc.TopProducts(context.Background(), dto.ReportFilter{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, maxTopProducts, repo.lastLimit)

	top, err := uc.TopProducts(context.Background(), dto.ReportFilter{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.lastLimit)
	require.Len(t, top, 1)
	assert.Equal(t, "SKU-55", top[0].SKU)
}

func TestExportSales(t *testing.T) {
	repo := &fakeReports{sales: make([]entity.SalesRow, 4)}
	exp := &countingExporter{}
	uc := NewReportUseCase(repo, nil, exp)

	var buf bytes.Buffer
	n, err := uc.ExportSales(context.Background(), dto.ReportFilter{Empresa: []string{"Empresa Centro"}}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, exp.rows)
	assert.Equal(t, defaultExportRows, repo.lastLimit)
	assert.Equal(t, "xlsx", buf.String())
}

func TestExportSales_SinExportador(t *testing.T) {
	uc := NewReportUseCase(&fakeReports{}, nil, nil)
	_, err := uc.ExportSales(context.Background(), dto.ReportFilter{}, io.Discard)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecentRuns(t *testing.T) {
	started := time.Date(2024, 3, 16, 6, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	runs := &fakeRuns{runs: []*entity.SyncRun{
		{ID: "r1", Trigger: entity.TriggerDaily, Status: entity.SyncStatusSuccess, StartedAt: started, FinishedAt: &finished, Inserted: 6},
		{ID: "r0", Trigger: entity.TriggerBackfill, Status: entity.SyncStatusRunning, StartedAt: started.Add(-time.Hour)},
	}}
	uc := NewReportUseCase(&fakeReports{}, runs, nil)

	out, err := uc.RecentRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 90.0, out[0].DurationSec)
	assert.Equal(t, 6, out[0].Insertadas)
	assert.Nil(t, out[1].FinishedAt)
	assert.Zero(t, out[1].DurationSec)

	none, err := NewReportUseCase(&fakeReports{}, nil, nil).RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRestrictCompanies(t *testing.T) {
	req := dto.ReportFilter{}
	require.NoError(t, RestrictCompanies(&req, nil))
	assert.Empty(t, req.Empresa, "sin alcance no se restringe")

	require.NoError(t, RestrictCompanies(&req, []string{"A", "B"}))
	assert.Equal(t, []string{"A", "B"}, req.Empresa)

	req = dto.ReportFilter{Empresa: []string{"B"}}
	require.NoError(t, RestrictCompanies(&req, []string{"A", "B"}))
	assert.Equal(t, []string{"B"}, req.Empresa, "un subconjunto permitido se respeta")

	req = dto.ReportFilter{Empresa: []string{"B", "C"}}
	assert.ErrorIs(t, RestrictCompanies(&req, []string{"A", "B"}), domain.ErrUnauthorized,
		"una sola empresa fuera del alcance rechaza la consulta")

	req = dto.ReportFilter{Empresa: []string{"C"}}
	assert.ErrorIs(t, RestrictCompanies(&req, []string{"A"}), domain.ErrUnauthorized)
}

func TestReportUseCase_DocumentTypesAplicaFiltro(t *testing.T) {
	reports := &fakeReports{}
	uc := NewReportUseCase(reports, nil, nil)

	out, err := uc.DocumentTypes(context.Background(), dto.ReportFilter{Empresa: []string{"Empresa Centro"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"Empresa Centro"}, reports.lastFilter.Empresa)

	_, err = uc.DocumentTypes(context.Background(), dto.ReportFilter{Meses: []int{13}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
