package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-sync/internal/application/ingest"
	"github.com/jhoicas/ventas-sync/internal/domain"
	"github.com/jhoicas/ventas-sync/internal/domain/entity"
)

// ── Escenario de punta a punta ────────────────────────────────────────────────

func endToEndFixture() (*fakeDocuments, *fakeVariants) {
	docs := newFakeDocuments()
	docs.set("T", 0, entity.DocumentPage{Count: 3, Items: []entity.SalesDocument{
		doc(1, "Centro", line(11, 55, 10000), line(12, 56, 500)),
		doc(2, "Centro", line(21, 55, 10000), line(22, 57, 2500)),
		doc(3, "Centro", line(31, 0, 800), line(32, 56, 500)),
	}})

	variants := newFakeVariants()
	variants.products[55] = entity.VariantInfo{ProductName: "Polera", ProductTypeName: "Vestuario"}
	variants.products[56] = entity.VariantInfo{ProductName: "Calcetín"}
	variants.products[57] = entity.VariantInfo{ProductName: "Gorro"}
	variants.costs[55] = 6000
	variants.costs[56] = 200
	return docs, variants
}

func TestOrchestrator_EndToEndIdempotente(t *testing.T) {
	docs, variants := endToEndFixture()
	store := newMemStore()
	runs := &memRuns{}
	companies := []entity.Company{{Name: "Empresa Centro", Token: "T"}}
	o := newTestOrchestrator(companies, docs, variants, store, runs)
	ctx := context.Background()

	first, err := o.Run(ctx, ingest.RunParams{Window: testWindow})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Documents)
	assert.Equal(t, 6, first.Rows)
	assert.Equal(t, 6, first.Inserted)
	assert.Equal(t, 0, first.Duplicates)
	assert.Equal(t, 6, store.count())
	assert.Equal(t, []int{0, 50}, docs.offsets("T"))

	p55, c55 := variants.calls(55)
	assert.Equal(t, 1, p55, "variante repetida se consulta una vez por ejecución")
	assert.Equal(t, 1, c55)

	second, err := o.Run(ctx, ingest.RunParams{Window: testWindow})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 6, second.Duplicates)
	assert.Equal(t, 6, store.count())

	require.Len(t, runs.runs, 2)
	for _, r := range runs.runs {
		assert.Equal(t, entity.SyncStatusSuccess, r.Status)
		assert.Equal(t, entity.TriggerBackfill, r.Trigger)
		assert.NotNil(t, r.FinishedAt)
	}
	assert.Equal(t, 6, runs.runs[1].Duplicates)
	assert.NotEqual(t, runs.runs[0].ID, runs.runs[1].ID)
	assert.Equal(t, 2, store.schemaCalls, "el esquema se asegura una vez por ejecución")

	cp, err := store.Get(ctx, testWindow.Start, testWindow.End)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.True(t, cp.Completed)
}

// ── Posición inicial y reanudación ────────────────────────────────────────────

func twoCompanies() []entity.Company {
	return []entity.Company{{Name: "Empresa A", Token: "A"}, {Name: "Empresa B", Token: "B"}}
}

func TestOrchestrator_OffsetSoloParaLaPrimeraEmpresa(t *testing.T) {
	docs := newFakeDocuments()
	docs.set("A", 100, fullPage(120, 1, 20))
	docs.set("B", 0, fullPage(10, 500, 10))
	store := newMemStore()
	o := newTestOrchestrator(twoCompanies(), docs, newFakeVariants(), store, nil)

	sum, err := o.Run(context.Background(), ingest.RunParams{Window: testWindow, StartOffset: 100})
	require.NoError(t, err)
	assert.Equal(t, []int{100, 150}, docs.offsets("A"))
	assert.Equal(t, []int{0, 50}, docs.offsets("B"))
	assert.Equal(t, 30, sum.Documents)
	assert.Equal(t, 2, sum.Companies)
}

func TestOrchestrator_ReanudaDesdeCheckpoint(t *testing.T) {
	docs := newFakeDocuments()
	docs.set("B", 100, fullPage(130, 1, 30))
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), &entity.SyncCheckpoint{
		WindowStart:  testWindow.Start,
		WindowEnd:    testWindow.End,
		CompanyIndex: 1,
		CompanyName:  "Empresa B",
		NextOffset:   100,
	}))
	o := newTestOrchestrator(twoCompanies(), docs, newFakeVariants(), store, nil)

	sum, err := o.Run(context.Background(), ingest.RunParams{Window: testWindow, Resume: true})
	require.NoError(t, err)
	assert.Empty(t, docs.offsets("A"), "la empresa A ya estaba completa")
	assert.Equal(t, []int{100, 150}, docs.offsets("B"))
	assert.Equal(t, 30, sum.Inserted)
}

func TestOrchestrator_CheckpointDeOtraEmpresaReiniciaDesdeCero(t *testing.T) {
	cases := []struct {
		name  string
		index int
	}{
		{"empresas reordenadas", 0},
		{"índice fuera de rango", 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			docs := newFakeDocuments()
			store := newMemStore()
			require.NoError(t, store.Save(context.Background(), &entity.SyncCheckpoint{
				WindowStart:  testWindow.Start,
				WindowEnd:    testWindow.End,
				CompanyIndex: tc.index,
				CompanyName:  "Empresa B",
				NextOffset:   100,
			}))
			o := newTestOrchestrator(twoCompanies(), docs, newFakeVariants(), store, nil)

			_, err := o.Run(context.Background(), ingest.RunParams{Window: testWindow, Resume: true})
			require.NoError(t, err)
			assert.Equal(t, []int{0}, docs.offsets("A"), "no se reanuda el offset de otra empresa")
			assert.Equal(t, []int{0}, docs.offsets("B"))
		})
	}
}

func TestOrchestrator_CheckpointCompletadoReiniciaDesdeCero(t *testing.T) {
	docs := newFakeDocuments()
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), &entity.SyncCheckpoint{
		WindowStart:  testWindow.Start,
		WindowEnd:    testWindow.End,
		CompanyIndex: 1,
		Completed:    true,
	}))
	o := newTestOrchestrator(twoCompanies(), docs, newFakeVariants(), store, nil)

	_, err := o.Run(context.Background(), ingest.RunParams{Window: testWindow, Resume: true})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, docs.offsets("A"))
	assert.Equal(t, []int{0}, docs.offsets("B"))
}

func TestOrchestrator_CheckpointAvanzaPorPagina(t *testing.T) {
	docs := newFakeDocuments()
	docs.set("A", 0, fullPage(60, 1, 50))
	store := newMemStore()
	boom := errors.New("conexión cerrada")
	docs.fail = func(token string, offset int) error {
		if offset == 50 {
			return boom
		}
		return nil
	}
	o := newTestOrchestrator(twoCompanies(), docs, newFakeVariants(), store, nil)

	_, err := o.Run(context.Background(), ingest.RunParams{Window: testWindow})
	require.ErrorIs(t, err, boom)

	cp, _ := store.Get(context.Background(), testWindow.Start, testWindow.End)
	require.NotNil(t, cp)
	assert.False(t, cp.Completed)
	assert.Equal(t, 0, cp.CompanyIndex)
	assert.Equal(t, 50, cp.NextOffset, "la próxima ejecución parte en la página que falló")
	assert.Empty(t, docs.offsets("B"), "un error detiene la ejecución")
}

// ── Errores ───────────────────────────────────────────────────────────────────

func TestOrchestrator_ErrorDePersistenciaMarcaLaEjecucionFallida(t *testing.T) {
	docs, variants := endToEndFixture()
	store := newMemStore()
	boom := errors.New("disk full")
	store.failOn = func(r entity.SalesRow) error {
		if r.IDDetalle == 22 {
			return boom
		}
		return nil
	}
	runs := &memRuns{}
	o := newTestOrchestrator([]entity.Company{{Name: "Empresa", Token: "T"}}, docs, variants, store, runs)

	sum, err := o.Run(context.Background(), ingest.RunParams{Window: testWindow, Trigger: entity.TriggerDaily})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, sum.Inserted)
	assert.Equal(t, 0, store.count())

	require.Len(t, runs.runs, 1)
	assert.Equal(t, entity.SyncStatusFailed, runs.runs[0].Status)
	assert.Equal(t, entity.TriggerDaily, runs.runs[0].Trigger)
	assert.Contains(t, runs.runs[0].Error, "disk full")
}

func TestOrchestrator_ValidaParametros(t *testing.T) {
	store := newMemStore()

	o := newTestOrchestrator(nil, newFakeDocuments(), newFakeVariants(), store, nil)
	_, err := o.Run(context.Background(), ingest.RunParams{Window: testWindow})
	assert.ErrorIs(t, err, domain.ErrNoCompanies)

	o = newTestOrchestrator(twoCompanies(), newFakeDocuments(), newFakeVariants(), store, nil)
	_, err = o.Run(context.Background(), ingest.RunParams{Window: testWindow, StartCompany: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = o.Run(context.Background(), ingest.RunParams{Window: testWindow, StartOffset: -50})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
