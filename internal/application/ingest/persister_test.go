package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-sync/internal/application/ingest"
	"github.com/jhoicas/ventas-sync/internal/domain/entity"
)

func pageRows(ids ...int64) []entity.SalesRow {
	d := doc(1, "Centro")
	for _, id := range ids {
		d.Details = append(d.Details, line(id, 0, 100))
	}
	return ingest.MapDocument(d, nil, "Empresa")
}

func TestPersister_CuentaInsertadasYDuplicadas(t *testing.T) {
	store := newMemStore()
	p := ingest.NewPersister(store, zerolog.Nop())
	ctx := context.Background()

	res, err := p.PersistPage(ctx, pageRows(1, 2, 3), nil)
	require.NoError(t, err)
	assert.Equal(t, ingest.PageResult{Inserted: 3}, res)

	res, err = p.PersistPage(ctx, pageRows(2, 3, 4), nil)
	require.NoError(t, err)
	assert.Equal(t, ingest.PageResult{Inserted: 1, Duplicates: 2}, res)

	assert.Equal(t, 4, store.count())
	assert.Equal(t, 4, p.Inserted())
}

func TestPersister_MismaLineaOtraSucursalNoEsDuplicado(t *testing.T) {
	store := newMemStore()
	p := ingest.NewPersister(store, zerolog.Nop())

	rows := pageRows(1)
	other := rows[0]
	other.Sucursal = "Norte"

	res, err := p.PersistPage(context.Background(), append(rows, other), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
}

func TestPersister_ErrorDescartaLaPaginaCompleta(t *testing.T) {
	store := newMemStore()
	boom := errors.New("value too long for type character varying(100)")
	store.failOn = func(r entity.SalesRow) error {
		if r.IDDetalle == 3 {
			return boom
		}
		return nil
	}
	p := ingest.NewPersister(store, zerolog.Nop())
	cp := &entity.SyncCheckpoint{WindowStart: testWindow.Start, WindowEnd: testWindow.End, NextOffset: 50}

	res, err := p.PersistPage(context.Background(), pageRows(1, 2, 3, 4), cp)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ingest.PageResult{}, res, "los contadores solo se informan tras el commit")

	assert.Equal(t, 0, store.count(), "las filas 1 y 2 no deben quedar persistidas")
	assert.Equal(t, 1, store.rollbacks)
	got, _ := store.Get(context.Background(), testWindow.Start, testWindow.End)
	assert.Nil(t, got, "el checkpoint se descarta junto con la página")
	assert.Equal(t, 0, p.Inserted())
}

func TestPersister_CheckpointEnLaMismaTransaccion(t *testing.T) {
	store := newMemStore()
	p := ingest.NewPersister(store, zerolog.Nop())
	cp := &entity.SyncCheckpoint{
		WindowStart:  testWindow.Start,
		WindowEnd:    testWindow.End,
		CompanyIndex: 1,
		NextOffset:   100,
	}

	_, err := p.PersistPage(context.Background(), pageRows(1), cp)
	require.NoError(t, err)

	got, err := store.Get(context.Background(), testWindow.Start, testWindow.End)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.CompanyIndex)
	assert.Equal(t, 100, got.NextOffset)
	assert.Equal(t, 1, store.commits)
}
