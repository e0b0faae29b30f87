package ventas_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-sync/internal/domain"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
)

func TestDayWindow_DiaDeNegocio(t *testing.T) {
	day := time.Date(2024, 3, 15, 12, 0, 0, 0, ventas.BusinessZone)
	w := ventas.DayWindow(day)

	// 00:00:01 y 23:59:59 hora local = 3 horas más en UTC.
	assert.Equal(t, time.Date(2024, 3, 15, 3, 0, 1, 0, time.UTC).Unix(), w.Start)
	assert.Equal(t, time.Date(2024, 3, 16, 2, 59, 59, 0, time.UTC).Unix(), w.End)
	assert.Equal(t, int64(1710471601), w.Start)
	assert.Equal(t, int64(1710557999), w.End)
	assert.Equal(t, 1, w.Days())
}

func TestRangeWindow_FechasExplicitas(t *testing.T) {
	w, err := ventas.RangeWindow("2024-03-15", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, ventas.DayWindow(time.Date(2024, 3, 15, 0, 0, 0, 0, ventas.BusinessZone)), w)

	w, err = ventas.RangeWindow("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, 31, w.Days())
}

func TestRangeWindow_SinFechasUsaRangoHistorico(t *testing.T) {
	w, err := ventas.RangeWindow("", "")
	require.NoError(t, err)
	assert.Equal(t, ventas.DefaultWindow(), w)
	assert.Equal(t, time.Date(2024, 1, 1, 3, 0, 1, 0, time.UTC).Unix(), w.Start)
	assert.Equal(t, time.Date(2026, 1, 1, 2, 59, 59, 0, time.UTC).Unix(), w.End)
}

func TestRangeWindow_Invalida(t *testing.T) {
	cases := map[string][2]string{
		"solo inicio":    {"2024-03-01", ""},
		"formato malo":   {"15/03/2024", "2024-03-16"},
		"fin antes":      {"2024-03-10", "2024-03-01"},
		"fin malformado": {"2024-03-10", "2024-13-40"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ventas.RangeWindow(c[0], c[1])
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestYesterdayWindow_UsaZonaDeNegocio(t *testing.T) {
	// 01:30 UTC del 16 todavía es el 15 en Chile (22:30), así que "ayer" es el 14.
	now := time.Date(2024, 3, 16, 1, 30, 0, 0, time.UTC)
	w := ventas.YesterdayWindow(now)
	assert.Equal(t, ventas.DayWindow(time.Date(2024, 3, 14, 0, 0, 0, 0, ventas.BusinessZone)), w)
}

func TestDateWindow_String(t *testing.T) {
	w := ventas.DayWindow(time.Date(2024, 3, 15, 0, 0, 0, 0, ventas.BusinessZone))
	assert.Equal(t, "15-03-2024 00:00:01 a 15-03-2024 23:59:59", w.String())
}
