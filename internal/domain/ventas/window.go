package ventas

import (
	"fmt"
	"time"

	"github.com/jhoicas/ventas-sync/internal/domain"
)

// BusinessOffset es el desfase fijo de la zona horaria de negocio (Chile continental, UTC-3).
// No se aplica ninguna lógica de horario de verano.
const BusinessOffset = -3 * time.Hour

// DateLayout formato de fechas explícitas (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// BusinessZone zona horaria fija usada para ventanas y timestamps.
var BusinessZone = time.FixedZone("UTC-3", int(BusinessOffset/time.Second))

// Rango histórico por defecto cuando no se indican fechas.
const (
	defaultFrom = "2024-01-01"
	defaultTo   = "2025-12-31"
)

// DateWindow rango [Start, End] en segundos epoch UTC, inclusivo en ambos extremos.
type DateWindow struct {
	Start int64
	End   int64
}

// String formatea la ventana en hora local de negocio para los logs.
func (w DateWindow) String() string {
	const layout = "02-01-2006 15:04:05"
	return fmt.Sprintf("%s a %s",
		time.Unix(w.Start, 0).In(BusinessZone).Format(layout),
		time.Unix(w.End, 0).In(BusinessZone).Format(layout))
}

// Days devuelve la cantidad de días calendario que cubre la ventana.
func (w DateWindow) Days() int {
	return int((w.End-w.Start)/86400) + 1
}

// DayWindow ventana de un solo día de negocio: 00:00:01 a 23:59:59 hora local.
// El segundo inicial se desplaza +1 para evitar la ambigüedad de medianoche.
func DayWindow(day time.Time) DateWindow {
	return spanWindow(day, day)
}

// YesterdayWindow ventana del día anterior a now, interpretado en la zona de negocio.
func YesterdayWindow(now time.Time) DateWindow {
	return DayWindow(now.In(BusinessZone).AddDate(0, 0, -1))
}

// DefaultWindow rango histórico completo usado cuando no se indican fechas.
func DefaultWindow() DateWindow {
	w, _ := RangeWindow(defaultFrom, defaultTo)
	return w
}

// RangeWindow construye la ventana para fechas explícitas YYYY-MM-DD (ambas inclusive).
// Si ambas vienen vacías se usa DefaultWindow.
func RangeWindow(from, to string) (DateWindow, error) {
	if from == "" && to == "" {
		return DefaultWindow(), nil
	}
	if from == "" || to == "" {
		return DateWindow{}, fmt.Errorf("%w: se requieren fecha inicio y fecha fin", domain.ErrInvalidInput)
	}
	start, err := time.ParseInLocation(DateLayout, from, BusinessZone)
	if err != nil {
		return DateWindow{}, fmt.Errorf("%w: fecha inicio %q", domain.ErrInvalidInput, from)
	}
	end, err := time.ParseInLocation(DateLayout, to, BusinessZone)
	if err != nil {
		return DateWindow{}, fmt.Errorf("%w: fecha fin %q", domain.ErrInvalidInput, to)
	}
	if end.Before(start) {
		return DateWindow{}, fmt.Errorf("%w: fecha fin anterior a fecha inicio", domain.ErrInvalidInput)
	}
	return spanWindow(start, end), nil
}

func spanWindow(first, last time.Time) DateWindow {
	f := first.In(BusinessZone)
	l := last.In(BusinessZone)
	start := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 1, 0, BusinessZone)
	end := time.Date(l.Year(), l.Month(), l.Day(), 23, 59, 59, 0, BusinessZone)
	return DateWindow{Start: start.Unix(), End: end.Unix()}
}
