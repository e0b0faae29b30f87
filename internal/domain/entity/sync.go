package entity

import "time"

// Estados de una ejecución de sincronización.
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// Disparadores de una ejecución.
const (
	TriggerBackfill = "backfill"
	TriggerDaily    = "daily"
)

// SyncCheckpoint guarda la última posición confirmada de una importación para una ventana.
// Se escribe en la misma transacción que cada página, así que siempre refleja lo commiteado.
type SyncCheckpoint struct {
	WindowStart  int64
	WindowEnd    int64
	CompanyIndex int
	CompanyName  string
	NextOffset   int
	Completed    bool
	UpdatedAt    time.Time
}

// SyncRun registra el resultado de una invocación (backfill o diaria).
type SyncRun struct {
	ID          string
	Trigger     string // ver constantes Trigger*
	WindowStart int64
	WindowEnd   int64
	Status      string // ver constantes SyncStatus*
	Documents   int
	Rows        int
	Inserted    int
	Duplicates  int
	Error       string
	StartedAt   time.Time
	FinishedAt  *time.Time
}
