package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/repository"
)

var _ repository.SyncRunRepository = (*SyncRunRepo)(nil)

// SyncRunRepo historial de ejecuciones de la importación.
type SyncRunRepo struct {
	q Querier
}

// NewSyncRunRepository construye el adaptador.
func NewSyncRunRepository(q Querier) *SyncRunRepo {
	return &SyncRunRepo{q: q}
}

// Create registra el inicio de una ejecución. Asigna ID si viene vacío.
func (r *SyncRunRepo) Create(ctx context.Context, run *entity.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	query := `
		INSERT INTO sync_runs (id, trigger_type, window_start, window_end, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, run.ID, run.Trigger, run.WindowStart, run.WindowEnd, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("create sync run: %w", err)
	}
	return nil
}

// Finish guarda estado final, totales y error de la ejecución.
func (r *SyncRunRepo) Finish(ctx context.Context, run *entity.SyncRun) error {
	query := `
		UPDATE sync_runs
		SET status = $2, documents = $3, line_items = $4, inserted = $5, duplicates = $6,
		    error = NULLIF($7, ''), finished_at = $8
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		run.ID, run.Status, run.Documents, run.Rows, run.Inserted, run.Duplicates,
		run.Error, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("finish sync run: %w", err)
	}
	return nil
}

// ListRecent devuelve las últimas ejecuciones, más recientes primero.
func (r *SyncRunRepo) ListRecent(ctx context.Context, limit int) ([]*entity.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id::TEXT, trigger_type, window_start, window_end, status,
		       documents, line_items, inserted, duplicates, COALESCE(error, ''), started_at, finished_at
		FROM sync_runs ORDER BY started_at DESC LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var list []*entity.SyncRun
	for rows.Next() {
		var s entity.SyncRun
		if err := rows.Scan(
			&s.ID, &s.Trigger, &s.WindowStart, &s.WindowEnd, &s.Status,
			&s.Documents, &s.Rows, &s.Inserted, &s.Duplicates, &s.Error, &s.StartedAt, &s.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
