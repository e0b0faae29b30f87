package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/repository"
)

var _ repository.CheckpointRepository = (*CheckpointRepo)(nil)

// CheckpointRepo posición de avance por ventana (usable con pool o tx).
type CheckpointRepo struct {
	q Querier
}

// NewCheckpointRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCheckpointRepository(q Querier) *CheckpointRepo {
	return &CheckpointRepo{q: q}
}

// Get devuelve el checkpoint de la ventana o nil si no existe.
func (r *CheckpointRepo) Get(ctx context.Context, windowStart, windowEnd int64) (*entity.SyncCheckpoint, error) {
	query := `
		SELECT window_start, window_end, company_index, COALESCE(company_name, ''), next_offset, completed, updated_at
		FROM sync_checkpoints WHERE window_start = $1 AND window_end = $2`
	var cp entity.SyncCheckpoint
	err := r.q.QueryRow(ctx, query, windowStart, windowEnd).Scan(
		&cp.WindowStart, &cp.WindowEnd, &cp.CompanyIndex, &cp.CompanyName,
		&cp.NextOffset, &cp.Completed, &cp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}
	return &cp, nil
}

// Save crea o reemplaza el checkpoint de la ventana.
func (r *CheckpointRepo) Save(ctx context.Context, cp *entity.SyncCheckpoint) error {
	query := `
		INSERT INTO sync_checkpoints (window_start, window_end, company_index, company_name, next_offset, completed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (window_start, window_end) DO UPDATE SET
			company_index = EXCLUDED.company_index,
			company_name  = EXCLUDED.company_name,
			next_offset   = EXCLUDED.next_offset,
			completed     = EXCLUDED.completed,
			updated_at    = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		cp.WindowStart, cp.WindowEnd, cp.CompanyIndex, cp.CompanyName,
		cp.NextOffset, cp.Completed, cp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
