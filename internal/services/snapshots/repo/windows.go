package repo

import (
	"context"
	"time"

	"driftwatch/internal/platform/store"
	"driftwatch/internal/services/snapshots/domain"
)

// Windows reads observation windows from ClickHouse
type Windows struct {
	ch store.Clickhouse
}

// NewWindows constructs a ClickHouse-backed observation reader
func NewWindows(ch store.Clickhouse) *Windows { return &Windows{ch: ch} }

// Window returns observations for ref in [from, to) ordered by recording time
func (w *Windows) Window(ctx context.Context, ref domain.Ref, from, to time.Time) ([]domain.Observation, error) {
	rows, err := w.ch.Query(ctx, `
		SELECT recorded_at, features, score, predicted_label, actual_label
		FROM observations
		WHERE model_id = ? AND environment = ?
		  AND recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at`,
		ref.ModelID, ref.Environment, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(&o.RecordedAt, &o.Features, &o.Score, &o.Predicted, &o.Actual); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
