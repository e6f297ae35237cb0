// Package repo provides monitor persistence adapters
package repo

import (
	"context"

	"driftwatch/internal/platform/store"
	"driftwatch/internal/services/monitor/domain"
)

// runMetricsTable holds one row per terminal run
// Column order matches the insert rows below:
// run_id, model_id, environment, status, published, metric_count,
// data_score, concept_score, prediction_score,
// data_detected, concept_detected, prediction_detected,
// summary, started_at, finished_at
const runMetricsTable = "run_metrics"

// History records terminal run summaries in ClickHouse
type History struct {
	ch store.Clickhouse
}

// NewHistory constructs a ClickHouse-backed run history writer
func NewHistory(ch store.Clickhouse) *History { return &History{ch: ch} }

// Record implements domain.HistoryPort
func (h *History) Record(ctx context.Context, sum domain.RunSummary) error {
	var (
		dataScore, conceptScore, predScore float64
		dataHit, conceptHit, predHit       uint8
	)
	if sum.Report != nil {
		dataScore = sum.Report.Data.Score
		conceptScore = sum.Report.Concept.Score
		predScore = sum.Report.Prediction.Score
		dataHit = flag(sum.Report.Data.Detected)
		conceptHit = flag(sum.Report.Concept.Detected)
		predHit = flag(sum.Report.Prediction.Detected)
	}

	row := []any{
		sum.ID.String(),
		sum.Ref.ModelID,
		sum.Ref.Environment,
		string(sum.Status),
		flag(sum.Published),
		int64(sum.MetricCount),
		dataScore,
		conceptScore,
		predScore,
		dataHit,
		conceptHit,
		predHit,
		sum.Summary,
		sum.StartedAt,
		sum.FinishedAt,
	}
	return h.ch.Insert(ctx, runMetricsTable, [][]any{row})
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
