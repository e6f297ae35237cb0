package service

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cast"

	"driftwatch/internal/core/drift"
	"driftwatch/internal/core/metricname"
	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/services/monitor/domain"
)

// UnitPercent is the unit stamped on every published drift metric
const UnitPercent = "Percent"

// sections in fixed emission order, matching the report wire shape
var sections = []string{"data_drift", "concept_drift", "prediction_drift"}

// nowUTC is a seam for tests
var nowUTC = func() time.Time { return time.Now().UTC() }

// Publisher flattens reports into metric batches and hands them to the
// emitter in one request. It never retries; the orchestrator decides what a
// publish failure means
type Publisher struct {
	Emitter domain.EmitterPort
}

// NewPublisher constructs a Publisher
func NewPublisher(em domain.EmitterPort) *Publisher {
	return &Publisher{Emitter: em}
}

// Publish flattens the report and emits the batch
// Returns the number of metrics emitted
func (p *Publisher) Publish(ctx context.Context, modelID string, rep drift.Report) (int, error) {
	batch, err := Flatten(modelID, rep, nowUTC())
	if err != nil {
		return 0, err
	}
	if err := p.Emitter.Emit(ctx, batch); err != nil {
		return 0, perr.PublishWrap(err, "emit %d metrics for %s", len(batch), modelID)
	}
	return len(batch), nil
}

// PublishValues emits an arbitrary flat mapping for the model, keys sorted
// for deterministic batch order
func (p *Publisher) PublishValues(ctx context.Context, modelID string, values map[string]float64) (int, error) {
	at := nowUTC()
	batch := make([]domain.Metric, 0, len(values))
	for _, k := range slices.Sorted(maps.Keys(values)) {
		batch = append(batch, domain.Metric{
			Name:      metricname.Join(modelID, k),
			Value:     values[k],
			Unit:      UnitPercent,
			Timestamp: at,
		})
	}
	if err := p.Emitter.Emit(ctx, batch); err != nil {
		return 0, perr.PublishWrap(err, "emit %d metrics for %s", len(batch), modelID)
	}
	return len(batch), nil
}

// Flatten turns a report into one Metric per numeric field, sections in
// fixed order and fields sorted by key within each section. Booleans count
// as numeric and emit 0/1; strings and lists are excluded
func Flatten(modelID string, rep drift.Report, at time.Time) ([]domain.Metric, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, perr.PublishWrap(err, "flatten report for %s", modelID)
	}
	var tree map[string]map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, perr.PublishWrap(err, "flatten report for %s", modelID)
	}

	var batch []domain.Metric
	for _, section := range sections {
		fields := tree[section]
		for _, key := range slices.Sorted(maps.Keys(fields)) {
			val, ok := numeric(fields[key])
			if !ok {
				continue
			}
			batch = append(batch, domain.Metric{
				Name:      metricname.Join(modelID, section+"_"+key),
				Value:     val,
				Unit:      UnitPercent,
				Timestamp: at,
			})
		}
	}
	return batch, nil
}

func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string, []any, map[string]any, nil:
		return 0, false
	default:
		f, err := cast.ToFloat64E(t)
		if err != nil {
			return 0, false
		}
		return f, true
	}
}
