package drift

import (
	perr "driftwatch/internal/platform/errors"
)

// Frame is an ordered set of named numeric columns, one row per observation.
// Features fixes the evaluation order; every listed feature must be present in
// Columns and all columns of a frame must agree on row count
type Frame struct {
	Features []string
	Columns  map[string][]float64
}

// NewFrame builds a frame from row-major records in the given feature order
func NewFrame(features []string, rows [][]float64) (Frame, error) {
	cols := make(map[string][]float64, len(features))
	for _, name := range features {
		cols[name] = make([]float64, 0, len(rows))
	}
	for i, row := range rows {
		if len(row) != len(features) {
			return Frame{}, perr.SchemaMismatchf(
				"row %d has %d values, want %d", i, len(row), len(features),
			)
		}
		for j, name := range features {
			cols[name] = append(cols[name], row[j])
		}
	}
	return Frame{Features: features, Columns: cols}, nil
}

// Rows returns the frame's row count
func (f Frame) Rows() int {
	if len(f.Features) == 0 {
		return 0
	}
	return len(f.Columns[f.Features[0]])
}

// check verifies the frame is internally consistent
func (f Frame) check(label string) error {
	rows := f.Rows()
	for _, name := range f.Features {
		col, ok := f.Columns[name]
		if !ok {
			return perr.WithField(
				perr.SchemaMismatchf("%s frame is missing column %q", label, name), name)
		}
		if len(col) != rows {
			return perr.WithField(
				perr.SchemaMismatchf("%s frame column %q has %d rows, want %d", label, name, len(col), rows), name)
		}
	}
	return nil
}

// alignFrames verifies both frames carry the same features in the same order
// and that each is internally consistent. Row counts may differ between the
// two frames
func alignFrames(current, baseline Frame) error {
	if len(current.Features) != len(baseline.Features) {
		return perr.SchemaMismatchf(
			"feature width mismatch: current has %d features, baseline has %d",
			len(current.Features), len(baseline.Features),
		)
	}
	for i, name := range current.Features {
		if baseline.Features[i] != name {
			return perr.WithField(perr.SchemaMismatchf(
				"feature order mismatch at index %d: current %q, baseline %q",
				i, name, baseline.Features[i],
			), name)
		}
	}
	if err := current.check("current"); err != nil {
		return err
	}
	return baseline.check("baseline")
}
