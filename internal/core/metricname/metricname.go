// Package metricname owns the naming policy for published metrics: the
// canonical `{model_id}/{metric_key}` form and its deterministic mapping into
// the telemetry backend charset
// Pipeline order
// 1 Unicode NFKD normalization
// 2 Case folding
// 3 Remove combining marks
// 4 Width fold fullwidth to ASCII
// 5 Map anything outside [a-z0-9_] to '_'
// 6 Collapse '_' runs, trim edges, prefix '_' when starting with a digit
package metricname

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),                       // unicode case folding
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			width.Fold,                         // map fullwidth forms to ASCII
		)
	},
}

// Join builds the canonical metric name for one model's metric key
func Join(modelID, key string) string { return modelID + "/" + key }

// Split cuts a canonical name into its model and key parts.
// A name without a separator is all key
func Split(name string) (modelID, key string) {
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// Metric folds s into the telemetry backend charset [a-z0-9_] following the
// pipeline described above. The result is never empty and never starts with
// a digit
func Metric(s string) string {
	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	return charsetFold(ns)
}

// charsetFold maps runes outside [a-z0-9] to '_', collapsing separator runs
// and trimming edges
func charsetFold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSep := true // swallow leading separators
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastSep = false
			continue
		}
		if !lastSep {
			b.WriteByte('_')
			lastSep = true
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		return "_" + out
	}
	return out
}
