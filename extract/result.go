package extract

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Row is one result row: one feature, or one (feature, cell) pair
// when areal features are extracted without summarization.
type Row struct {
	FeatureID string
	// Cell is the provider's cell index, or -1 for summarised and
	// point rows.
	Cell int
	// Coverage is the fraction of the cell covered by the feature,
	// when coverage weighting was requested.
	Coverage float64
	// Values holds one value per retained layer, in label order.
	Values []float64
}

// Result is the extraction output table: one value column per
// retained layer label.
type Result struct {
	// Labels are the retained layer labels actually used, in layer
	// order. They are always reported back, never assumed.
	Labels []string
	Rows   []Row
	// EffectiveSummary is the reduction actually applied, which
	// may differ from the requested one (points force "none").
	EffectiveSummary string
	// Bound reports whether rows are 1:1 with the input features.
	Bound bool
	// HasCoverage reports whether the Coverage column is populated.
	HasCoverage bool
	// Notices carry advisory outcomes: policy overrides, partial
	// matches, binding fallbacks.
	Notices []string
}

// EncodeCSV writes the result table with one row per Row and one
// column per retained label.
func (r *Result) EncodeCSV(w io.Writer) error {
	var header strings.Builder
	header.WriteString("feature_id")
	if !r.Bound {
		header.WriteString(",cell")
	}
	if r.HasCoverage {
		header.WriteString(",coverage")
	}
	for _, label := range r.Labels {
		header.WriteString("," + label)
	}
	if _, err := fmt.Fprintf(w, "%s\n", header.String()); err != nil {
		return err
	}

	for _, row := range r.Rows {
		var line strings.Builder
		line.WriteString(row.FeatureID)
		if !r.Bound {
			line.WriteString(fmt.Sprintf(",%d", row.Cell))
		}
		if r.HasCoverage {
			line.WriteString(fmt.Sprintf(",%f", row.Coverage))
		}
		for _, val := range row.Values {
			line.WriteString(",")
			if !math.IsNaN(val) {
				line.WriteString(fmt.Sprintf("%f", val))
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", line.String()); err != nil {
			return err
		}
	}
	return nil
}
