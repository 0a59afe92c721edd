package extract

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/geoflux/gridcat/catalog"
	"github.com/geoflux/gridcat/raster"
	"github.com/geoflux/gridcat/resolver"
)

// Engine samples a raster handle at a feature set under an
// extraction policy. It holds no state between calls; each call is
// independent and idempotent for a fixed handle, feature set and
// policy.
type Engine struct {
	Vector  VectorProvider
	Verbose bool
}

// Extract reconciles coordinate systems, invokes the provider's
// sampling primitive once over the retained layer set and assembles
// the result table. Extraction is all-or-nothing: provider errors
// surface as-is with no partial result.
func (e *Engine) Extract(ctx context.Context, h *raster.Handle, fs *FeatureSet, pol Policy) (*Result, error) {
	expr, err := pol.Validate()
	if err != nil {
		return nil, err
	}

	kind, err := fs.Kind()
	if err != nil {
		return nil, err
	}

	layers, labels, err := retainLayers(h, pol.Filter)
	if err != nil {
		return nil, err
	}

	res := &Result{Labels: labels}

	effective := pol
	if kind == KindPoints && pol.hasSummary() {
		// Point sampling has no area to summarize over. The
		// override is surfaced, not silently applied.
		effective.Summary = SummaryNone
		effective.Reducer = nil
		effective.SummaryExpr = ""
		expr = nil
		res.Notices = append(res.Notices, fmt.Sprintf(
			"Summary %q ignored for point features; using none", pol.Summary))
	}
	res.EffectiveSummary = effectiveSummaryName(&effective)

	if len(fs.CRS) > 0 && len(h.CRS()) > 0 && fs.CRS != h.CRS() {
		if e.Vector == nil {
			return nil, usageErrorf("Feature set CRS %s differs from raster CRS %s and no vector provider is configured", fs.CRS, h.CRS())
		}
		if e.Verbose {
			log.Printf("extract: reprojecting %d features from %s to %s", fs.Len(), fs.CRS, h.CRS())
		}
		fs, err = e.Vector.Reproject(ctx, fs, h.CRS())
		if err != nil {
			return nil, fmt.Errorf("Reprojection error: %v", err)
		}
	}

	providerSummary := providerSummaryName(&effective, kind)
	coverage := effective.WeightByCoverage && kind == KindPolygons && !effective.hasSummary()
	res.HasCoverage = coverage

	req := raster.SampleRequest{
		Geometries:  fs.WKT(),
		GeometryCRS: h.CRS(),
		Layers:      layers,
		Interp:      pol.Interp.String(),
		Summary:     providerSummary,
		Coverage:    coverage,
	}

	t0 := time.Now()
	samples, err := h.Dataset().Sample(ctx, req)
	if err != nil {
		return nil, err
	}
	if e.Verbose {
		log.Printf("extract: sampled %d features over %d layers in %v", fs.Len(), len(layers), time.Since(t0))
	}

	engineReduces := effective.hasSummary() && len(providerSummary) == 0
	for _, fsamp := range samples {
		if fsamp.Feature < 0 || fsamp.Feature >= len(fs.IDs) {
			return nil, fmt.Errorf("Provider returned sample for unknown feature index %d", fsamp.Feature)
		}
		id := fs.IDs[fsamp.Feature]

		for _, cell := range fsamp.Cells {
			if len(cell.Values) != len(layers) {
				return nil, fmt.Errorf("Provider returned %d values for %d layers", len(cell.Values), len(layers))
			}
		}

		if engineReduces {
			values := make([]float64, len(layers))
			for li := range layers {
				bag := make([]float64, 0, len(fsamp.Cells))
				for _, cell := range fsamp.Cells {
					bag = append(bag, cell.Values[li])
				}
				values[li], err = reduce(bag, &effective, expr)
				if err != nil {
					return nil, err
				}
			}
			res.Rows = append(res.Rows, Row{FeatureID: id, Cell: -1, Values: values})
			continue
		}

		for _, cell := range fsamp.Cells {
			res.Rows = append(res.Rows, Row{
				FeatureID: id,
				Cell:      cell.Cell,
				Coverage:  cell.Coverage,
				Values:    cell.Values,
			})
		}
	}

	if pol.Bind {
		if !effective.hasSummary() && kind != KindPoints {
			// Row cardinality no longer matches the feature table
			// 1:1. Degrading keeps the computed values instead of
			// failing after the sampling work is done.
			res.Notices = append(res.Notices,
				"Binding is incompatible with unsummarized line/polygon extraction; returning the unbound table")
		} else {
			res.Bound = true
		}
	}

	return res, nil
}

// retainLayers re-derives the subset of the handle's layers
// matching the temporal sub-filter, preserving layer order.
func retainLayers(h *raster.Handle, sel *resolver.Selection) ([]int, []string, error) {
	all := h.Labels()
	if sel == nil || sel.IsEmpty() {
		layers := make([]int, len(all))
		for i := range all {
			layers[i] = i
		}
		return layers, all, nil
	}

	match, err := labelMatcher(all, *sel)
	if err != nil {
		return nil, nil, err
	}

	var layers []int
	var labels []string
	for i, label := range all {
		ok, err := match(label)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			layers = append(layers, i)
			labels = append(labels, label)
		}
	}

	if len(layers) == 0 {
		return nil, nil, &NoMatchingLayersError{Detail: describeSelection(*sel)}
	}
	return layers, labels, nil
}

// labelMatcher builds the per-label predicate for a selection. The
// semantics mirror temporal resolution, applied over the handle's
// already-resolved labels: year lists match year labels, date
// ranges match monthly and daily labels.
func labelMatcher(labels []string, sel resolver.Selection) (func(string) (bool, error), error) {
	if len(sel.Years) > 0 && (len(sel.Start) > 0 || len(sel.End) > 0) {
		return nil, usageErrorf("Year list and date range filters are mutually exclusive")
	}

	if len(sel.Years) > 0 {
		years := make(map[string]bool)
		for _, y := range sel.Years {
			years[fmt.Sprintf("%d", y)] = true
		}
		return func(label string) (bool, error) {
			if len(label) != 4 {
				return false, usageErrorf("Year filter applied to non-yearly layer label %q", label)
			}
			return years[label], nil
		}, nil
	}

	if len(sel.Start) == 0 || len(sel.End) == 0 {
		return nil, usageErrorf("Date filter requires both start and end dates")
	}
	if _, err := time.Parse(catalog.DateFormat, sel.Start); err != nil {
		return nil, usageErrorf("Bad start date %q: %v", sel.Start, err)
	}
	if _, err := time.Parse(catalog.DateFormat, sel.End); err != nil {
		return nil, usageErrorf("Bad end date %q: %v", sel.End, err)
	}
	if sel.Start > sel.End {
		return nil, usageErrorf("Start date %s after end date %s", sel.Start, sel.End)
	}
	return func(label string) (bool, error) {
		switch len(label) {
		case len(resolver.MonthFormat):
			return label >= sel.Start[:len(resolver.MonthFormat)] && label <= sel.End[:len(resolver.MonthFormat)], nil
		case len(catalog.DateFormat):
			return label >= sel.Start && label <= sel.End, nil
		}
		return false, usageErrorf("Date filter applied to non-dated layer label %q", label)
	}, nil
}

func describeSelection(sel resolver.Selection) string {
	if len(sel.Years) > 0 {
		return fmt.Sprintf("years %v", sel.Years)
	}
	return fmt.Sprintf("dates [%s, %s]", sel.Start, sel.End)
}

func effectiveSummaryName(pol *Policy) string {
	if pol.Reducer != nil {
		return "reducer"
	}
	if len(pol.SummaryExpr) > 0 {
		return fmt.Sprintf("expr(%s)", pol.SummaryExpr)
	}
	return pol.Summary.String()
}

// providerSummaryName chooses the summary pushed down to the
// provider's sampling primitive. Built-in bag reductions are
// delegated; percentile, caller reducers and expressions need the
// full bag and reduce engine-side.
func providerSummaryName(pol *Policy, kind GeometryKind) string {
	if kind == KindPoints || !pol.hasSummary() {
		return raster.ProviderSummaryNone
	}
	if pol.Reducer != nil || len(pol.SummaryExpr) > 0 {
		return raster.ProviderSummaryNone
	}
	switch pol.Summary {
	case SummaryMean:
		return raster.ProviderSummaryMean
	case SummaryMin:
		return raster.ProviderSummaryMin
	case SummaryMax:
		return raster.ProviderSummaryMax
	case SummarySum:
		return raster.ProviderSummarySum
	}
	return raster.ProviderSummaryNone
}
