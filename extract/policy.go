package extract

import (
	"fmt"

	goeval "github.com/edisonguo/govaluate"
	"github.com/geoflux/gridcat/raster"
	"github.com/geoflux/gridcat/resolver"
)

// Interp is the point sampling interpolation mode.
type Interp int

const (
	Nearest Interp = iota
	Bilinear
)

func (i Interp) String() string {
	if i == Bilinear {
		return raster.InterpBilinear
	}
	return raster.InterpNearest
}

// Summary selects the reduction applied to the bag of cell values
// intersected by each feature.
type Summary int

const (
	SummaryNone Summary = iota
	SummaryMean
	SummaryMin
	SummaryMax
	SummarySum
	SummaryPercentile
)

func (s Summary) String() string {
	switch s {
	case SummaryNone:
		return "none"
	case SummaryMean:
		return "mean"
	case SummaryMin:
		return "min"
	case SummaryMax:
		return "max"
	case SummarySum:
		return "sum"
	case SummaryPercentile:
		return "percentile"
	}
	return fmt.Sprintf("summary(%d)", int(s))
}

// Policy is the extraction policy of one call.
type Policy struct {
	Interp  Interp
	Summary Summary
	// Percentile in [0, 100], used when Summary is
	// SummaryPercentile.
	Percentile float64
	// Reducer is a caller-supplied reduction over the bag of cell
	// values. It must be total and side-effect-free. Overrides
	// Summary when set.
	Reducer func([]float64) float64
	// SummaryExpr is an expression over the precomputed aggregate
	// variables mean, min, max, sum and count, evaluated per
	// feature per layer. Overrides Summary when set.
	SummaryExpr string
	// WeightByCoverage reports per-cell coverage fractions. Only
	// meaningful for polygon features with no summary.
	WeightByCoverage bool
	// Filter retains a subset of the handle's layers, with the
	// same semantics as temporal resolution but applied over
	// already-resolved labels.
	Filter *resolver.Selection
	// Bind joins the extracted columns back onto the feature set,
	// one row per feature.
	Bind bool
}

// exprVariables is the closed variable vocabulary of SummaryExpr.
var exprVariables = map[string]struct{}{
	"mean":  {},
	"min":   {},
	"max":   {},
	"sum":   {},
	"count": {},
}

// parseSummaryExpr parses and validates a summary expression
// against the allowed variable vocabulary.
func parseSummaryExpr(text string) (*goeval.EvaluableExpression, error) {
	expr, err := goeval.NewEvaluableExpression(text)
	if err != nil {
		return nil, usageErrorf("Summary expression %q: %v", text, err)
	}

	for _, token := range expr.Tokens() {
		if token.Kind != goeval.VARIABLE {
			continue
		}
		varName, ok := token.Value.(string)
		if !ok {
			return nil, usageErrorf("Summary expression variable token '%v' failed to cast string", token.Value)
		}
		if _, found := exprVariables[varName]; !found {
			return nil, usageErrorf("Summary expression variable %v is not supported. Valid variables are mean, min, max, sum, count", varName)
		}
	}
	return expr, nil
}

// Validate checks the policy's internal consistency and returns the
// parsed summary expression, if any.
func (p *Policy) Validate() (*goeval.EvaluableExpression, error) {
	if p.Reducer != nil && len(p.SummaryExpr) > 0 {
		return nil, usageErrorf("Reducer and SummaryExpr are mutually exclusive")
	}
	if p.Summary == SummaryPercentile && (p.Percentile < 0 || p.Percentile > 100) {
		return nil, usageErrorf("Percentile %v out of range [0, 100]", p.Percentile)
	}
	if len(p.SummaryExpr) > 0 {
		return parseSummaryExpr(p.SummaryExpr)
	}
	return nil, nil
}

// hasSummary reports whether any reduction applies.
func (p *Policy) hasSummary() bool {
	return p.Summary != SummaryNone || p.Reducer != nil || len(p.SummaryExpr) > 0
}
