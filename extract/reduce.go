package extract

import (
	"fmt"
	"math"
	"sort"

	goeval "github.com/edisonguo/govaluate"
)

// aggregates of one bag of cell values. NaN cells are excluded, the
// way merged drill results ignore nodata samples.
type aggregates struct {
	mean  float64
	min   float64
	max   float64
	sum   float64
	count int
}

func aggregate(values []float64) aggregates {
	agg := aggregates{min: math.NaN(), max: math.NaN(), mean: math.NaN()}
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if agg.count == 0 || v < agg.min {
			agg.min = v
		}
		if agg.count == 0 || v > agg.max {
			agg.max = v
		}
		agg.sum += v
		agg.count++
	}
	if agg.count > 0 {
		agg.mean = agg.sum / float64(agg.count)
	}
	return agg
}

func percentile(values []float64, p float64) float64 {
	var clean []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)

	rank := p / 100 * float64(len(clean)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return clean[lo]
	}
	frac := rank - float64(lo)
	return clean[lo]*(1-frac) + clean[hi]*frac
}

// reduce applies the policy's reduction to one bag of cell values.
func reduce(values []float64, pol *Policy, expr *goeval.EvaluableExpression) (float64, error) {
	if pol.Reducer != nil {
		return pol.Reducer(values), nil
	}

	agg := aggregate(values)
	if expr != nil {
		parameters := map[string]interface{}{
			"mean":  agg.mean,
			"min":   agg.min,
			"max":   agg.max,
			"sum":   agg.sum,
			"count": float64(agg.count),
		}
		result, err := expr.Evaluate(parameters)
		if err != nil {
			return math.NaN(), fmt.Errorf("Summary expression eval error: %v", err)
		}
		switch val := result.(type) {
		case float32:
			return float64(val), nil
		case float64:
			return val, nil
		}
		return math.NaN(), fmt.Errorf("Summary expression result '%v' is not numeric", result)
	}

	switch pol.Summary {
	case SummaryMean:
		return agg.mean, nil
	case SummaryMin:
		return agg.min, nil
	case SummaryMax:
		return agg.max, nil
	case SummarySum:
		if agg.count == 0 {
			return math.NaN(), nil
		}
		return agg.sum, nil
	case SummaryPercentile:
		return percentile(values, pol.Percentile), nil
	}
	return math.NaN(), fmt.Errorf("No reduction applies for summary %v", pol.Summary)
}
