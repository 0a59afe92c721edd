// Package resolver turns a catalog record plus a temporal selection
// into the ordered list of time labels and concrete resource
// locators for one multi-layer dataset.
package resolver

import (
	"fmt"
	"sort"
	"time"

	"github.com/geoflux/gridcat/catalog"
)

// DefaultDailyWindow bounds the number of layers resolved for a
// daily dataset when the caller supplies no selection. Daily
// archives span decades and an unbounded default would construct
// tens of thousands of locators.
const DefaultDailyWindow = 30

// MonthFormat is the label format of monthly layers.
const MonthFormat = "2006-01"

// Selection is the caller's temporal filter: a year list for yearly
// datasets, or a date range for monthly and daily datasets, or
// neither for the full available range.
type Selection struct {
	Years []int
	Start string
	End   string
}

func (s Selection) hasYears() bool {
	return len(s.Years) > 0
}

func (s Selection) hasDates() bool {
	return len(s.Start) > 0 || len(s.End) > 0
}

func (s Selection) IsEmpty() bool {
	return !s.hasYears() && !s.hasDates()
}

func (s Selection) dateRange() (time.Time, time.Time, error) {
	if len(s.Start) == 0 || len(s.End) == 0 {
		return time.Time{}, time.Time{}, usageErrorf("Date selection requires both start and end dates")
	}
	start, err := time.Parse(catalog.DateFormat, s.Start)
	if err != nil {
		return time.Time{}, time.Time{}, usageErrorf("Bad start date %q: %v", s.Start, err)
	}
	end, err := time.Parse(catalog.DateFormat, s.End)
	if err != nil {
		return time.Time{}, time.Time{}, usageErrorf("Bad end date %q: %v", s.End, err)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, usageErrorf("Start date %s after end date %s", s.Start, s.End)
	}
	return start, end, nil
}

// Resolution is the outcome of resolving a selection against a
// record: the matched labels in ascending order, the requested
// labels that were not available, and any advisory notices.
type Resolution struct {
	Labels    []string
	Unmatched []string
	Notices   []string
}

// Resolve computes the ordered, deduplicated set of time labels that
// are both requested and available for the record. A partial match
// is an advisory, not a failure; an empty match is a NoOverlapError.
func Resolve(rec *catalog.Record, sel Selection) (*Resolution, error) {
	if sel.hasYears() && sel.hasDates() {
		return nil, usageErrorf("Year list and date range selections are mutually exclusive")
	}

	switch rec.Cadence {
	case catalog.Single:
		if !sel.IsEmpty() {
			return nil, usageErrorf("Dataset %s has a single static layer; temporal selection is not supported", rec.ID)
		}
		return &Resolution{Labels: []string{rec.ID}}, nil
	case catalog.Yearly:
		return resolveYearly(rec, sel)
	case catalog.Monthly:
		return resolveMonthly(rec, sel)
	case catalog.Daily:
		return resolveDaily(rec, sel)
	}
	return nil, usageErrorf("Dataset %s has unknown cadence", rec.ID)
}

func resolveYearly(rec *catalog.Record, sel Selection) (*Resolution, error) {
	if sel.hasDates() {
		return nil, usageErrorf("Dataset %s is yearly; select years, not a date range", rec.ID)
	}

	res := &Resolution{}
	if !sel.hasYears() {
		for year := rec.MinYear; year <= rec.MaxYear; year++ {
			res.Labels = append(res.Labels, fmt.Sprintf("%d", year))
		}
		return res, nil
	}

	requested := dedupYears(sel.Years)
	for _, year := range requested {
		if year >= rec.MinYear && year <= rec.MaxYear {
			res.Labels = append(res.Labels, fmt.Sprintf("%d", year))
		} else {
			res.Unmatched = append(res.Unmatched, fmt.Sprintf("%d", year))
		}
	}

	if len(res.Labels) == 0 {
		return nil, &NoOverlapError{ID: rec.ID}
	}
	notePartial(res, len(requested))
	return res, nil
}

func resolveMonthly(rec *catalog.Record, sel Selection) (*Resolution, error) {
	if sel.hasYears() {
		return nil, usageErrorf("Dataset %s is monthly; select a date range, not years", rec.ID)
	}

	minDate, maxDate, err := rec.DateBounds()
	if err != nil {
		return nil, err
	}
	availStart := time.Date(minDate.Year(), minDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	availEnd := time.Date(maxDate.Year(), maxDate.Month(), 1, 0, 0, 0, 0, time.UTC)

	reqStart, reqEnd := availStart, availEnd
	nRequested := 0
	res := &Resolution{}
	if sel.hasDates() {
		start, end, err := sel.dateRange()
		if err != nil {
			return nil, err
		}
		reqStart = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		reqEnd = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
		for month := reqStart; !month.After(reqEnd); month = month.AddDate(0, 1, 0) {
			nRequested++
			if month.Before(availStart) || month.After(availEnd) {
				res.Unmatched = append(res.Unmatched, month.Format(MonthFormat))
			}
		}
	}

	for month := maxTime(reqStart, availStart); !month.After(minTime(reqEnd, availEnd)); month = month.AddDate(0, 1, 0) {
		res.Labels = append(res.Labels, month.Format(MonthFormat))
	}

	if len(res.Labels) == 0 {
		return nil, &NoOverlapError{ID: rec.ID}
	}
	if nRequested > 0 {
		notePartial(res, nRequested)
	}
	return res, nil
}

func resolveDaily(rec *catalog.Record, sel Selection) (*Resolution, error) {
	if sel.hasYears() {
		return nil, usageErrorf("Dataset %s is daily; select a date range, not years", rec.ID)
	}

	availStart, availEnd, err := rec.DateBounds()
	if err != nil {
		return nil, err
	}

	res := &Resolution{}
	if !sel.hasDates() {
		for day, n := availStart, 0; !day.After(availEnd) && n < DefaultDailyWindow; day, n = day.AddDate(0, 0, 1), n+1 {
			res.Labels = append(res.Labels, day.Format(catalog.DateFormat))
		}
		res.Notices = append(res.Notices, fmt.Sprintf(
			"No date range given for daily dataset %s; defaulting to the first %d available days (%s to %s)",
			rec.ID, len(res.Labels), res.Labels[0], res.Labels[len(res.Labels)-1]))
		return res, nil
	}

	reqStart, reqEnd, err := sel.dateRange()
	if err != nil {
		return nil, err
	}

	nRequested := 0
	for day := reqStart; !day.After(reqEnd); day = day.AddDate(0, 0, 1) {
		nRequested++
		if day.Before(availStart) || day.After(availEnd) {
			res.Unmatched = append(res.Unmatched, day.Format(catalog.DateFormat))
		} else {
			res.Labels = append(res.Labels, day.Format(catalog.DateFormat))
		}
	}

	if len(res.Labels) == 0 {
		return nil, &NoOverlapError{ID: rec.ID}
	}
	notePartial(res, nRequested)
	return res, nil
}

// notePartial records the partial-overlap advisory. The matched
// label set is always reported back via Labels; the notice only
// surfaces what was dropped.
func notePartial(res *Resolution, nRequested int) {
	if len(res.Unmatched) == 0 {
		return
	}
	res.Notices = append(res.Notices, fmt.Sprintf(
		"%d of %d requested time steps are not available and were dropped: %v",
		len(res.Unmatched), nRequested, res.Unmatched))
}

func dedupYears(years []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, year := range years {
		if !seen[year] {
			seen[year] = true
			out = append(out, year)
		}
	}
	sort.Ints(out)
	return out
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
