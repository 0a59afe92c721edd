package resolver

import (
	"fmt"
	"strings"
	"time"

	"github.com/geoflux/gridcat/catalog"
)

// Placeholder tokens understood by Expand. The vocabulary is fixed
// and closed; substitution is literal, not pattern matching.
const (
	TokenYear  = "{year}"
	TokenMonth = "{month}"
	TokenDay   = "{day}"
)

// Expand substitutes the template's placeholder tokens for each
// label, producing one locator per label in label order. Repeated
// tokens are fully substituted.
func Expand(cadence catalog.Cadence, template string, labels []string) ([]string, error) {
	if err := checkTemplate(cadence, template); err != nil {
		return nil, err
	}

	out := make([]string, len(labels))
	for i, label := range labels {
		locator, err := expandOne(cadence, template, label)
		if err != nil {
			return nil, err
		}
		out[i] = locator
	}
	return out, nil
}

func checkTemplate(cadence catalog.Cadence, template string) error {
	var required []string
	switch cadence {
	case catalog.Single:
	case catalog.Yearly:
		required = []string{TokenYear}
	case catalog.Monthly:
		required = []string{TokenYear, TokenMonth}
	case catalog.Daily:
		required = []string{TokenYear, TokenDay}
	}

	for _, token := range required {
		if !strings.Contains(template, token) {
			return &InvalidTemplateError{Template: template, Token: token}
		}
	}
	return nil
}

func expandOne(cadence catalog.Cadence, template string, label string) (string, error) {
	switch cadence {
	case catalog.Single:
		return template, nil
	case catalog.Yearly:
		return strings.ReplaceAll(template, TokenYear, label), nil
	case catalog.Monthly:
		month, err := time.Parse(MonthFormat, label)
		if err != nil {
			return "", fmt.Errorf("Bad monthly label %q: %v", label, err)
		}
		locator := strings.ReplaceAll(template, TokenYear, fmt.Sprintf("%04d", month.Year()))
		return strings.ReplaceAll(locator, TokenMonth, fmt.Sprintf("%02d", int(month.Month()))), nil
	case catalog.Daily:
		day, err := time.Parse(catalog.DateFormat, label)
		if err != nil {
			return "", fmt.Errorf("Bad daily label %q: %v", label, err)
		}
		locator := strings.ReplaceAll(template, TokenYear, fmt.Sprintf("%04d", day.Year()))
		return strings.ReplaceAll(locator, TokenDay, fmt.Sprintf("%03d", day.YearDay())), nil
	}
	return "", fmt.Errorf("Unknown cadence")
}
