package resolver

import "fmt"

// UsageError reports a caller precondition violation: a selection
// kind that does not match the dataset cadence, or a malformed
// date range. Never retried.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func usageErrorf(format string, args ...interface{}) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// NoOverlapError reports that the requested temporal window does
// not intersect the dataset's available window.
type NoOverlapError struct {
	ID string
}

func (e *NoOverlapError) Error() string {
	return fmt.Sprintf("Requested time range does not overlap the available range of dataset %s", e.ID)
}

// InvalidTemplateError reports a URL template missing a required
// placeholder token for its cadence.
type InvalidTemplateError struct {
	Template string
	Token    string
}

func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("URL template %q is missing required token %s", e.Template, e.Token)
}
