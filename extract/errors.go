package extract

import "fmt"

// UsageError reports an extraction precondition violation.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func usageErrorf(format string, args ...interface{}) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// NoMatchingLayersError reports that a temporal sub-filter retained
// none of the handle's layers.
type NoMatchingLayersError struct {
	Detail string
}

func (e *NoMatchingLayersError) Error() string {
	return fmt.Sprintf("Temporal filter matches none of the handle's layers: %s", e.Detail)
}
