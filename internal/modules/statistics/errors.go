package statistics

import "fmt"

// InvalidInputError reports malformed or insufficient returns data.
// It is surfaced at load/derivation time, before any solving begins.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid returns data: %s", e.Reason)
}

// DegenerateInputError reports an asset whose deviation series has zero
// variance, which makes its correlation with other assets undefined.
// The caller decides whether to exclude the asset or abort.
type DegenerateInputError struct {
	Asset string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("asset %s has zero-variance returns, correlation undefined", e.Asset)
}
