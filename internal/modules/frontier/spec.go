// Package frontier drives the parametric μ sweep that traces the efficient
// frontier, and computes the fixed reference strategies it is compared to.
package frontier

import (
	"fmt"
	"math"

	"madfolio/pkg/formulas"
)

// Spacing selects how sweep points are distributed over [Min, Max].
type Spacing string

const (
	SpacingLinear Spacing = "linear"
	SpacingLog    Spacing = "log"
)

// ConfigurationError reports an invalid μ sweep specification.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid sweep configuration: %s", e.Reason)
}

// SweepSpec describes a μ sweep: Points values spaced linearly or
// logarithmically over [Min, Max]. The observed default is 100 log-spaced
// points over [0.1, 10^1.5], but any positive increasing range is valid.
type SweepSpec struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Points  int     `json:"points"`
	Spacing Spacing `json:"spacing"`
}

// Validate checks the spec without generating values.
func (s SweepSpec) Validate() error {
	if s.Points < 1 {
		return &ConfigurationError{Reason: fmt.Sprintf("points must be >= 1, got %d", s.Points)}
	}
	if s.Min <= 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("min must be > 0, got %g", s.Min)}
	}
	if s.Points > 1 && s.Max <= s.Min {
		return &ConfigurationError{Reason: fmt.Sprintf("max (%g) must exceed min (%g)", s.Max, s.Min)}
	}
	switch s.Spacing {
	case SpacingLinear, SpacingLog:
	default:
		return &ConfigurationError{Reason: fmt.Sprintf("unknown spacing %q", s.Spacing)}
	}
	return nil
}

// MuValues generates the μ sequence described by the spec, in increasing
// order.
func (s SweepSpec) MuValues() ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Spacing == SpacingLog {
		return formulas.Logspace(math.Log10(s.Min), math.Log10(s.Max), s.Points), nil
	}
	return formulas.Linspace(s.Min, s.Max, s.Points), nil
}

// ValidateMuValues checks an explicit μ sequence: non-empty, strictly
// positive, strictly increasing.
func ValidateMuValues(mus []float64) error {
	if len(mus) == 0 {
		return &ConfigurationError{Reason: "empty mu sequence"}
	}
	for i, mu := range mus {
		if mu <= 0 {
			return &ConfigurationError{Reason: fmt.Sprintf("mu[%d] = %g is not positive", i, mu)}
		}
		if i > 0 && mu <= mus[i-1] {
			return &ConfigurationError{Reason: fmt.Sprintf("mu sequence not increasing at index %d", i)}
		}
	}
	return nil
}
