package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors
	ErrInvalidOption      = errors.New("invalid option")
	ErrInvalidMeasure     = fmt.Errorf("%w: measure", ErrInvalidOption)
	ErrInvalidAlternative = fmt.Errorf("%w: alternative", ErrInvalidOption)
	ErrInvalidTies        = fmt.Errorf("%w: tie policy", ErrInvalidOption)
	ErrInvalidScaling     = fmt.Errorf("%w: scaling", ErrInvalidOption)
	ErrInvalidAlpha       = fmt.Errorf("%w: alpha outside [0,1]", ErrInvalidOption)

	// Shape/content errors
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrPartialMismatch = fmt.Errorf("%w: incompatible partial results", ErrShapeMismatch)
	ErrSetMismatch     = fmt.Errorf("%w: curve sets disagree on function count", ErrShapeMismatch)

	// Degenerate numeric inputs
	ErrDegenerateInput = errors.New("degenerate input")
	ErrDegenerateScale = fmt.Errorf("%w: zero pointwise scale against nonzero residual", ErrDegenerateInput)
	ErrTooFewCurves    = fmt.Errorf("%w: need at least two curves", ErrDegenerateInput)
	ErrEmptyDomain     = fmt.Errorf("%w: empty argument domain", ErrDegenerateInput)
	ErrUnorderedDomain = fmt.Errorf("%w: argument values not strictly increasing", ErrDegenerateInput)
)

// Error constructors with context
func NewOptionError(field string, value interface{}) error {
	return fmt.Errorf("%w: unrecognized %s %q", ErrInvalidOption, field, fmt.Sprintf("%v", value))
}

func NewShapeError(what string, want, got int) error {
	return fmt.Errorf("%w: %s: want %d, got %d", ErrShapeMismatch, what, want, got)
}

// Error checking helpers
func IsOptionError(err error) bool {
	return errors.Is(err, ErrInvalidOption)
}

func IsShapeError(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}

func IsDegenerateError(err error) bool {
	return errors.Is(err, ErrDegenerateInput)
}
