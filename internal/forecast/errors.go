package forecast

import (
	"errors"
	"fmt"
)

// ErrInsufficientData matches every InsufficientDataError through errors.Is.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError reports how many months an operation needed and how many it had.
type InsufficientDataError struct {
	Required  int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("Insufficient data. Need at least %d months, have %d.", e.Required, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientData) hold.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

func insufficient(required, available int) error {
	return &InsufficientDataError{Required: required, Available: available}
}
