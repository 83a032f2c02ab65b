package model

import "fmt"

// InvalidAntigenError reports an antigen value outside the valid range.
type InvalidAntigenError struct {
	Value int
}

func (e *InvalidAntigenError) Error() string {
	return fmt.Sprintf("invalid antigen value: %d", e.Value)
}
