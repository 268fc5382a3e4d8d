package insights

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData marks a run skipped because the user has too
	// little history. Use errors.As with *SkipError for the reason.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNoInsights marks a run where the model produced nothing usable.
	ErrNoInsights = errors.New("model generated no valid insights")
)

// SkipError reports which minimum a user failed to reach.
type SkipError struct {
	Reason   string
	Count    int
	Required int
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("%s: %d transactions, need %d", e.Reason, e.Count, e.Required)
}

// Is makes errors.Is(err, ErrInsufficientData) match.
func (e *SkipError) Is(target error) bool {
	return target == ErrInsufficientData
}
