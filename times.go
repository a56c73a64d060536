package auth

import (
	"time"

	"github.com/goliatone/go-errors"
)

// IsWithinThresholdPeriod reports whether t happened after
// now - threshold, where threshold is a duration expression
// such as "24h" or "2h30m".
func IsWithinThresholdPeriod(t time.Time, thresholdExpr string) (bool, error) {
	threshold, err := time.ParseDuration(thresholdExpr)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryBadInput, "invalid threshold expression").
			WithMetadata(map[string]any{"threshold": thresholdExpr})
	}

	return t.After(time.Now().Add(-threshold)), nil
}

// IsOutsideThresholdPeriod is the complement of IsWithinThresholdPeriod.
func IsOutsideThresholdPeriod(t time.Time, thresholdExpr string) (bool, error) {
	within, err := IsWithinThresholdPeriod(t, thresholdExpr)
	if err != nil {
		return false, err
	}
	return !within, nil
}
