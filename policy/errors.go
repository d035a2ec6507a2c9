package policy

import "errors"

var (
	// ErrTaxesRemoved is returned by rate and split mutations after the
	// burn threshold has been crossed. Removal is permanent.
	ErrTaxesRemoved = errors.New("policy: taxes permanently removed")

	// ErrBadRate is returned when a tax rate exceeds the basis-point
	// denominator.
	ErrBadRate = errors.New("policy: tax rate exceeds 10000 bps")

	// ErrBadSplit is returned when the burn and treasury percentages sum
	// past 100.
	ErrBadSplit = errors.New("policy: burn and treasury shares exceed 100 percent")
)
