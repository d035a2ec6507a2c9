package engine

import "errors"

var (
	// ErrBadConfig is returned when a configuration fails validation.
	ErrBadConfig = errors.New("engine: invalid configuration")

	// ErrNotAdmin rejects privileged operations from non-admin callers,
	// including every caller once the admin role is renounced.
	ErrNotAdmin = errors.New("engine: caller is not the admin")

	// ErrNoGateway rejects conversion before an exchange gateway has been
	// bound.
	ErrNoGateway = errors.New("engine: no exchange gateway bound")

	// ErrSwapLocked rejects a conversion that arrives while another
	// conversion holds the lock. The caller's state is untouched.
	ErrSwapLocked = errors.New("engine: conversion already in progress")

	// ErrNothingToConvert rejects conversion of a zero or sub-splittable
	// amount.
	ErrNothingToConvert = errors.New("engine: nothing to convert")

	// ErrBuybackExhausted rejects a buyback once the token budget is
	// spent.
	ErrBuybackExhausted = errors.New("engine: buyback budget exhausted")

	// ErrInsufficientReserve rejects spending more external asset than
	// the named earmark holds.
	ErrInsufficientReserve = errors.New("engine: insufficient external reserve")

	// ErrAccountingBroken signals that the engine's external earmarks sum
	// past its actual holdings. Like a conservation failure, it means
	// internal corruption.
	ErrAccountingBroken = errors.New("engine: external earmarks exceed holdings")
)
