package mileage

import "errors"

var (
	// -- Validation --
	ErrInvalidPoint        = errors.New("mileage point must not be negative")
	ErrInsufficientMileage = errors.New("insufficient mileage")

	// -- Database --
	ErrFailedSaveEntry    = errors.New("failed to save mileage entry")
	ErrFailedReverseOrder = errors.New("failed to reverse order mileage")
)
