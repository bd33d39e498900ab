package adsb

import "errors"

// Errors returned when a message value would break its invariants
var (
	ErrNegativeTimestamp    = errors.New("negative timestamp")
	ErrInvalidParity        = errors.New("parity must be 0 or 1")
	ErrCoordinateOutOfRange = errors.New("normalized coordinate outside [0, 1)")
	ErrInvalidCallSign      = errors.New("invalid callsign")
	ErrNonFiniteAltitude    = errors.New("altitude is not finite")
	ErrFrameLength          = errors.New("unexpected frame length")
)
