package adsb

import (
	"fmt"
	"math"

	"adsbtrack/internal/bits"
)

// PositionMessage carries the barometric altitude and raw CPR fractions of an airborne aircraft
type PositionMessage struct {
	timestampNs int64
	address     IcaoAddress
	altitude    float64
	parity      uint8
	x           float64
	y           float64
}

// NewPositionMessage builds a position message, checking its invariants.
// x and y are the normalized CPR longitude and latitude.
func NewPositionMessage(timestampNs int64, address IcaoAddress, altitude float64, parity uint8, x, y float64) (PositionMessage, error) {
	if timestampNs < 0 {
		return PositionMessage{}, fmt.Errorf("%w: %d", ErrNegativeTimestamp, timestampNs)
	}
	if math.IsNaN(altitude) || math.IsInf(altitude, 0) {
		return PositionMessage{}, fmt.Errorf("%w: %v", ErrNonFiniteAltitude, altitude)
	}
	if parity > 1 {
		return PositionMessage{}, fmt.Errorf("%w: %d", ErrInvalidParity, parity)
	}
	if !(x >= 0 && x < 1) || !(y >= 0 && y < 1) {
		return PositionMessage{}, fmt.Errorf("%w: x=%v y=%v", ErrCoordinateOutOfRange, x, y)
	}

	return PositionMessage{
		timestampNs: timestampNs,
		address:     address,
		altitude:    altitude,
		parity:      parity,
		x:           x,
		y:           y,
	}, nil
}

// DecodePosition decodes an airborne position payload. ok is false when the
// altitude field holds an invalid Gillham code.
func DecodePosition(raw RawMessage) (PositionMessage, bool) {
	altitude, ok := decodeAltitude(bits.ExtractUint(raw.Payload, AltitudeStart, AltitudeBits))
	if !ok {
		return PositionMessage{}, false
	}

	parity := uint8(bits.ExtractUint(raw.Payload, ParityStart, 1))
	x := normalizeCPR(bits.ExtractUint(raw.Payload, CPRLonStart, CPRBits))
	y := normalizeCPR(bits.ExtractUint(raw.Payload, CPRLatStart, CPRBits))

	msg, err := NewPositionMessage(raw.TimestampNs, raw.Address, altitude, parity, x, y)
	if err != nil {
		panic(fmt.Sprintf("adsb: decoded position for %s is invalid: %v", raw.Address, err))
	}
	return msg, true
}

// normalizeCPR scales a 17-bit CPR value into [0, 1)
func normalizeCPR(v uint32) float64 {
	return math.Ldexp(float64(v), -CPRBits)
}

// TimestampNs returns the reception time in nanoseconds
func (m PositionMessage) TimestampNs() int64 { return m.timestampNs }

// Address returns the sender address
func (m PositionMessage) Address() IcaoAddress { return m.address }

// Altitude returns the barometric altitude in meters
func (m PositionMessage) Altitude() float64 { return m.altitude }

// Parity returns the CPR format bit: 0 for even frames, 1 for odd ones
func (m PositionMessage) Parity() uint8 { return m.parity }

// X returns the normalized CPR longitude
func (m PositionMessage) X() float64 { return m.x }

// Y returns the normalized CPR latitude
func (m PositionMessage) Y() float64 { return m.y }
