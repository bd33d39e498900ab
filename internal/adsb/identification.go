package adsb

import (
	"fmt"

	"adsbtrack/internal/bits"
)

// IdentificationMessage carries the emitter category and callsign of an aircraft
type IdentificationMessage struct {
	timestampNs int64
	address     IcaoAddress
	category    uint8
	callSign    CallSign
}

// NewIdentificationMessage builds an identification message, checking its invariants
func NewIdentificationMessage(timestampNs int64, address IcaoAddress, category uint8, callSign CallSign) (IdentificationMessage, error) {
	if timestampNs < 0 {
		return IdentificationMessage{}, fmt.Errorf("%w: %d", ErrNegativeTimestamp, timestampNs)
	}
	if _, err := NewCallSign(string(callSign)); err != nil {
		return IdentificationMessage{}, err
	}

	return IdentificationMessage{
		timestampNs: timestampNs,
		address:     address,
		category:    category,
		callSign:    callSign,
	}, nil
}

// DecodeIdentification decodes an identification payload (type codes 1-4).
// ok is false when the callsign contains an unassigned character.
func DecodeIdentification(raw RawMessage) (IdentificationMessage, bool) {
	callSign, ok := decodeCallSign(raw.Payload)
	if !ok {
		return IdentificationMessage{}, false
	}

	msg, err := NewIdentificationMessage(raw.TimestampNs, raw.Address, category(raw), callSign)
	if err != nil {
		panic(fmt.Sprintf("adsb: decoded identification for %s is invalid: %v", raw.Address, err))
	}
	return msg, true
}

// category combines the type code (as 14 - TC) with the 3-bit CA field
func category(raw RawMessage) uint8 {
	hi := 14 - int(raw.TypeCode)
	ca := bits.ExtractUint(raw.Payload, CategoryStart, CategoryBits)
	return uint8(hi<<4) | uint8(ca)
}

// TimestampNs returns the reception time in nanoseconds
func (m IdentificationMessage) TimestampNs() int64 { return m.timestampNs }

// Address returns the sender address
func (m IdentificationMessage) Address() IcaoAddress { return m.address }

// Category returns the emitter category byte
func (m IdentificationMessage) Category() uint8 { return m.category }

// CallSign returns the flight identification
func (m IdentificationMessage) CallSign() CallSign { return m.callSign }
