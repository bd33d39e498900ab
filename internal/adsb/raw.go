package adsb

import (
	"fmt"

	"adsbtrack/internal/bits"
)

// LongFrameBytes is the size of a 112-bit Mode S extended squitter
const LongFrameBytes = 14

// RawMessage is a demodulated, parity-checked long Mode S frame
type RawMessage struct {
	TimestampNs    int64
	DownlinkFormat uint8
	Address        IcaoAddress
	TypeCode       uint8
	Payload        uint64 // 56-bit ME field
}

// ParseFrame splits a 14-byte frame into its header fields and ME payload.
// It does not check the frame parity.
func ParseFrame(timestampNs int64, frame []byte) (RawMessage, error) {
	if len(frame) != LongFrameBytes {
		return RawMessage{}, fmt.Errorf("%w: got %d bytes, expected %d", ErrFrameLength, len(frame), LongFrameBytes)
	}
	if timestampNs < 0 {
		return RawMessage{}, fmt.Errorf("%w: %d", ErrNegativeTimestamp, timestampNs)
	}

	var payload uint64
	for _, b := range frame[4:11] {
		payload = payload<<8 | uint64(b)
	}

	return RawMessage{
		TimestampNs:    timestampNs,
		DownlinkFormat: frame[0] >> 3,
		Address:        IcaoAddress(uint32(frame[1])<<16 | uint32(frame[2])<<8 | uint32(frame[3])),
		TypeCode:       uint8(bits.ExtractUint(payload, TypeCodeStart, TypeCodeBits)),
		Payload:        payload,
	}, nil
}
