package beast

import (
	"fmt"

	"adsbtrack/internal/adsb"
)

// Beast mode message types
const (
	SyncByte   = 0x1A // Beast mode sync byte, doubled when it appears inside a frame
	ModeAC     = 0x31 // Mode A/C
	ModeS      = 0x32 // Mode S Short (56 bits)
	ModeSLong  = 0x33 // Mode S Long (112 bits)
	ModeStatus = 0x34 // Status
)

// Header sizes after the type byte
const (
	timestampBytes = 6
	signalBytes    = 1
	headerBytes    = timestampBytes + signalBytes
)

// MLATClockHz is the frequency of the receiver's 48-bit timestamp counter
const MLATClockHz = 12_000_000

// Frame is one unescaped Beast message
type Frame struct {
	MessageType byte
	MLAT        uint64 // 48-bit counter at MLATClockHz
	Signal      byte
	Data        []byte
}

// dataLength returns the payload size for a message type, 0 if unknown
func dataLength(messageType byte) int {
	switch messageType {
	case ModeAC, ModeStatus:
		return 2
	case ModeS:
		return 7
	case ModeSLong:
		return 14
	default:
		return 0
	}
}

// TimestampNs converts the receiver counter to nanoseconds
func (f *Frame) TimestampNs() int64 {
	return int64(f.MLAT * 1000 / (MLATClockHz / 1_000_000))
}

// GetICAO extracts ICAO address from Mode S message
func (f *Frame) GetICAO() uint32 {
	if f.MessageType != ModeS && f.MessageType != ModeSLong {
		return 0
	}
	if len(f.Data) < 4 {
		return 0
	}
	return (uint32(f.Data[1]) << 16) | (uint32(f.Data[2]) << 8) | uint32(f.Data[3])
}

// GetDF extracts Downlink Format from Mode S message
func (f *Frame) GetDF() byte {
	if f.MessageType != ModeS && f.MessageType != ModeSLong {
		return 0
	}
	if len(f.Data) < 1 {
		return 0
	}
	return (f.Data[0] >> 3) & 0x1F
}

// IsValid reports whether the payload has the size its type requires
func (f *Frame) IsValid() bool {
	n := dataLength(f.MessageType)
	return n != 0 && len(f.Data) == n
}

// RawMessage converts a long Mode S frame into the decoder input
func (f *Frame) RawMessage() (adsb.RawMessage, error) {
	if f.MessageType != ModeSLong {
		return adsb.RawMessage{}, fmt.Errorf("beast message type 0x%02x is not a long Mode S frame", f.MessageType)
	}
	return adsb.ParseFrame(f.TimestampNs(), f.Data)
}

// Encode serializes a frame with Beast escaping
func Encode(f Frame) []byte {
	out := make([]byte, 0, 2+2*(headerBytes+len(f.Data)))
	out = append(out, SyncByte, f.MessageType)

	body := make([]byte, 0, headerBytes+len(f.Data))
	for i := timestampBytes - 1; i >= 0; i-- {
		body = append(body, byte(f.MLAT>>(8*uint(i))))
	}
	body = append(body, f.Signal)
	body = append(body, f.Data...)

	for _, b := range body {
		out = append(out, b)
		if b == SyncByte {
			out = append(out, SyncByte)
		}
	}
	return out
}
