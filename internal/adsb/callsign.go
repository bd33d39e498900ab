package adsb

import (
	"fmt"
	"strings"

	"adsbtrack/internal/bits"
)

// CallSign is a flight identification of at most eight characters from A-Z, 0-9 and space
type CallSign string

// NewCallSign validates s against the callsign alphabet
func NewCallSign(s string) (CallSign, error) {
	if len(s) > CallSignChars {
		return "", fmt.Errorf("%w: %q longer than %d characters", ErrInvalidCallSign, s, CallSignChars)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == ' ') {
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidCallSign, s, c)
		}
	}
	return CallSign(s), nil
}

// String returns the callsign text
func (c CallSign) String() string {
	return string(c)
}

// decodeCallSign reads the eight 6-bit characters of an identification
// payload. Leading spaces are dropped; once a character has been written
// everything else is kept until the trailing spaces are trimmed.
func decodeCallSign(payload uint64) (CallSign, bool) {
	var sb strings.Builder
	sb.Grow(CallSignChars)

	for start := CallSignStart; start >= 0; start -= CallSignBits {
		c := callSignCharset[bits.ExtractUint(payload, uint(start), CallSignBits)]
		if c == InvalidCallSignSymbol {
			return "", false
		}
		if c == ' ' && sb.Len() == 0 {
			continue
		}
		sb.WriteByte(c)
	}

	return CallSign(strings.TrimRight(sb.String(), " ")), true
}
