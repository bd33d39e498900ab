package adsb

import (
	"fmt"
	"strconv"
)

// IcaoAddress is the 24-bit transponder address of an aircraft
type IcaoAddress uint32

// ParseIcaoAddress parses a six digit hexadecimal address such as "4840D6"
func ParseIcaoAddress(s string) (IcaoAddress, error) {
	if len(s) != 6 {
		return 0, fmt.Errorf("invalid ICAO address %q: expected 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid ICAO address %q: %w", s, err)
	}
	return IcaoAddress(v), nil
}

// String formats the address as six upper-case hex digits
func (a IcaoAddress) String() string {
	return fmt.Sprintf("%06X", uint32(a))
}
