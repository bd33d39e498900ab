package adsb

import "adsbtrack/internal/bits"

// decodeAltitude converts the 12-bit ALT field to meters. ok is false for
// Gillham codes whose 100-foot group is not a valid pattern.
func decodeAltitude(alt uint32) (float64, bool) {
	var feet int

	if bits.TestBit(uint64(alt), altitudeQIndex) {
		// 25 ft increments: drop the Q bit
		v := (alt>>(altitudeQIndex+1))<<altitudeQIndex | alt&(1<<altitudeQIndex-1)
		feet = q1BaseFeet + int(v)*q1StepFeet
	} else {
		code := unscrambleGillham(alt)
		low := grayToBinary(bits.ExtractUint(uint64(code), 0, 3), 3)
		high := grayToBinary(bits.ExtractUint(uint64(code), 3, 9), 9)

		switch low {
		case 0, 5, 6:
			return 0, false
		case 7:
			low = 5
		}
		if high%2 == 1 {
			low = 6 - low
		}
		feet = gillhamBaseFeet + int(low)*gillhamHundreds + int(high)*gillhamFiveHundreds
	}

	return float64(feet) * FeetToMeters, true
}

// unscrambleGillham reorders the ALT bits into D/A/B (500 ft) and C (100 ft) groups
func unscrambleGillham(alt uint32) uint32 {
	var code uint32
	for i, from := range gillhamBitOrder {
		code |= ((alt >> from) & 1) << uint(i)
	}
	return code
}

// grayToBinary decodes an n-bit reflected Gray code
func grayToBinary(gray uint32, n uint) uint32 {
	value := gray
	for i := uint(1); i < n; i++ {
		value ^= gray >> i
	}
	return value
}
