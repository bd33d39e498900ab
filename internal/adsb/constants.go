package adsb

// Callsign 6-bit character set (ICAO Annex 10 IA-5 subset): A-Z, space, 0-9.
// Every other position holds InvalidCallSignSymbol.
const callSignCharset = "?ABCDEFGHIJKLMNOPQRSTUVWXYZ????? ???????????????0123456789??????"

// InvalidCallSignSymbol marks charset positions with no assigned character
const InvalidCallSignSymbol = '?'

// Extended squitter ME field layout (bit 0 = least significant bit of the 56-bit payload)
const (
	TypeCodeStart  = 51
	TypeCodeBits   = 5
	CategoryStart  = 48
	CategoryBits   = 3
	CallSignStart  = 42
	CallSignChars  = 8
	CallSignBits   = 6
	AltitudeStart  = 36
	AltitudeBits   = 12
	ParityStart    = 34
	CPRLatStart    = 17
	CPRLonStart    = 0
	CPRBits        = 17
	altitudeQIndex = 4
)

// Downlink formats and type code ranges handled by Decode
const (
	DFExtendedSquitter = 17

	MinIdentificationTypeCode = 1
	MaxIdentificationTypeCode = 4
)

// Altitude encoding constants
const (
	FeetToMeters = 0.3048

	q1BaseFeet          = -1000
	q1StepFeet          = 25
	gillhamBaseFeet     = -1300
	gillhamHundreds     = 100
	gillhamFiveHundreds = 500
)

// gillhamBitOrder[i] is the ALT field bit that becomes bit i of the
// unscrambled Gillham code. Never modified.
var gillhamBitOrder = [AltitudeBits]uint{7, 9, 11, 1, 3, 5, 6, 8, 10, 0, 2, 4}
