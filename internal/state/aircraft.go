// Package state folds decoded messages into per-aircraft state and tracks
// which aircraft are live.
package state

import (
	"adsbtrack/internal/adsb"
)

// AircraftState is the latest known information about one aircraft
type AircraftState struct {
	Address       adsb.IcaoAddress
	Category      uint8
	CallSign      adsb.CallSign
	Altitude      float64 // meters
	Parity        uint8
	X             float64 // normalized CPR longitude
	Y             float64 // normalized CPR latitude
	LastMessageNs int64
	HasPosition   bool
}

func newAircraftState(address adsb.IcaoAddress) *AircraftState {
	return &AircraftState{Address: address}
}

// update merges msg into the state. It reports whether this message gave the
// aircraft its first position.
func (s *AircraftState) update(msg adsb.Message) bool {
	firstPosition := false

	switch m := msg.(type) {
	case adsb.IdentificationMessage:
		s.Category = m.Category()
		s.CallSign = m.CallSign()
	case adsb.PositionMessage:
		s.Altitude = m.Altitude()
		s.Parity = m.Parity()
		s.X = m.X()
		s.Y = m.Y()
		firstPosition = !s.HasPosition
		s.HasPosition = true
	}

	s.LastMessageNs = msg.TimestampNs()
	return firstPosition
}
