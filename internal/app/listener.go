package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"adsbtrack/internal/registry"
	"adsbtrack/internal/state"
)

// liveSetLogger logs aircraft entering and leaving the live set
type liveSetLogger struct {
	logger   *logrus.Logger
	registry *registry.Registry
}

func (l *liveSetLogger) fields(s state.AircraftState) logrus.Fields {
	fields := logrus.Fields{
		"icao":     s.Address.String(),
		"callsign": s.CallSign.String(),
		"altitude": s.Altitude,
	}
	if l.registry == nil {
		return fields
	}

	meta, found, err := l.registry.Lookup(context.Background(), s.Address)
	if err != nil {
		l.logger.WithError(err).WithField("icao", s.Address.String()).Debug("Registry lookup failed")
		return fields
	}
	if found {
		fields["registration"] = meta.Registration
		fields["type"] = meta.TypeDesignator
	}
	return fields
}

// AircraftAdded implements state.Listener
func (l *liveSetLogger) AircraftAdded(s state.AircraftState) {
	l.logger.WithFields(l.fields(s)).Info("Aircraft positioned")
}

// AircraftRemoved implements state.Listener
func (l *liveSetLogger) AircraftRemoved(s state.AircraftState) {
	l.logger.WithFields(l.fields(s)).Info("Aircraft lost")
}
