package state

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"adsbtrack/internal/adsb"
)

// PurgeWindow is how long a positioned aircraft may stay silent before it is dropped
const PurgeWindow = 60 * time.Second

// Listener observes changes to the live aircraft set. Calls happen after the
// manager lock is released, in the order the changes were made.
type Listener interface {
	AircraftAdded(state AircraftState)
	AircraftRemoved(state AircraftState)
}

// Manager owns the state of every tracked aircraft and the derived set of
// aircraft with a known position.
//
// Update and Purge are serialized by the manager; readers always see the
// aircraft table and the live set in agreement.
type Manager struct {
	logger    *logrus.Logger
	mu        sync.RWMutex
	aircraft  map[adsb.IcaoAddress]*AircraftState
	live      map[adsb.IcaoAddress]*AircraftState
	listeners []Listener
}

// NewManager creates an empty state manager
func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		logger:   logger,
		aircraft: make(map[adsb.IcaoAddress]*AircraftState),
		live:     make(map[adsb.IcaoAddress]*AircraftState),
	}
}

// AddListener registers l for live set changes
func (m *Manager) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Update folds msg into the state of its sender, creating the state on first contact
func (m *Manager) Update(msg adsb.Message) {
	m.mu.Lock()

	addr := msg.Address()
	state, ok := m.aircraft[addr]
	if !ok {
		state = newAircraftState(addr)
		m.aircraft[addr] = state
		m.logger.WithField("icao", addr.String()).Debug("Tracking new aircraft")
	}

	var added *AircraftState
	if state.update(msg) {
		m.live[addr] = state
		snapshot := *state
		added = &snapshot
		m.logger.WithFields(logrus.Fields{
			"icao":     addr.String(),
			"callsign": state.CallSign,
		}).Debug("Aircraft has a position")
	}
	listeners := m.listeners

	m.mu.Unlock()

	if added != nil {
		for _, l := range listeners {
			l.AircraftAdded(*added)
		}
	}
}

// Purge drops every positioned aircraft whose last message is at least
// PurgeWindow older than referenceNs, and returns what was removed.
// Aircraft that never reported a position are kept.
func (m *Manager) Purge(referenceNs int64) []AircraftState {
	m.mu.Lock()

	var removed []AircraftState
	for addr, state := range m.live {
		if referenceNs-state.LastMessageNs < int64(PurgeWindow) {
			continue
		}
		delete(m.live, addr)
		delete(m.aircraft, addr)
		removed = append(removed, *state)

		m.logger.WithFields(logrus.Fields{
			"icao":         addr.String(),
			"callsign":     state.CallSign,
			"silent_for_s": float64(referenceNs-state.LastMessageNs) / float64(time.Second),
		}).Debug("Purged stale aircraft")
	}
	listeners := m.listeners

	m.mu.Unlock()

	sortByAddress(removed)
	for _, state := range removed {
		for _, l := range listeners {
			l.AircraftRemoved(state)
		}
	}
	return removed
}

// LiveStates returns a copy of every aircraft with a known position, ordered by address
func (m *Manager) LiveStates() []AircraftState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make([]AircraftState, 0, len(m.live))
	for _, state := range m.live {
		states = append(states, *state)
	}
	sortByAddress(states)
	return states
}

// State returns a copy of the state for addr, positioned or not
func (m *Manager) State(addr adsb.IcaoAddress) (AircraftState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.aircraft[addr]
	if !ok {
		return AircraftState{}, false
	}
	return *state, true
}

// Count returns the number of tracked aircraft
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.aircraft)
}

// LiveCount returns the number of aircraft with a known position
func (m *Manager) LiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.live)
}

func sortByAddress(states []AircraftState) {
	sort.Slice(states, func(i, j int) bool { return states[i].Address < states[j].Address })
}
