// Package snapshot stores the live aircraft set as zstd-compressed msgpack.
package snapshot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"adsbtrack/internal/adsb"
	"adsbtrack/internal/registry"
	"adsbtrack/internal/state"
)

// Filename is the default snapshot file name
const Filename = "live.msgpack.zst"

// Entry is one live aircraft together with its registry metadata
type Entry struct {
	Address        uint32  `msgpack:"address"`
	Category       uint8   `msgpack:"category"`
	CallSign       string  `msgpack:"callsign,omitempty"`
	Altitude       float64 `msgpack:"altitude"`
	Parity         uint8   `msgpack:"parity"`
	X              float64 `msgpack:"x"`
	Y              float64 `msgpack:"y"`
	LastMessageNs  int64   `msgpack:"last_message_ns"`
	Registration   string  `msgpack:"registration,omitempty"`
	TypeDesignator string  `msgpack:"type_designator,omitempty"`
	Model          string  `msgpack:"model,omitempty"`
}

// Snapshot is the live set at one point of the message clock
type Snapshot struct {
	TakenAtNs int64   `msgpack:"taken_at_ns"`
	Aircraft  []Entry `msgpack:"aircraft"`
}

// NewEntry builds an entry from an aircraft state and its metadata
func NewEntry(s state.AircraftState, meta registry.Aircraft) Entry {
	return Entry{
		Address:        uint32(s.Address),
		Category:       s.Category,
		CallSign:       s.CallSign.String(),
		Altitude:       s.Altitude,
		Parity:         s.Parity,
		X:              s.X,
		Y:              s.Y,
		LastMessageNs:  s.LastMessageNs,
		Registration:   meta.Registration,
		TypeDesignator: meta.TypeDesignator,
		Model:          meta.Model,
	}
}

// IcaoAddress returns the entry address as a typed value
func (e Entry) IcaoAddress() adsb.IcaoAddress {
	return adsb.IcaoAddress(e.Address)
}

// Save writes the snapshot to w (msgpack + zstd compression)
func Save(w io.Writer, s Snapshot) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	if err := msgpack.NewEncoder(zw).Encode(s); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}

	return nil
}

// Load reads a snapshot written by Save
func Load(r io.Reader) (Snapshot, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var s Snapshot
	if err := msgpack.NewDecoder(zr).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return s, nil
}

// WriteFile saves the snapshot to path. The file is replaced atomically.
func WriteFile(path string, s Snapshot) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Save(tmp, s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// ReadFile loads the snapshot stored at path
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	return Load(f)
}
