package app

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsbtrack/internal/adsb"
	"adsbtrack/internal/beast"
	"adsbtrack/internal/registry"
	"adsbtrack/internal/snapshot"
)

const (
	identKLM       = "8D4840D6202CC371C32CE0576098"
	ident40621D    = "8D40621D202CC371C32CE0576098"
	position40621D = "8D40621D58C382D690C8AC2863A7"
)

func beastFrame(t *testing.T, seconds float64, frameHex string) []byte {
	t.Helper()
	data, err := hex.DecodeString(frameHex)
	require.NoError(t, err)
	mlat := uint64(seconds * beast.MLATClockHz)
	return beast.Encode(beast.Frame{MessageType: beast.ModeSLong, MLAT: mlat, Signal: 0x40, Data: data})
}

func writeRecording(t *testing.T, chunks ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recording.beast")
	require.NoError(t, os.WriteFile(path, bytes.Join(chunks, nil), 0644))
	return path
}

func newTestApplication(config Config) *Application {
	app := NewApplication(config)
	app.logger.SetOutput(io.Discard)
	return app
}

// TestDefaultConfig tests the default configuration values
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, DefaultFeedAddress, config.FeedAddress)
	assert.Equal(t, DefaultLogDir, config.LogDir)
	assert.True(t, config.LogRotateUTC)
	assert.Equal(t, DefaultSnapshotInterval, config.SnapshotInterval)
	assert.Equal(t, DefaultStatsInterval, config.StatsInterval)
	assert.NoError(t, config.Validate())
}

// TestConfig_Validate tests rejection of unusable configurations
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "Defaults", modify: func(*Config) {}},
		{name: "Replay without feed", modify: func(c *Config) { c.FeedAddress = ""; c.InputFile = "in.beast" }},
		{name: "No input", modify: func(c *Config) { c.FeedAddress = "" }, wantErr: true},
		{name: "Snapshot without interval", modify: func(c *Config) { c.SnapshotPath = "x"; c.SnapshotInterval = 0 }, wantErr: true},
		{name: "Zero statistics interval", modify: func(c *Config) { c.StatsInterval = 0 }, wantErr: true},
		{name: "Negative retention", modify: func(c *Config) { c.LogRetentionDays = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)

			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestShowVersion tests the version output
func TestShowVersion(t *testing.T) {
	var buf bytes.Buffer
	ShowVersion(&buf)

	assert.Contains(t, buf.String(), "Version: "+Version)
	assert.Contains(t, buf.String(), "Git Commit: "+GitCommit)
}

// TestNewApplication tests the logger level selection
func TestNewApplication(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		expected logrus.Level
	}{
		{name: "Normal", verbose: false, expected: logrus.InfoLevel},
		{name: "Verbose", verbose: true, expected: logrus.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Verbose = tt.verbose

			app := NewApplication(config)
			require.NotNil(t, app)
			assert.Equal(t, tt.expected, app.logger.GetLevel())
		})
	}
}

// TestApplication_Replay tests a full run over a recorded Beast stream
func TestApplication_Replay(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "registry.db")

	reg, err := registry.Open(dbPath, 0, logrus.New())
	require.NoError(t, err)
	_, err = reg.Import(context.Background(), strings.NewReader("40621D,G-EUUU,A320,AIRBUS A-320,L2J,M\n"))
	require.NoError(t, err)
	require.NoError(t, reg.Close())

	input := writeRecording(t,
		beastFrame(t, 1, identKLM),
		beastFrame(t, 2, ident40621D),
		beastFrame(t, 3, position40621D),
		[]byte{0x1A, 0x31, 0, 0, 0, 0, 0, 4, 0x10, 0x12, 0x34}, // Mode AC
		beastFrame(t, 4, "5D4840D6E5E5E5E5E5E5E5E5E5E5"),       // DF11
	)

	config := DefaultConfig()
	config.InputFile = input
	config.LogDir = filepath.Join(dir, "logs")
	config.DatabasePath = dbPath
	config.SnapshotPath = filepath.Join(dir, snapshot.Filename)

	app := newTestApplication(config)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, app.Run(ctx))

	stats := app.Statistics()
	assert.Equal(t, uint64(5), stats.Frames)
	assert.Equal(t, uint64(3), stats.Decoded)
	assert.Equal(t, uint64(2), stats.Unsupported)
	assert.Equal(t, 2, app.manager.Count())
	assert.Equal(t, 1, app.manager.LiveCount())

	snap, err := snapshot.ReadFile(config.SnapshotPath)
	require.NoError(t, err)
	assert.Equal(t, int64(3_000_000_000), snap.TakenAtNs)
	require.Len(t, snap.Aircraft, 1)

	entry := snap.Aircraft[0]
	assert.Equal(t, adsb.IcaoAddress(0x40621D), entry.IcaoAddress())
	assert.Equal(t, "KLM1023", entry.CallSign)
	assert.InDelta(t, 11582.4, entry.Altitude, 1e-6)
	assert.Equal(t, "G-EUUU", entry.Registration)
	assert.Equal(t, "A320", entry.TypeDesignator)

	logs, err := filepath.Glob(filepath.Join(config.LogDir, DefaultLogPrefix+"_*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 1)

	content, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "MSG,1,1,1,4840D6,"))
	assert.True(t, strings.HasPrefix(lines[1], "MSG,1,1,1,40621D,"))
	assert.True(t, strings.HasPrefix(lines[2], "MSG,3,1,1,40621D,"))
	assert.Contains(t, lines[2], ",38000,")
}

// TestApplication_ReplayPurges tests that the message clock evicts silent aircraft
func TestApplication_ReplayPurges(t *testing.T) {
	input := writeRecording(t,
		beastFrame(t, 1, position40621D),
		beastFrame(t, 61, identKLM),
	)

	config := DefaultConfig()
	config.InputFile = input
	config.LogDir = ""

	app := newTestApplication(config)
	require.NoError(t, app.Run(context.Background()))

	assert.Equal(t, uint64(1), app.Statistics().Purged)
	assert.Equal(t, 1, app.manager.Count())
	assert.Equal(t, 0, app.manager.LiveCount())

	_, ok := app.manager.State(0x40621D)
	assert.False(t, ok)
}

// TestApplication_ProcessFrame tests how each kind of frame is counted
func TestApplication_ProcessFrame(t *testing.T) {
	data, err := hex.DecodeString(identKLM)
	require.NoError(t, err)

	tests := []struct {
		name     string
		frame    beast.Frame
		expected Stats
	}{
		{
			name:     "Extended squitter",
			frame:    beast.Frame{MessageType: beast.ModeSLong, MLAT: 12, Data: data},
			expected: Stats{Frames: 1, Decoded: 1},
		},
		{
			name:     "Truncated long frame",
			frame:    beast.Frame{MessageType: beast.ModeSLong, MLAT: 12, Data: data[:7]},
			expected: Stats{Frames: 1, Undecodable: 1},
		},
		{
			name:     "Short Mode S frame",
			frame:    beast.Frame{MessageType: beast.ModeS, MLAT: 12, Data: data[:7]},
			expected: Stats{Frames: 1, Unsupported: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.LogDir = ""

			app := newTestApplication(config)
			require.NoError(t, app.initializeComponents())
			defer app.closeComponents()

			app.processFrame(&tt.frame)
			assert.Equal(t, tt.expected, app.Statistics())
		})
	}
}

// TestApplication_MissingInput tests the error for an unreadable recording
func TestApplication_MissingInput(t *testing.T) {
	config := DefaultConfig()
	config.InputFile = filepath.Join(t.TempDir(), "missing.beast")
	config.LogDir = ""

	err := newTestApplication(config).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input file")
}

// TestApplication_Cancelled tests that a cancelled context stops a live feed
func TestApplication_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	config := DefaultConfig()
	config.LogDir = ""

	app := newTestApplication(config)
	require.NoError(t, app.initializeComponents())
	defer app.closeComponents()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.ingest(ctx, r) }()

	_, err := w.Write(beastFrame(t, 1, identKLM))
	require.NoError(t, err)

	cancel()
	r.CloseWithError(context.Canceled)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ingest did not stop")
	}
	assert.Equal(t, uint64(1), app.Statistics().Decoded)
}
