package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsbtrack/internal/adsb"
	"adsbtrack/internal/app"
	"adsbtrack/internal/registry"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// TestRootCommand_Flags tests the flag defaults
func TestRootCommand_Flags(t *testing.T) {
	cmd := newRootCommand()

	tests := []struct {
		flag     string
		expected string
	}{
		{flag: "feed", expected: app.DefaultFeedAddress},
		{flag: "input", expected: ""},
		{flag: "log-dir", expected: app.DefaultLogDir},
		{flag: "utc", expected: "true"},
		{flag: "log-retention", expected: "30"},
		{flag: "snapshot-interval", expected: app.DefaultSnapshotInterval.String()},
		{flag: "stats-interval", expected: app.DefaultStatsInterval.String()},
		{flag: "verbose", expected: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.expected, f.DefValue)
		})
	}
}

// TestVersion tests both ways of printing the version
func TestVersion(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"--version"}} {
		out, err := execute(t, args...)
		require.NoError(t, err)
		assert.Contains(t, out, "Version: "+app.Version)
	}
}

// TestImportCommand tests importing a registry CSV
func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "aircraft.csv")
	dbPath := filepath.Join(dir, "aircraft.db")
	require.NoError(t, os.WriteFile(csvPath, []byte("4840D6,PH-BXA,B738,BOEING 737-800,L2J,M\n"), 0644))

	out, err := execute(t, "import-db", "--db", dbPath, csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 aircraft")

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	reg, err := registry.Open(dbPath, 0, logger)
	require.NoError(t, err)
	defer reg.Close()

	a, found, err := reg.Lookup(context.Background(), adsb.IcaoAddress(0x4840D6))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "PH-BXA", a.Registration)
}

// TestImportCommand_Errors tests argument and file errors
func TestImportCommand_Errors(t *testing.T) {
	_, err := execute(t, "import-db")
	assert.Error(t, err)

	_, err = execute(t, "import-db", "--db", filepath.Join(t.TempDir(), "x.db"), "missing.csv")
	assert.Error(t, err)
}
