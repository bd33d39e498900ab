package app

import (
	"errors"
	"time"
)

// Default configuration constants
const (
	DefaultFeedAddress      = "127.0.0.1:30005" // dump1090 Beast output
	DefaultLogDir           = "./logs"
	DefaultLogPrefix        = "sbs"
	DefaultLogRetentionDays = 30
	DefaultSnapshotInterval = 30 * time.Second
	DefaultStatsInterval    = 30 * time.Second
	DefaultDialTimeout      = 10 * time.Second
)

// Config holds application configuration
type Config struct {
	FeedAddress      string // Beast TCP feed, used when InputFile is empty
	InputFile        string // recorded Beast stream to replay
	LogDir           string // SBS output directory, empty disables SBS output
	LogRotateUTC     bool
	LogRetentionDays int
	DatabasePath     string // aircraft registry, empty disables lookups
	SnapshotPath     string // live set snapshot file, empty disables snapshots
	SnapshotInterval time.Duration
	StatsInterval    time.Duration
	Verbose          bool
	ShowVersion      bool
}

// DefaultConfig returns the configuration used when no flags are given
func DefaultConfig() Config {
	return Config{
		FeedAddress:      DefaultFeedAddress,
		LogDir:           DefaultLogDir,
		LogRotateUTC:     true,
		LogRetentionDays: DefaultLogRetentionDays,
		SnapshotInterval: DefaultSnapshotInterval,
		StatsInterval:    DefaultStatsInterval,
	}
}

// Validate checks the configuration for values the application cannot run with
func (c Config) Validate() error {
	if c.InputFile == "" && c.FeedAddress == "" {
		return errors.New("either a feed address or an input file is required")
	}
	if c.SnapshotPath != "" && c.SnapshotInterval <= 0 {
		return errors.New("snapshot interval must be positive")
	}
	if c.StatsInterval <= 0 {
		return errors.New("statistics interval must be positive")
	}
	if c.LogRetentionDays < 0 {
		return errors.New("log retention must not be negative")
	}
	return nil
}
