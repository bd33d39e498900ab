package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"adsbtrack/internal/adsb"
	"adsbtrack/internal/basestation"
	"adsbtrack/internal/beast"
	"adsbtrack/internal/logging"
	"adsbtrack/internal/registry"
	"adsbtrack/internal/snapshot"
	"adsbtrack/internal/state"
)

const readBufferSize = 16 * 1024

// Stats counts what happened to the frames read from the input
type Stats struct {
	Frames      uint64
	Unsupported uint64
	Undecodable uint64
	Decoded     uint64
	Purged      uint64
}

type counters struct {
	frames      atomic.Uint64
	unsupported atomic.Uint64
	undecodable atomic.Uint64
	decoded     atomic.Uint64
	purged      atomic.Uint64
}

// Application represents the main application
type Application struct {
	config      Config
	logger      *logrus.Logger
	decoder     *beast.Decoder
	manager     *state.Manager
	registry    *registry.Registry
	baseStation *basestation.Writer
	logRotator  *logging.LogRotator
	stats       counters

	// latest message timestamp, the clock of the live set
	lastMessageNs atomic.Int64
}

// NewApplication creates a new application instance
func NewApplication(config Config) *Application {
	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		config: config,
		logger: logger,
	}
}

// Start runs the application until SIGINT or SIGTERM, or until a replayed
// input ends
func (app *Application) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx)
}

// Run runs the application until ctx is done or the input ends
func (app *Application) Run(ctx context.Context) error {
	if err := app.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting ADS-B aircraft tracker")

	if err := app.initializeComponents(); err != nil {
		app.closeComponents()
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer app.shutdown()

	source, err := app.openSource(ctx)
	if err != nil {
		return err
	}
	defer source.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopSource := context.AfterFunc(ctx, func() { source.Close() })
	defer stopSource()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return app.ingest(ctx, source)
	})

	g.Go(func() error {
		app.reportStatistics(ctx)
		return nil
	})

	if app.logRotator != nil {
		g.Go(func() error {
			app.logRotator.Start(ctx)
			return nil
		})
	}

	if app.config.SnapshotPath != "" {
		g.Go(func() error {
			app.snapshotLoop(ctx)
			return nil
		})
	}

	app.logger.Info("All components started successfully")
	return g.Wait()
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	var err error

	app.decoder = beast.NewDecoder(app.logger)
	app.manager = state.NewManager(app.logger)

	if app.config.DatabasePath != "" {
		app.registry, err = registry.Open(app.config.DatabasePath, registry.DefaultCacheSize, app.logger)
		if err != nil {
			return fmt.Errorf("failed to open aircraft registry: %w", err)
		}
	}
	app.manager.AddListener(&liveSetLogger{logger: app.logger, registry: app.registry})

	if app.config.LogDir != "" {
		app.logRotator, err = logging.NewLogRotator(app.config.LogDir, DefaultLogPrefix, app.config.LogRotateUTC, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize log rotator: %w", err)
		}
		if app.config.LogRetentionDays > 0 {
			if err := app.logRotator.CleanupOldLogs(app.config.LogRetentionDays); err != nil {
				app.logger.WithError(err).Warn("Failed to clean up old logs")
			}
		}
		app.baseStation = basestation.NewWriter(app.logRotator, app.logger)
	}

	return nil
}

// openSource connects to the Beast feed or opens the replay file
func (app *Application) openSource(ctx context.Context) (io.ReadCloser, error) {
	if app.config.InputFile != "" {
		f, err := os.Open(app.config.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		app.logger.WithField("file", app.config.InputFile).Info("Replaying Beast recording")
		return f, nil
	}

	dialer := net.Dialer{Timeout: DefaultDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", app.config.FeedAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to feed %s: %w", app.config.FeedAddress, err)
	}
	app.logger.WithField("address", app.config.FeedAddress).Info("Connected to Beast feed")
	return conn, nil
}

// ingest reads the input until it ends or ctx is done. It is the only writer
// of the state table.
func (app *Application) ingest(ctx context.Context, r io.Reader) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, frame := range app.decoder.Decode(buf[:n]) {
				app.processFrame(frame)
			}
		}

		switch {
		case errors.Is(err, io.EOF):
			app.logger.Info("Input ended")
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// processFrame decodes one Beast frame and folds it into the state table
func (app *Application) processFrame(frame *beast.Frame) {
	app.stats.frames.Add(1)

	if !frame.IsValid() {
		app.logger.WithField("message_type", fmt.Sprintf("0x%02x", frame.MessageType)).Debug("Dropping frame with bad payload length")
		app.stats.undecodable.Add(1)
		return
	}

	if frame.MessageType != beast.ModeSLong || frame.GetDF() != adsb.DFExtendedSquitter {
		app.logger.WithFields(logrus.Fields{
			"df":   frame.GetDF(),
			"icao": fmt.Sprintf("%06X", frame.GetICAO()),
		}).Debug("Skipping unsupported frame")
		app.stats.unsupported.Add(1)
		return
	}

	raw, err := frame.RawMessage()
	if err != nil {
		app.logger.WithError(err).Debug("Failed to parse frame")
		app.stats.undecodable.Add(1)
		return
	}

	msg, ok := adsb.Decode(raw)
	if !ok {
		app.stats.undecodable.Add(1)
		return
	}
	app.stats.decoded.Add(1)

	app.manager.Update(msg)
	app.lastMessageNs.Store(msg.TimestampNs())

	if removed := app.manager.Purge(msg.TimestampNs()); len(removed) > 0 {
		app.stats.purged.Add(uint64(len(removed)))
	}

	if app.baseStation != nil {
		if err := app.baseStation.WriteMessage(msg); err != nil {
			app.logger.WithError(err).Debug("Failed to write SBS message")
		}
	}
}

// Statistics returns the current frame counters
func (app *Application) Statistics() Stats {
	return Stats{
		Frames:      app.stats.frames.Load(),
		Unsupported: app.stats.unsupported.Load(),
		Undecodable: app.stats.undecodable.Load(),
		Decoded:     app.stats.decoded.Load(),
		Purged:      app.stats.purged.Load(),
	}
}

// reportStatistics reports processing statistics periodically
func (app *Application) reportStatistics(ctx context.Context) {
	ticker := time.NewTicker(app.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.logStatistics("Processing statistics")
		}
	}
}

func (app *Application) logStatistics(msg string) {
	s := app.Statistics()
	app.logger.WithFields(logrus.Fields{
		"frames":      s.Frames,
		"unsupported": s.Unsupported,
		"undecodable": s.Undecodable,
		"decoded":     s.Decoded,
		"purged":      s.Purged,
		"tracked":     app.manager.Count(),
		"live":        app.manager.LiveCount(),
	}).Info(msg)
}

// snapshotLoop writes the live set every SnapshotInterval
func (app *Application) snapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(app.config.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.writeSnapshot(ctx); err != nil {
				app.logger.WithError(err).Warn("Failed to write snapshot")
			}
		}
	}
}

// writeSnapshot saves the live set with registry metadata
func (app *Application) writeSnapshot(ctx context.Context) error {
	live := app.manager.LiveStates()
	snap := snapshot.Snapshot{
		TakenAtNs: app.lastMessageNs.Load(),
		Aircraft:  make([]snapshot.Entry, 0, len(live)),
	}

	for _, s := range live {
		var meta registry.Aircraft
		if app.registry != nil {
			var err error
			meta, _, err = app.registry.Lookup(ctx, s.Address)
			if err != nil {
				app.logger.WithError(err).WithField("icao", s.Address.String()).Debug("Registry lookup failed")
			}
		}
		snap.Aircraft = append(snap.Aircraft, snapshot.NewEntry(s, meta))
	}

	if err := snapshot.WriteFile(app.config.SnapshotPath, snap); err != nil {
		return err
	}

	app.logger.WithFields(logrus.Fields{
		"path":     app.config.SnapshotPath,
		"aircraft": len(snap.Aircraft),
	}).Debug("Snapshot written")
	return nil
}

// shutdown writes the final snapshot and releases resources
func (app *Application) shutdown() {
	app.logger.Info("Shutting down application")

	if app.config.SnapshotPath != "" {
		if err := app.writeSnapshot(context.Background()); err != nil {
			app.logger.WithError(err).Warn("Failed to write final snapshot")
		}
	}

	app.logStatistics("Final statistics")
	app.closeComponents()
	app.logger.Info("Shutdown completed")
}

func (app *Application) closeComponents() {
	if app.logRotator != nil {
		if err := app.logRotator.Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close log rotator")
		}
		app.logRotator = nil
	}
	if app.registry != nil {
		if err := app.registry.Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close aircraft registry")
		}
		app.registry = nil
	}
}
