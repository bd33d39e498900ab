// Package logging provides the daily rotating file writer used for SBS output.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// ErrClosed is returned when writing to a closed rotator
var ErrClosed = errors.New("log rotator closed")

// LogRotator writes to <dir>/<prefix>_YYYY-MM-DD.log, switching files at
// midnight and gzip compressing the finished day in the background
type LogRotator struct {
	logDir      string
	prefix      string
	useUTC      bool
	logger      *logrus.Logger
	now         func() time.Time
	currentFile *os.File
	currentDate string
	mutex       sync.RWMutex
	compressing sync.WaitGroup
}

// NewLogRotator creates the log directory and opens today's file
func NewLogRotator(logDir, prefix string, useUTC bool, logger *logrus.Logger) (*LogRotator, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &LogRotator{
		logDir: logDir,
		prefix: prefix,
		useUTC: useUTC,
		logger: logger,
		now:    time.Now,
	}

	rotator.mutex.Lock()
	defer rotator.mutex.Unlock()
	if err := rotator.rotateLogFile(); err != nil {
		return nil, fmt.Errorf("failed to initialize log file: %w", err)
	}

	return rotator, nil
}

// Start checks for a date change every minute until ctx is done
func (r *LogRotator) Start(ctx context.Context) {
	r.logger.Info("Starting log rotator")

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Log rotator stopping")
			return
		case <-ticker.C:
			r.checkRotation()
		}
	}
}

func (r *LogRotator) today() string {
	now := r.now()
	if r.useUTC {
		now = now.UTC()
	}
	return now.Format(dateLayout)
}

// checkRotation rotates when the date has changed since the file was opened
func (r *LogRotator) checkRotation() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentFile == nil {
		return
	}

	if currentDate := r.today(); r.currentDate != currentDate {
		r.logger.WithFields(logrus.Fields{
			"old_date": r.currentDate,
			"new_date": currentDate,
		}).Info("Rotating log file")

		if err := r.rotateLogFile(); err != nil {
			r.logger.WithError(err).Error("Failed to rotate log file")
		}
	}
}

// rotateLogFile opens the file for today. The caller holds the write lock.
func (r *LogRotator) rotateLogFile() error {
	newDate := r.today()
	if r.currentFile != nil && newDate == r.currentDate {
		return nil
	}

	if r.currentFile != nil {
		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old log file")
		}

		oldDate := r.currentDate
		r.compressing.Add(1)
		go func() {
			defer r.compressing.Done()
			if err := r.compressLogFile(oldDate); err != nil {
				r.logger.WithError(err).WithField("date", oldDate).Error("Failed to compress log file")
			}
		}()
	}

	path := r.logPath(newDate)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", path, err)
	}

	r.currentFile = file
	r.currentDate = newDate

	r.logger.WithField("file", path).Info("Opened log file")
	return nil
}

func (r *LogRotator) logPath(date string) string {
	return filepath.Join(r.logDir, fmt.Sprintf("%s_%s.log", r.prefix, date))
}

// compressLogFile replaces the log file for date with a gzip archive
func (r *LogRotator) compressLogFile(date string) error {
	logFile := r.logPath(date)
	gzipFile := logFile + ".gz"

	r.logger.WithFields(logrus.Fields{
		"source": logFile,
		"target": gzipFile,
	}).Info("Compressing log file")

	src, err := os.Open(logFile)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.WithField("file", logFile).Debug("Log file doesn't exist, skipping compression")
			return nil
		}
		return fmt.Errorf("open %s: %w", logFile, err)
	}
	defer src.Close()

	dst, err := os.Create(gzipFile)
	if err != nil {
		return fmt.Errorf("create %s: %w", gzipFile, err)
	}
	defer dst.Close()

	gzWriter := gzip.NewWriter(dst)
	gzWriter.Name = filepath.Base(logFile)
	gzWriter.ModTime = r.now()

	if _, err := io.Copy(gzWriter, src); err != nil {
		return fmt.Errorf("compress %s: %w", logFile, err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", gzipFile, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close %s: %w", gzipFile, err)
	}
	if err := os.Remove(logFile); err != nil {
		return fmt.Errorf("remove %s: %w", logFile, err)
	}

	r.logger.WithField("file", gzipFile).Info("Log file compressed successfully")
	return nil
}

// Write appends p to the current log file. It is safe across rotations.
func (r *LogRotator) Write(p []byte) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentFile == nil {
		return 0, ErrClosed
	}
	return r.currentFile.Write(p)
}

// GetWriter returns a writer that follows rotations
func (r *LogRotator) GetWriter() (io.Writer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentFile == nil {
		return nil, ErrClosed
	}
	return r, nil
}

// Close closes the current file and waits for pending compressions
func (r *LogRotator) Close() error {
	r.logger.Info("Closing log rotator")

	r.mutex.Lock()
	var err error
	if r.currentFile != nil {
		if err = r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close current log file")
		}
		r.currentFile = nil
	}
	r.mutex.Unlock()

	r.compressing.Wait()
	return err
}

// GetCurrentLogFile returns the current log file path
func (r *LogRotator) GetCurrentLogFile() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentDate == "" {
		return ""
	}
	return r.logPath(r.currentDate)
}

// GetLogFiles returns every log file of this prefix, compressed or not
func (r *LogRotator) GetLogFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.logDir, r.prefix+"_*.log*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}
	return files, nil
}

// CleanupOldLogs removes log files last modified more than maxDays ago
func (r *LogRotator) CleanupOldLogs(maxDays int) error {
	if maxDays <= 0 {
		return fmt.Errorf("maxDays must be positive")
	}

	files, err := r.GetLogFiles()
	if err != nil {
		return fmt.Errorf("failed to get log files: %w", err)
	}

	cutoff := r.now().AddDate(0, 0, -maxDays)
	current := r.GetCurrentLogFile()

	removed := 0
	for _, file := range files {
		if file == current {
			continue
		}

		info, err := os.Stat(file)
		if err != nil {
			r.logger.WithError(err).WithField("file", file).Warn("Failed to stat log file")
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				r.logger.WithError(err).WithField("file", file).Error("Failed to remove old log file")
			} else {
				r.logger.WithField("file", file).Info("Removed old log file")
				removed++
			}
		}
	}

	r.logger.WithField("count", removed).Info("Cleaned up old log files")
	return nil
}
